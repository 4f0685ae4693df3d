package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/infrastructure/auth"
	"github.com/iho/vaultledger/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
	token   string
)

// Swappable for tests.
var jwtGenerate = func(secret string, expiration time.Duration, caller *domain.Caller) (string, error) {
	return auth.NewJWTManager(secret, expiration).Generate(caller)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "vaultledger-cli",
		Short: "VaultLedger CLI tool",
		Long:  `A command line interface for interacting with the VaultLedger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the VaultLedger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token for authenticated endpoints")

	// Position commands
	positionCmd := &cobra.Command{
		Use:   "position",
		Short: "Position operations",
	}
	positionCmd.AddCommand(positionGetCmd(), positionListCmd())
	rootCmd.AddCommand(positionCmd)

	for _, op := range []string{"deposit", "borrow", "repay", "withdraw"} {
		rootCmd.AddCommand(mutateCmd(op))
	}

	rootCmd.AddCommand(liquidateCmd())
	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(quoteCmd())
	rootCmd.AddCommand(healthCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func positionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <account>",
		Short: "Show an account position with its borrow capacity",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get(fmt.Sprintf("%s/api/v1/positions/%s", baseURL, args[0]))
		},
	}
}

func positionListCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List positions",
		Run: func(cmd *cobra.Command, args []string) {
			get(fmt.Sprintf("%s/api/v1/positions/?limit=%d&offset=%d", baseURL, limit, offset))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum positions to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Positions to skip")
	return cmd
}

func mutateCmd(op string) *cobra.Command {
	var idempotencyKey string
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s <account> <amount>", op),
		Short: fmt.Sprintf("Apply a %s to an account position", op),
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			body := map[string]string{"amount": args[1]}
			post(fmt.Sprintf("%s/api/v1/positions/%s/%s", baseURL, args[0], op), body, idempotencyKey)
		},
	}
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header value")
	return cmd
}

func liquidateCmd() *cobra.Command {
	var idempotencyKey string
	cmd := &cobra.Command{
		Use:   "liquidate <account>",
		Short: "Write off an undercollateralized position (operator only)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			post(fmt.Sprintf("%s/api/v1/liquidations/%s", baseURL, args[0]), nil, idempotencyKey)
		},
	}
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header value")
	return cmd
}

func auditCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "audit <account>",
		Short: "Show the liquidation audit trail for an account (operator only)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get(fmt.Sprintf("%s/api/v1/liquidations/%s/audit?limit=%d&offset=%d", baseURL, args[0], limit, offset))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Entries to skip")
	return cmd
}

func quoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote",
		Short: "Show the market pair and the current oracle quote",
		Run: func(cmd *cobra.Command, args []string) {
			get(baseURL + "/api/v1/quote")
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check API health",
		Run: func(cmd *cobra.Command, args []string) {
			get(baseURL + "/ready")
		},
	}
}

func migrateCmd() *cobra.Command {
	var databaseURL, path string
	cmd := &cobra.Command{
		Use:   "migrate <up|down>",
		Short: "Run database migrations",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			if databaseURL == "" {
				fmt.Println("database URL required (--database-url or DATABASE_URL)")
				os.Exit(1)
			}

			var err error
			switch args[0] {
			case "up":
				err = postgres.RunMigrations(databaseURL, path)
			case "down":
				err = postgres.RunMigrationsDown(databaseURL, path)
			default:
				fmt.Printf("unknown direction %q, want up or down\n", args[0])
				os.Exit(1)
			}
			if err != nil {
				fmt.Printf("Migration failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Migrations applied")
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection URL")
	cmd.Flags().StringVar(&path, "path", "migrations", "Path to migration files")
	return cmd
}

func tokenCmd() *cobra.Command {
	var role string
	var expiration time.Duration
	cmd := &cobra.Command{
		Use:   "token <caller-id>",
		Short: "Issue a JWT for a caller (requires JWT_SECRET)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}

			caller := &domain.Caller{ID: args[0], Role: domain.Role(role)}
			if !caller.Role.IsValid() {
				return fmt.Errorf("unknown role %q", role)
			}

			signed, err := jwtGenerate(secret, expiration, caller)
			if err != nil {
				return err
			}
			fmt.Println(signed)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(domain.RoleAccount), "Caller role: account, operator or admin")
	cmd.Flags().DurationVar(&expiration, "expiration", 24*time.Hour, "Token lifetime")
	return cmd
}

func get(url string) {
	do(http.MethodGet, url, nil, "")
}

func post(url string, body any, idempotencyKey string) {
	do(http.MethodPost, url, body, idempotencyKey)
}

func do(method, url string, body any, idempotencyKey string) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			fmt.Printf("Error encoding request: %v\n", err)
			os.Exit(1)
		}
		reader = strings.NewReader(string(payload))
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, truncate(string(raw), 2000))
		os.Exit(1)
	}

	var result any
	if err := json.Unmarshal(raw, &result); err != nil {
		fmt.Println(string(raw))
		return
	}
	printJSON(result)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to render response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
