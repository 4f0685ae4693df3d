package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger operation metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec

	// Liquidation metrics
	LiquidationsTotal    *prometheus.CounterVec
	DebtWrittenOff       prometheus.Counter
	CollateralWrittenOff prometheus.Counter

	// Oracle metrics
	OraclePrice  prometheus.Gauge
	OracleErrors prometheus.Counter

	// Custody metrics
	CustodyTransfers *prometheus.CounterVec
	CustodyErrors    *prometheus.CounterVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Ledger operation metrics
		OperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultledger_operations_total",
				Help: "Total ledger operations by type and outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vaultledger_operation_duration_seconds",
				Help:    "Duration of ledger operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		OperationErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultledger_operation_errors_total",
				Help: "Total ledger operation errors by type",
			},
			[]string{"operation", "error_type"},
		),

		// Liquidation metrics
		LiquidationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultledger_liquidations_total",
				Help: "Total liquidation attempts by outcome",
			},
			[]string{"outcome"},
		),
		DebtWrittenOff: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vaultledger_debt_written_off_total",
			Help: "Total liquidations that wrote off a debt balance",
		}),
		CollateralWrittenOff: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vaultledger_collateral_written_off_total",
			Help: "Total liquidations that wrote off a collateral balance",
		}),

		// Oracle metrics
		OraclePrice: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vaultledger_oracle_price",
			Help: "Last observed oracle price, collateral per unit of debt",
		}),
		OracleErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vaultledger_oracle_errors_total",
			Help: "Total failed oracle queries",
		}),

		// Custody metrics
		CustodyTransfers: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultledger_custody_transfers_total",
				Help: "Total custody transfers by direction",
			},
			[]string{"direction"},
		),
		CustodyErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultledger_custody_errors_total",
				Help: "Total failed custody transfers by direction",
			},
			[]string{"direction"},
		),

		// Database metrics
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultledger_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vaultledger_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultledger_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),
	}
}
