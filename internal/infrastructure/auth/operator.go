package auth

import "context"

// OperatorRegistry implements usecase.AccessController against a fixed
// set of operator identities loaded from configuration. Only these
// callers may liquidate.
type OperatorRegistry struct {
	operators map[string]struct{}
}

// NewOperatorRegistry creates a registry from the configured operator IDs.
func NewOperatorRegistry(ids []string) *OperatorRegistry {
	operators := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			operators[id] = struct{}{}
		}
	}
	return &OperatorRegistry{operators: operators}
}

// IsAuthorizedOperator reports whether callerID may run privileged
// engine operations.
func (r *OperatorRegistry) IsAuthorizedOperator(_ context.Context, callerID string) (bool, error) {
	_, ok := r.operators[callerID]
	return ok, nil
}
