package types

import (
	"errors"
	"fmt"
)

// ErrMissingData indicates a sub-model or pattern layer lacked the features
// it needs. Recovered locally by skipping that contributor, never fatal.
var ErrMissingData = errors.New("missing required input data")

// InsufficientPoolError indicates fewer eligible candidates than slots.
// Surfaced through Lineup.Valid=false, not as a failure of the build call.
type InsufficientPoolError struct {
	Slot      string
	Available int
	Required  int
}

func (e *InsufficientPoolError) Error() string {
	return fmt.Sprintf("insufficient pool for slot %s: %d available, %d required", e.Slot, e.Available, e.Required)
}

// BudgetInfeasibleError indicates no candidate combination fits the cap.
type BudgetInfeasibleError struct {
	SalaryCap int
	Shortfall int
}

func (e *BudgetInfeasibleError) Error() string {
	return fmt.Sprintf("no lineup fits salary cap $%d (short by $%d)", e.SalaryCap, e.Shortfall)
}

// ProviderError indicates an upstream feed failure. Propagated to the caller
// as a partial-result indicator; previously computed signals stay valid.
type ProviderError struct {
	Source string
	Reason string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Source, e.Reason)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ConfigError is a fatal precondition violation, raised before any
// computation begins.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}
