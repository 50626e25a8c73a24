package worker

import (
	"errors"
	"fmt"
)

// Budget limits the number of pipeline steps a worker may spend on one
// surface.
//
// Budgets exist because most goals can run forever: a surface whose orbit
// closure is not dense will keep yielding saddle connections without ever
// resolving. A nil Budget means unlimited.
type Budget struct {
	limit int
	used  int
}

// NewBudget creates a budget of limit pipeline steps.
func NewBudget(limit int) *Budget {
	return &Budget{limit: limit}
}

// Check spends one step and fails with a BudgetExceededError once the
// budget is overdrawn. A nil budget never fails.
func (b *Budget) Check(token string) error {
	if b == nil {
		return nil
	}
	b.used++
	if b.used > b.limit {
		return &BudgetExceededError{Token: token, Steps: b.used, Limit: b.limit}
	}
	return nil
}

// Used returns the number of steps spent so far.
func (b *Budget) Used() int {
	if b == nil {
		return 0
	}
	return b.used
}

// Limit returns the step limit.
func (b *Budget) Limit() int {
	if b == nil {
		return 0
	}
	return b.limit
}

// BudgetExceededError is returned by Check when a run has spent its step
// budget. Exhaustion is an expected outcome, not a failure; the worker
// finalizes its goals as undetermined and ends the surface normally.
type BudgetExceededError struct {
	// Token identifies the run that exhausted its budget.
	Token string
	// Steps is the number of steps taken, Limit the allowance.
	Steps int
	Limit int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("run %s exceeded step budget: %d steps > %d limit", e.Token, e.Steps, e.Limit)
}

// IsBudgetExceeded reports whether err is a BudgetExceededError, wrapped
// or not.
func IsBudgetExceeded(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}
