package valueobject

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// LoanStatus – immutable value object
// ---------------------------------------------------------------------------

// LoanStatus represents the lifecycle stage of a loan.
//
//	ACTIVE ──▶ LATE ──▶ ACTIVE
//	  │          │
//	  ├──────────┴──▶ SETTLED        (terminal)
//	  └──────────┴──▶ RESTRUCTURED   (terminal)
type LoanStatus struct {
	value string
}

const (
	loanStatusActive       = "ACTIVE"
	loanStatusLate         = "LATE"
	loanStatusRestructured = "RESTRUCTURED"
	loanStatusSettled      = "SETTLED"
)

var (
	LoanStatusActive       = LoanStatus{value: loanStatusActive}
	LoanStatusLate         = LoanStatus{value: loanStatusLate}
	LoanStatusRestructured = LoanStatus{value: loanStatusRestructured}
	LoanStatusSettled      = LoanStatus{value: loanStatusSettled}
)

var validLoanStatuses = map[string]LoanStatus{
	loanStatusActive:       LoanStatusActive,
	loanStatusLate:         LoanStatusLate,
	loanStatusRestructured: LoanStatusRestructured,
	loanStatusSettled:      LoanStatusSettled,
}

var loanStatusTransitions = map[string][]string{
	loanStatusActive: {loanStatusLate, loanStatusSettled, loanStatusRestructured},
	loanStatusLate:   {loanStatusActive, loanStatusSettled, loanStatusRestructured},
}

// NewLoanStatus creates a LoanStatus from a raw string.
func NewLoanStatus(s string) (LoanStatus, error) {
	v, ok := validLoanStatuses[s]
	if !ok {
		return LoanStatus{}, fmt.Errorf("invalid loan status: %q", s)
	}
	return v, nil
}

// String returns the string representation of the status.
func (s LoanStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s LoanStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s LoanStatus) Equal(other LoanStatus) bool { return s.value == other.value }

// IsTerminal reports whether no further operation may be applied to a loan in
// this status.
func (s LoanStatus) IsTerminal() bool {
	return s.value == loanStatusSettled || s.value == loanStatusRestructured
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	for _, allowed := range loanStatusTransitions[s.value] {
		if allowed == next.value {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)
