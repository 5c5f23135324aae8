package model

import "errors"

// Validation errors. Inputs carrying these are rejected before any state is
// touched.
var (
	ErrInvalidTerm             = errors.New("invalid loan term")
	ErrUnsupportedFrequency    = errors.New("unsupported frequency")
	ErrUnsupportedMode         = errors.New("unsupported amortization mode")
	ErrUnsupportedRateType     = errors.New("unsupported rate type")
	ErrInvalidPaymentAmount    = errors.New("payment amount must be positive")
	ErrCurrencyMismatch        = errors.New("payment currency does not match loan currency")
	ErrUnknownInstallment      = errors.New("installment does not exist")
	ErrInvalidPrepaymentAmount = errors.New("prepayment amount must be positive")
	ErrUnsupportedPrepayment   = errors.New("unsupported prepayment mode")
	ErrOwnerRequired           = errors.New("owner ID is required")
	ErrInvalidCurrency         = errors.New("invalid currency")
)

// State errors. The operation is well formed but the loan is not in a state
// that allows it.
var (
	ErrTerminalState            = errors.New("loan is in a terminal state")
	ErrScheduleLocked           = errors.New("schedule cannot be rebuilt after payments were recorded")
	ErrArrearsOutstanding       = errors.New("loan has overdue installments")
	ErrInstallmentPartiallyPaid = errors.New("an unsettled installment already carries a payment")
	ErrNoArrears                = errors.New("loan has no overdue installments")
	ErrStalePlan                = errors.New("prepayment plan no longer matches the loan")
	ErrAmountExceedsPrincipal   = errors.New("prepayment amount exceeds remaining principal")
	ErrNoConvergence            = errors.New("no shorter term keeps the installment at or below its current level")
)
