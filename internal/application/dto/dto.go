package dto

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// RateRevisionRequest schedules a new annual rate for a variable-rate loan.
type RateRevisionRequest struct {
	EffectiveDate civil.Date      `json:"effective_date"`
	AnnualRate    decimal.Decimal `json:"annual_rate"`
}

// LoanTermsRequest carries the contractual terms of a loan.
type LoanTermsRequest struct {
	Principal             decimal.Decimal       `json:"principal"`
	AnnualRate            decimal.Decimal       `json:"annual_rate"`
	RateType              string                `json:"rate_type"`
	RateRevisions         []RateRevisionRequest `json:"rate_revisions,omitempty"`
	Mode                  string                `json:"mode"`
	Frequency             string                `json:"frequency"`
	TotalPeriods          int                   `json:"total_periods"`
	GracePeriods          int                   `json:"grace_periods"`
	StartDate             civil.Date            `json:"start_date"`
	UpfrontFees           decimal.Decimal       `json:"upfront_fees"`
	PeriodicInsurance     decimal.Decimal       `json:"periodic_insurance"`
	BalloonFraction       decimal.Decimal       `json:"balloon_fraction"`
	PrepaymentPenaltyRate decimal.Decimal       `json:"prepayment_penalty_rate"`
	RecalcOnRateChange    bool                  `json:"recalc_on_rate_change"`
}

// OriginateLoanRequest carries the data needed to register a new loan.
type OriginateLoanRequest struct {
	OwnerID  string           `json:"owner_id"`
	Currency string           `json:"currency"`
	Terms    LoanTermsRequest `json:"terms"`
}

// BuildScheduleRequest identifies a loan whose schedule is regenerated.
type BuildScheduleRequest struct {
	OwnerID string `json:"owner_id"`
	LoanID  string `json:"loan_id"`
}

// RecordPaymentRequest carries the data for a loan payment.
type RecordPaymentRequest struct {
	OwnerID         string              `json:"owner_id"`
	LoanID          string              `json:"loan_id"`
	PeriodIndex     int                 `json:"period_index,omitempty"`
	PaidAt          civil.Date          `json:"paid_at"`
	Amount          decimal.Decimal     `json:"amount"`
	Currency        string              `json:"currency"`
	FXRate          decimal.NullDecimal `json:"fx_rate"`
	Method          string              `json:"method,omitempty"`
	SourceAccountID string              `json:"source_account_id,omitempty"`
}

// PrepaymentRequest carries a prepayment scenario, for simulation or application.
type PrepaymentRequest struct {
	OwnerID string          `json:"owner_id"`
	LoanID  string          `json:"loan_id"`
	AsOf    civil.Date      `json:"as_of"`
	Amount  decimal.Decimal `json:"amount"`
	Mode    string          `json:"mode"`
}

// RestructureDebtRequest replaces a loan with a new one under new terms.
type RestructureDebtRequest struct {
	OwnerID string           `json:"owner_id"`
	LoanID  string           `json:"loan_id"`
	Terms   LoanTermsRequest `json:"terms"`
}

// GetLoanRequest identifies a loan to retrieve.
type GetLoanRequest struct {
	OwnerID          string `json:"owner_id"`
	LoanID           string `json:"loan_id"`
	WithInstallments bool   `json:"with_installments"`
}

// ListLoansRequest lists the loans of an owner.
type ListLoansRequest struct {
	OwnerID string `json:"owner_id"`
}

// MarkOverdueRequest runs the overdue sweep as of a date.
type MarkOverdueRequest struct {
	AsOf civil.Date `json:"as_of"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// ScheduleLineResponse represents a single schedule line.
type ScheduleLineResponse struct {
	PeriodIndex             int             `json:"period_index"`
	DueDate                 civil.Date      `json:"due_date"`
	PrincipalDue            decimal.Decimal `json:"principal_due"`
	InterestDue             decimal.Decimal `json:"interest_due"`
	FeesDue                 decimal.Decimal `json:"fees_due"`
	InsuranceDue            decimal.Decimal `json:"insurance_due"`
	TotalDue                decimal.Decimal `json:"total_due"`
	RemainingPrincipalAfter decimal.Decimal `json:"remaining_principal_after"`
	AnnualRate              decimal.Decimal `json:"annual_rate"`
}

// InstallmentResponse is a schedule line with what was paid against it.
type InstallmentResponse struct {
	ScheduleLineResponse
	PaidTotal   decimal.Decimal `json:"paid_total"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Settled     bool            `json:"settled"`
}

// ScheduleResponse is the external representation of a schedule.
type ScheduleResponse struct {
	LoanID            string                 `json:"loan_id"`
	Installment       decimal.Decimal        `json:"installment"`
	InstallmentPolicy string                 `json:"installment_policy"`
	TotalPrincipal    decimal.Decimal        `json:"total_principal"`
	TotalInterest     decimal.Decimal        `json:"total_interest"`
	Lines             []ScheduleLineResponse `json:"lines"`
}

// LoanResponse is the external representation of a loan.
type LoanResponse struct {
	ID                 string                `json:"id"`
	OwnerID            string                `json:"owner_id"`
	Currency           string                `json:"currency"`
	OriginalPrincipal  decimal.Decimal       `json:"original_principal"`
	RemainingPrincipal decimal.Decimal       `json:"remaining_principal"`
	Credit             decimal.Decimal       `json:"credit"`
	Status             string                `json:"status"`
	Mode               string                `json:"mode"`
	Frequency          string                `json:"frequency"`
	RateType           string                `json:"rate_type"`
	AnnualRate         decimal.Decimal       `json:"annual_rate"`
	TotalPeriods       int                   `json:"total_periods"`
	Installment        decimal.Decimal       `json:"installment"`
	InstallmentPolicy  string                `json:"installment_policy"`
	NextDueDate        civil.Date            `json:"next_due_date"`
	NextDueAmount      decimal.Decimal       `json:"next_due_amount"`
	PredecessorID      string                `json:"predecessor_id,omitempty"`
	SuccessorID        string                `json:"successor_id,omitempty"`
	Version            int                   `json:"version"`
	Installments       []InstallmentResponse `json:"installments,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// PaymentResponse is the external representation of a payment result.
type PaymentResponse struct {
	LoanID             string          `json:"loan_id"`
	FeesPaid           decimal.Decimal `json:"fees_paid"`
	InterestPaid       decimal.Decimal `json:"interest_paid"`
	InsurancePaid      decimal.Decimal `json:"insurance_paid"`
	PrincipalPaid      decimal.Decimal `json:"principal_paid"`
	Credited           decimal.Decimal `json:"credited"`
	RemainingPrincipal decimal.Decimal `json:"remaining_principal"`
	Credit             decimal.Decimal `json:"credit"`
	LoanStatus         string          `json:"loan_status"`
	NextDueDate        civil.Date      `json:"next_due_date"`
	NextDueAmount      decimal.Decimal `json:"next_due_amount"`
}

// PrepaymentResponse is the outcome of a prepayment scenario.
type PrepaymentResponse struct {
	LoanID                string                 `json:"loan_id"`
	Mode                  string                 `json:"mode"`
	PrincipalApplied      decimal.Decimal        `json:"principal_applied"`
	Penalty               decimal.Decimal        `json:"penalty"`
	NewDuration           int                    `json:"new_duration"`
	NewInstallment        decimal.Decimal        `json:"new_installment"`
	InterestSaved         decimal.Decimal        `json:"interest_saved"`
	NewRemainingPrincipal decimal.Decimal        `json:"new_remaining_principal"`
	Schedule              []ScheduleLineResponse `json:"schedule"`
	Applied               bool                   `json:"applied"`
	LoanStatus            string                 `json:"loan_status,omitempty"`
}

// RestructureResponse returns the closed loan and its successor.
type RestructureResponse struct {
	ClosedLoan LoanResponse `json:"closed_loan"`
	NewLoan    LoanResponse `json:"new_loan"`
}

// LoanListResponse wraps the loans of one owner.
type LoanListResponse struct {
	Loans []LoanResponse `json:"loans"`
}

// MarkOverdueResponse summarises an overdue sweep.
type MarkOverdueResponse struct {
	Checked    int `json:"checked"`
	MarkedLate int `json:"marked_late"`
	Failed     int `json:"failed"`
}
