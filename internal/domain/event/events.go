package event

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/bibbank/debt-service/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

const aggregateLoan = "Loan"

// Event type names published on the debt.loans topic.
const (
	TypeLoanOriginated    = "debt.loan.originated"
	TypeScheduleRebuilt   = "debt.loan.schedule_rebuilt"
	TypePaymentRecorded   = "debt.loan.payment_recorded"
	TypeLoanLate          = "debt.loan.late"
	TypeLoanCured         = "debt.loan.cured"
	TypeLoanSettled       = "debt.loan.settled"
	TypePrepaymentApplied = "debt.loan.prepayment_applied"
	TypeLoanRestructured  = "debt.loan.restructured"
)

// LoanOriginated is raised when a loan and its first schedule are created.
type LoanOriginated struct {
	events.BaseEvent
	Principal     decimal.Decimal `json:"principal"`
	Currency      string          `json:"currency"`
	Mode          string          `json:"mode"`
	TotalPeriods  int             `json:"total_periods"`
	NextDueDate   civil.Date      `json:"next_due_date"`
	NextDueAmount decimal.Decimal `json:"next_due_amount"`
	PredecessorID string          `json:"predecessor_id,omitempty"`
}

func NewLoanOriginated(
	loanID, ownerID string,
	principal decimal.Decimal, currency, mode string, totalPeriods int,
	nextDueDate civil.Date, nextDueAmount decimal.Decimal,
	predecessorID string,
) LoanOriginated {
	return LoanOriginated{
		BaseEvent:     events.NewBaseEvent(TypeLoanOriginated, loanID, aggregateLoan, ownerID),
		Principal:     principal,
		Currency:      currency,
		Mode:          mode,
		TotalPeriods:  totalPeriods,
		NextDueDate:   nextDueDate,
		NextDueAmount: nextDueAmount,
		PredecessorID: predecessorID,
	}
}

// ScheduleRebuilt is raised when the schedule of an untouched loan is regenerated.
type ScheduleRebuilt struct {
	events.BaseEvent
	TotalPeriods  int             `json:"total_periods"`
	NextDueDate   civil.Date      `json:"next_due_date"`
	NextDueAmount decimal.Decimal `json:"next_due_amount"`
}

func NewScheduleRebuilt(
	loanID, ownerID string, totalPeriods int,
	nextDueDate civil.Date, nextDueAmount decimal.Decimal,
) ScheduleRebuilt {
	return ScheduleRebuilt{
		BaseEvent:     events.NewBaseEvent(TypeScheduleRebuilt, loanID, aggregateLoan, ownerID),
		TotalPeriods:  totalPeriods,
		NextDueDate:   nextDueDate,
		NextDueAmount: nextDueAmount,
	}
}

// PaymentRecorded is raised for every payment applied to a loan.
type PaymentRecorded struct {
	events.BaseEvent
	PeriodIndex        int                 `json:"period_index"`
	PaidAt             civil.Date          `json:"paid_at"`
	Amount             decimal.Decimal     `json:"amount"`
	Currency           string              `json:"currency"`
	FXRate             decimal.NullDecimal `json:"fx_rate"`
	Method             string              `json:"method,omitempty"`
	SourceAccountID    string              `json:"source_account_id,omitempty"`
	FeesPaid           decimal.Decimal     `json:"fees_paid"`
	InterestPaid       decimal.Decimal     `json:"interest_paid"`
	InsurancePaid      decimal.Decimal     `json:"insurance_paid"`
	PrincipalPaid      decimal.Decimal     `json:"principal_paid"`
	Credit             decimal.Decimal     `json:"credit"`
	RemainingPrincipal decimal.Decimal     `json:"remaining_principal"`
}

// PaymentRecordedParams groups the fields of a PaymentRecorded event.
type PaymentRecordedParams struct {
	PeriodIndex        int
	PaidAt             civil.Date
	Amount             decimal.Decimal
	Currency           string
	FXRate             decimal.NullDecimal
	Method             string
	SourceAccountID    string
	FeesPaid           decimal.Decimal
	InterestPaid       decimal.Decimal
	InsurancePaid      decimal.Decimal
	PrincipalPaid      decimal.Decimal
	Credit             decimal.Decimal
	RemainingPrincipal decimal.Decimal
}

func NewPaymentRecorded(loanID, ownerID string, p PaymentRecordedParams) PaymentRecorded {
	return PaymentRecorded{
		BaseEvent:          events.NewBaseEvent(TypePaymentRecorded, loanID, aggregateLoan, ownerID),
		PeriodIndex:        p.PeriodIndex,
		PaidAt:             p.PaidAt,
		Amount:             p.Amount,
		Currency:           p.Currency,
		FXRate:             p.FXRate,
		Method:             p.Method,
		SourceAccountID:    p.SourceAccountID,
		FeesPaid:           p.FeesPaid,
		InterestPaid:       p.InterestPaid,
		InsurancePaid:      p.InsurancePaid,
		PrincipalPaid:      p.PrincipalPaid,
		Credit:             p.Credit,
		RemainingPrincipal: p.RemainingPrincipal,
	}
}

// LoanLate is raised when an installment passes its due date unpaid.
type LoanLate struct {
	events.BaseEvent
	AsOf    civil.Date      `json:"as_of"`
	Arrears decimal.Decimal `json:"arrears"`
}

func NewLoanLate(loanID, ownerID string, asOf civil.Date, arrears decimal.Decimal) LoanLate {
	return LoanLate{
		BaseEvent: events.NewBaseEvent(TypeLoanLate, loanID, aggregateLoan, ownerID),
		AsOf:      asOf,
		Arrears:   arrears,
	}
}

// LoanCured is raised when a late loan has its arrears cleared.
type LoanCured struct {
	events.BaseEvent
	CuredOn civil.Date `json:"cured_on"`
}

func NewLoanCured(loanID, ownerID string, curedOn civil.Date) LoanCured {
	return LoanCured{
		BaseEvent: events.NewBaseEvent(TypeLoanCured, loanID, aggregateLoan, ownerID),
		CuredOn:   curedOn,
	}
}

// LoanSettled is raised when principal and every due amount reach zero.
type LoanSettled struct {
	events.BaseEvent
	Credit decimal.Decimal `json:"credit"`
}

func NewLoanSettled(loanID, ownerID string, credit decimal.Decimal) LoanSettled {
	return LoanSettled{
		BaseEvent: events.NewBaseEvent(TypeLoanSettled, loanID, aggregateLoan, ownerID),
		Credit:    credit,
	}
}

// PrepaymentApplied is raised when a prepayment plan replaces the unpaid schedule.
type PrepaymentApplied struct {
	events.BaseEvent
	Mode               string          `json:"mode"`
	PrincipalApplied   decimal.Decimal `json:"principal_applied"`
	Penalty            decimal.Decimal `json:"penalty"`
	NewDuration        int             `json:"new_duration"`
	NewInstallment     decimal.Decimal `json:"new_installment"`
	InterestSaved      decimal.Decimal `json:"interest_saved"`
	RemainingPrincipal decimal.Decimal `json:"remaining_principal"`
}

func NewPrepaymentApplied(
	loanID, ownerID, mode string,
	principalApplied, penalty decimal.Decimal,
	newDuration int,
	newInstallment, interestSaved, remaining decimal.Decimal,
) PrepaymentApplied {
	return PrepaymentApplied{
		BaseEvent:          events.NewBaseEvent(TypePrepaymentApplied, loanID, aggregateLoan, ownerID),
		Mode:               mode,
		PrincipalApplied:   principalApplied,
		Penalty:            penalty,
		NewDuration:        newDuration,
		NewInstallment:     newInstallment,
		InterestSaved:      interestSaved,
		RemainingPrincipal: remaining,
	}
}

// LoanRestructured is raised on the closed loan when it is replaced by a successor.
type LoanRestructured struct {
	events.BaseEvent
	SuccessorID     string          `json:"successor_id"`
	FrozenPrincipal decimal.Decimal `json:"frozen_principal"`
}

func NewLoanRestructured(loanID, ownerID, successorID string, frozen decimal.Decimal) LoanRestructured {
	return LoanRestructured{
		BaseEvent:       events.NewBaseEvent(TypeLoanRestructured, loanID, aggregateLoan, ownerID),
		SuccessorID:     successorID,
		FrozenPrincipal: frozen,
	}
}
