package model

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/bibbank/debt-service/internal/domain/valueobject"
)

// PrepaymentBasis is the state of a loan a prepayment is planned against.
type PrepaymentBasis struct {
	LoanID             string
	AsOf               civil.Date
	Terms              LoanTerms
	RemainingLines     []ScheduleLine
	RemainingPrincipal decimal.Decimal
	// ElapsedPeriods counts the installments already settled.
	ElapsedPeriods int
	// GraceLeft is the number of interest-only periods still ahead.
	GraceLeft   int
	Installment decimal.Decimal

	// PeriodOffset is the offset of the first remaining line from
	// Terms.StartDate.
	PeriodOffset int
}

// RemainingInterest sums the interest of the lines still ahead.
func (b PrepaymentBasis) RemainingInterest() decimal.Decimal {
	total := decimal.Zero
	for _, l := range b.RemainingLines {
		total = total.Add(l.InterestDue)
	}
	return total
}

// PrepaymentPlan is the outcome of applying a prepayment to a basis. It is
// read-only until handed to Loan.ApplyPrepayment.
type PrepaymentPlan struct {
	LoanID                string
	Mode                  valueobject.PrepaymentMode
	AsOf                  civil.Date
	PrincipalApplied      decimal.Decimal
	Penalty               decimal.Decimal
	NewDuration           int
	NewInstallment        decimal.Decimal
	InterestSaved         decimal.Decimal
	NewRemainingPrincipal decimal.Decimal
	NewTerms              LoanTerms
	NewSchedule           Schedule
	ElapsedPeriods        int
	BasePrincipal         decimal.Decimal
}

// IsPayoff reports whether the plan clears the loan.
func (p PrepaymentPlan) IsPayoff() bool {
	return !p.NewRemainingPrincipal.IsPositive()
}
