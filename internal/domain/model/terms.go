package model

import (
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/bibbank/debt-service/internal/domain/valueobject"
)

// RateRevision replaces the annual rate of a variable-rate loan from
// EffectiveDate onwards.
type RateRevision struct {
	EffectiveDate civil.Date
	AnnualRate    decimal.Decimal
}

// LoanTerms are the contractual inputs of a schedule. Rates and fractions are
// expressed as decimals (0.055 for 5.5%).
type LoanTerms struct {
	Principal             decimal.Decimal
	AnnualRate            decimal.Decimal
	RateType              valueobject.RateType
	RateRevisions         []RateRevision
	Mode                  valueobject.AmortizationMode
	Frequency             valueobject.Frequency
	TotalPeriods          int
	GracePeriods          int
	StartDate             civil.Date
	UpfrontFees           decimal.Decimal
	PeriodicInsurance     decimal.Decimal
	BalloonFraction       decimal.Decimal
	PrepaymentPenaltyRate decimal.Decimal
	RecalcOnRateChange    bool

	// PeriodOffset counts the periods between StartDate and the first line.
	// A rebuilt remainder keeps the original StartDate so its due dates stay
	// on the same anchor day.
	PeriodOffset int
}

// Validate checks the terms and returns the first violation found.
func (t LoanTerms) Validate() error {
	if t.Frequency.PeriodsPerYear() == 0 {
		return fmt.Errorf("%w: %q", ErrUnsupportedFrequency, t.Frequency.String())
	}
	if t.Mode.IsZero() {
		return ErrUnsupportedMode
	}
	if t.RateType.IsZero() {
		return ErrUnsupportedRateType
	}
	if !t.Principal.IsPositive() {
		return fmt.Errorf("%w: principal must be positive", ErrInvalidTerm)
	}
	if t.AnnualRate.IsNegative() {
		return fmt.Errorf("%w: annual rate must not be negative", ErrInvalidTerm)
	}
	if t.TotalPeriods <= 0 {
		return fmt.Errorf("%w: total periods must be positive", ErrInvalidTerm)
	}
	if t.GracePeriods < 0 || t.GracePeriods > t.TotalPeriods {
		return fmt.Errorf("%w: grace periods must be between 0 and total periods", ErrInvalidTerm)
	}
	if t.BalloonFraction.IsNegative() || t.BalloonFraction.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: balloon fraction must be between 0 and 1", ErrInvalidTerm)
	}
	if t.UpfrontFees.IsNegative() {
		return fmt.Errorf("%w: upfront fees must not be negative", ErrInvalidTerm)
	}
	if t.PeriodicInsurance.IsNegative() {
		return fmt.Errorf("%w: periodic insurance must not be negative", ErrInvalidTerm)
	}
	if t.PrepaymentPenaltyRate.IsNegative() {
		return fmt.Errorf("%w: prepayment penalty rate must not be negative", ErrInvalidTerm)
	}
	if t.PeriodOffset < 0 {
		return fmt.Errorf("%w: period offset must not be negative", ErrInvalidTerm)
	}
	if !t.StartDate.IsValid() {
		return fmt.Errorf("%w: start date %q is not a valid date", ErrInvalidTerm, t.StartDate.String())
	}
	for _, rev := range t.RateRevisions {
		if !rev.EffectiveDate.IsValid() {
			return fmt.Errorf("%w: rate revision date %q is not a valid date", ErrInvalidTerm, rev.EffectiveDate.String())
		}
		if rev.AnnualRate.IsNegative() {
			return fmt.Errorf("%w: rate revision on %s must not be negative", ErrInvalidTerm, rev.EffectiveDate)
		}
	}
	return nil
}

// RateAt returns the annual rate in force on date. Fixed-rate loans ignore
// revisions; for variable loans the latest revision effective on or before
// date wins.
func (t LoanTerms) RateAt(date civil.Date) decimal.Decimal {
	rate := t.AnnualRate
	if !t.RateType.Equal(valueobject.RateTypeVariable) {
		return rate
	}
	for _, rev := range t.sortedRevisions() {
		if rev.EffectiveDate.After(date) {
			break
		}
		rate = rev.AnnualRate
	}
	return rate
}

// PeriodicRate converts an annual rate to the rate of one period.
func (t LoanTerms) PeriodicRate(annual decimal.Decimal) decimal.Decimal {
	return annual.Div(decimal.NewFromInt(int64(t.Frequency.PeriodsPerYear())))
}

// DueDate returns the due date of the given 1-based period.
func (t LoanTerms) DueDate(period int) civil.Date {
	return t.Frequency.DueDate(t.StartDate, t.PeriodOffset+period)
}

func (t LoanTerms) sortedRevisions() []RateRevision {
	out := make([]RateRevision, len(t.RateRevisions))
	copy(out, t.RateRevisions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveDate.Before(out[j].EffectiveDate)
	})
	return out
}

// installmentPolicy names how the builder treats the constant installment.
func (t LoanTerms) installmentPolicy() valueobject.InstallmentPolicy {
	switch {
	case !t.Mode.Equal(valueobject.ModeAnnuity):
		return valueobject.InstallmentNone
	case !t.RateType.Equal(valueobject.RateTypeVariable):
		return valueobject.InstallmentFixed
	case t.RecalcOnRateChange:
		return valueobject.InstallmentRecalculated
	default:
		return valueobject.InstallmentFrozenOnRateChange
	}
}
