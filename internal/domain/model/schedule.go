package model

import (
	"math"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/bibbank/debt-service/internal/domain/valueobject"
)

// cent is the smallest amount a schedule carries.
var cent = decimal.New(1, -2)

// ScheduleLine is an immutable value object representing one period of a
// repayment schedule. All amounts are rounded to two decimals.
type ScheduleLine struct {
	PeriodIndex             int
	DueDate                 civil.Date
	PrincipalDue            decimal.Decimal
	InterestDue             decimal.Decimal
	FeesDue                 decimal.Decimal
	InsuranceDue            decimal.Decimal
	TotalDue                decimal.Decimal
	RemainingPrincipalAfter decimal.Decimal
	AnnualRate              decimal.Decimal
}

// Dues returns the amounts the line asks for, bucket by bucket.
func (l ScheduleLine) Dues() Dues {
	return Dues{
		Fees:      l.FeesDue,
		Interest:  l.InterestDue,
		Insurance: l.InsuranceDue,
		Principal: l.PrincipalDue,
	}
}

// Schedule is the ordered list of lines produced from a set of loan terms.
type Schedule struct {
	Lines []ScheduleLine
	// Installment is the constant principal+interest+insurance payment of an
	// ANNUITY schedule at origination. Zero for other modes.
	Installment decimal.Decimal
	Policy      valueobject.InstallmentPolicy
}

// TotalPrincipal sums the principal due over all lines.
func (s Schedule) TotalPrincipal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.PrincipalDue)
	}
	return total
}

// TotalInterest sums the interest due over all lines.
func (s Schedule) TotalInterest() decimal.Decimal {
	return s.InterestAfter(0)
}

// InterestAfter sums the interest of lines whose period index is greater than
// period.
func (s Schedule) InterestAfter(period int) decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		if l.PeriodIndex > period {
			total = total.Add(l.InterestDue)
		}
	}
	return total
}

// BuildSchedule computes the repayment schedule for the given terms.
//
// Interest accrues on the principal remaining at the start of each period at
// annualRate/periodsPerYear, with the rate resolved on the line's due date.
// Grace periods pay interest only. The final period always repays whatever
// principal is left, so the lines sum exactly to the principal.
func BuildSchedule(terms LoanTerms) (Schedule, error) {
	if err := terms.Validate(); err != nil {
		return Schedule{}, err
	}

	n := terms.TotalPeriods
	g := terms.GracePeriods
	remaining := terms.Principal.Round(2)
	insurance := terms.PeriodicInsurance.Round(2)
	policy := terms.installmentPolicy()
	isAnnuity := terms.Mode.Equal(valueobject.ModeAnnuity)

	// The amount kept back for the final period by BALLOON and INTEREST_ONLY.
	balloon := remaining.Mul(terms.BalloonFraction).Round(2)

	var annuity decimal.Decimal
	if isAnnuity && n > g {
		annuity = AnnuityPayment(remaining, terms.PeriodicRate(terms.AnnualRate), n-g)
	}
	sched := Schedule{Policy: policy}
	if isAnnuity {
		sched.Installment = annuity.Add(insurance)
	}

	lines := make([]ScheduleLine, 0, n)
	for k := 1; k <= n; k++ {
		due := terms.DueDate(k)
		annualRate := terms.RateAt(due)
		rate := terms.PeriodicRate(annualRate)
		interest := remaining.Mul(rate).Round(2)
		left := n - k + 1

		principal := decimal.Zero
		if k > g {
			switch terms.Mode {
			case valueobject.ModeAnnuity:
				if policy.Equal(valueobject.InstallmentRecalculated) {
					annuity = AnnuityPayment(remaining, rate, left)
				}
				principal = annuity.Sub(interest)
			case valueobject.ModeConstantPrincipal:
				principal = remaining.Div(decimal.NewFromInt(int64(left))).Round(2)
			case valueobject.ModeBalloon:
				amortizable := remaining.Sub(balloon)
				if amortizable.IsPositive() {
					principal = amortizable.Div(decimal.NewFromInt(int64(left))).Round(2)
				}
			case valueobject.ModeInterestOnly:
				if k == n-1 && terms.BalloonFraction.IsPositive() {
					principal = remaining.Mul(decimal.NewFromInt(1).Sub(terms.BalloonFraction)).Round(2)
				}
			}
		}
		if k == n {
			principal = remaining
		}
		principal = clampAmount(principal, remaining)

		after := remaining.Sub(principal)
		if after.IsPositive() && after.LessThan(cent) {
			principal = remaining
			after = decimal.Zero
		}

		fees := decimal.Zero
		if k == 1 {
			fees = terms.UpfrontFees.Round(2)
		}

		lines = append(lines, ScheduleLine{
			PeriodIndex:             k,
			DueDate:                 due,
			PrincipalDue:            principal,
			InterestDue:             interest,
			FeesDue:                 fees,
			InsuranceDue:            insurance,
			TotalDue:                principal.Add(interest).Add(fees).Add(insurance),
			RemainingPrincipalAfter: after,
			AnnualRate:              annualRate,
		})
		remaining = after
	}

	sched.Lines = lines
	return sched, nil
}

// AnnuityPayment returns the constant principal+interest payment that repays
// principal over periods at the given periodic rate, rounded to two decimals:
//
//	payment = P * r * (1+r)^n / ((1+r)^n - 1)
//
// A zero rate splits the principal evenly.
func AnnuityPayment(principal, periodicRate decimal.Decimal, periods int) decimal.Decimal {
	if periods <= 0 {
		return principal.Round(2)
	}
	if !periodicRate.IsPositive() {
		return principal.Div(decimal.NewFromInt(int64(periods))).Round(2)
	}

	// float64 for the power, decimal for the money.
	r := periodicRate.InexactFloat64()
	factor := math.Pow(1+r, float64(periods))
	payment := principal.InexactFloat64() * r * factor / (factor - 1)
	return decimal.NewFromFloat(payment).Round(2)
}

// clampAmount bounds v to [0, upper].
func clampAmount(v, upper decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	if v.GreaterThan(upper) {
		return upper
	}
	return v
}
