package service

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bibbank/debt-service/internal/domain/model"
	"github.com/bibbank/debt-service/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// PrepaymentPlanner – domain service for early repayment scenarios
// ---------------------------------------------------------------------------

// PrepaymentPlanner computes the effect of an extra principal payment on the
// unpaid part of a loan. It never changes the loan; Loan.ApplyPrepayment
// commits a plan.
type PrepaymentPlanner struct{}

// NewPrepaymentPlanner returns a new planner instance.
func NewPrepaymentPlanner() *PrepaymentPlanner {
	return &PrepaymentPlanner{}
}

// Plan rebuilds the remaining schedule after amount is taken off the
// principal.
//
// RE_AMORTIZE keeps the number of periods left and lowers the installment.
// SHORTEN_TERM keeps the installment at or below its current level and finds
// the fewest periods that repay the reduced principal. Paying the whole
// remaining principal produces an empty schedule.
func (p *PrepaymentPlanner) Plan(
	basis model.PrepaymentBasis,
	amount decimal.Decimal,
	mode valueobject.PrepaymentMode,
) (model.PrepaymentPlan, error) {
	if mode.IsZero() {
		return model.PrepaymentPlan{}, model.ErrUnsupportedPrepayment
	}
	if !amount.IsPositive() {
		return model.PrepaymentPlan{}, model.ErrInvalidPrepaymentAmount
	}
	amount = amount.Round(2)
	if amount.GreaterThan(basis.RemainingPrincipal) {
		return model.PrepaymentPlan{}, fmt.Errorf("%w: %s > %s",
			model.ErrAmountExceedsPrincipal, amount, basis.RemainingPrincipal)
	}

	plan := model.PrepaymentPlan{
		LoanID:                basis.LoanID,
		Mode:                  mode,
		AsOf:                  basis.AsOf,
		PrincipalApplied:      amount,
		Penalty:               amount.Mul(basis.Terms.PrepaymentPenaltyRate).Round(2),
		NewRemainingPrincipal: basis.RemainingPrincipal.Sub(amount),
		ElapsedPeriods:        basis.ElapsedPeriods,
		BasePrincipal:         basis.RemainingPrincipal,
	}
	oldInterest := basis.RemainingInterest()

	if !plan.NewRemainingPrincipal.IsPositive() {
		plan.NewRemainingPrincipal = decimal.Zero
		plan.NewTerms = basis.Terms
		plan.InterestSaved = oldInterest
		return plan, nil
	}

	periodsLeft := len(basis.RemainingLines)
	grace := basis.GraceLeft
	if grace > periodsLeft {
		grace = periodsLeft
	}

	terms := basis.Terms
	terms.Principal = plan.NewRemainingPrincipal
	terms.AnnualRate = basis.Terms.RateAt(basis.AsOf)
	terms.RateRevisions = futureRevisions(basis.Terms.RateRevisions, basis)
	terms.PeriodOffset = basis.PeriodOffset
	terms.GracePeriods = grace
	terms.TotalPeriods = periodsLeft
	terms.UpfrontFees = decimal.Zero

	if mode.Equal(valueobject.PrepaymentShortenTerm) {
		n, err := p.shortestTerm(terms, basis)
		if err != nil {
			return model.PrepaymentPlan{}, err
		}
		terms.TotalPeriods = n + grace
	}

	sched, err := model.BuildSchedule(terms)
	if err != nil {
		return model.PrepaymentPlan{}, fmt.Errorf("rebuild schedule: %w", err)
	}

	plan.NewTerms = terms
	plan.NewSchedule = sched
	plan.NewDuration = terms.TotalPeriods
	plan.NewInstallment = installmentOf(sched, grace)
	plan.InterestSaved = oldInterest.Sub(sched.TotalInterest())
	return plan, nil
}

// shortestTerm bisects for the smallest number of amortizing periods whose
// first principal+interest payment does not exceed the current one.
func (p *PrepaymentPlanner) shortestTerm(terms model.LoanTerms, basis model.PrepaymentBasis) (int, error) {
	if terms.Mode.Equal(valueobject.ModeInterestOnly) {
		return 0, fmt.Errorf("%w: SHORTEN_TERM needs an amortizing schedule", model.ErrUnsupportedPrepayment)
	}
	maxN := terms.TotalPeriods - terms.GracePeriods
	if maxN <= 0 {
		return 0, model.ErrNoConvergence
	}
	current := basis.RemainingLines[terms.GracePeriods]
	target := current.PrincipalDue.Add(current.InterestDue)

	payment := func(n int) (decimal.Decimal, error) {
		trial := terms
		trial.TotalPeriods = n + terms.GracePeriods
		sched, err := model.BuildSchedule(trial)
		if err != nil {
			return decimal.Zero, err
		}
		line := sched.Lines[terms.GracePeriods]
		return line.PrincipalDue.Add(line.InterestDue), nil
	}

	last, err := payment(maxN)
	if err != nil {
		return 0, err
	}
	if last.GreaterThan(target) {
		return 0, model.ErrNoConvergence
	}

	var searchErr error
	n := sort.Search(maxN, func(i int) bool {
		if searchErr != nil {
			return true
		}
		pay, err := payment(i + 1)
		if err != nil {
			searchErr = err
			return true
		}
		return !pay.GreaterThan(target)
	})
	if searchErr != nil {
		return 0, searchErr
	}
	return n + 1, nil
}

// installmentOf returns the recurring payment of a rebuilt schedule: the
// constant installment for ANNUITY, otherwise the first amortizing line.
func installmentOf(sched model.Schedule, grace int) decimal.Decimal {
	if !sched.Policy.Equal(valueobject.InstallmentNone) {
		return sched.Installment
	}
	if grace < len(sched.Lines) {
		return sched.Lines[grace].TotalDue
	}
	return decimal.Zero
}

func futureRevisions(revs []model.RateRevision, basis model.PrepaymentBasis) []model.RateRevision {
	var out []model.RateRevision
	for _, rev := range revs {
		if rev.EffectiveDate.After(basis.AsOf) {
			out = append(out, rev)
		}
	}
	return out
}
