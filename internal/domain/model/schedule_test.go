package model_test

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/debt-service/internal/domain/model"
	"github.com/bibbank/debt-service/internal/domain/valueobject"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(y int, m int, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func mortgageTerms() model.LoanTerms {
	return model.LoanTerms{
		Principal:    dec("10000000"),
		AnnualRate:   dec("0.055"),
		RateType:     valueobject.RateTypeFixed,
		Mode:         valueobject.ModeAnnuity,
		Frequency:    valueobject.FrequencyMonthly,
		TotalPeriods: 240,
		StartDate:    date(2024, 1, 15),
	}
}

// assertScheduleInvariants checks the properties every schedule must hold.
func assertScheduleInvariants(t *testing.T, terms model.LoanTerms, sched model.Schedule) {
	t.Helper()

	require.Len(t, sched.Lines, terms.TotalPeriods)
	assert.True(t, sched.TotalPrincipal().Equal(terms.Principal.Round(2)),
		"principal sum %s != %s", sched.TotalPrincipal(), terms.Principal)

	prev := terms.Principal.Round(2)
	for i, line := range sched.Lines {
		assert.Equal(t, i+1, line.PeriodIndex)
		assert.False(t, line.PrincipalDue.IsNegative(), "period %d principal negative", line.PeriodIndex)
		assert.False(t, line.RemainingPrincipalAfter.GreaterThan(prev),
			"period %d remaining increased", line.PeriodIndex)
		assert.True(t, line.RemainingPrincipalAfter.Equal(prev.Sub(line.PrincipalDue)),
			"period %d remaining does not follow principal", line.PeriodIndex)
		total := line.PrincipalDue.Add(line.InterestDue).Add(line.FeesDue).Add(line.InsuranceDue)
		assert.True(t, line.TotalDue.Equal(total), "period %d total mismatch", line.PeriodIndex)
		if line.PeriodIndex <= terms.GracePeriods && terms.GracePeriods < terms.TotalPeriods {
			assert.True(t, line.PrincipalDue.IsZero(), "grace period %d amortized principal", line.PeriodIndex)
		}
		prev = line.RemainingPrincipalAfter
	}
	assert.True(t, sched.Lines[len(sched.Lines)-1].RemainingPrincipalAfter.IsZero())
}

func TestBuildSchedule_MortgageExample(t *testing.T) {
	terms := mortgageTerms()

	sched, err := model.BuildSchedule(terms)
	require.NoError(t, err)

	assertScheduleInvariants(t, terms, sched)
	first := sched.Lines[0]
	assert.True(t, first.InterestDue.Equal(dec("45833.33")), "got %s", first.InterestDue)
	assert.Equal(t, date(2024, 2, 15), first.DueDate)
	assert.Equal(t, date(2044, 1, 15), sched.Lines[239].DueDate)
	assert.True(t, sched.Installment.Equal(dec("68788.73")), "got %s", sched.Installment)
	assert.True(t, first.TotalDue.Equal(sched.Installment))
	assert.Equal(t, valueobject.InstallmentFixed, sched.Policy)
}

func TestBuildSchedule_Invariants(t *testing.T) {
	base := model.LoanTerms{
		Principal:         dec("25000"),
		AnnualRate:        dec("0.0725"),
		RateType:          valueobject.RateTypeFixed,
		Frequency:         valueobject.FrequencyMonthly,
		TotalPeriods:      36,
		GracePeriods:      3,
		StartDate:         date(2025, 3, 31),
		UpfrontFees:       dec("150"),
		PeriodicInsurance: dec("12.5"),
	}
	revisions := []model.RateRevision{
		{EffectiveDate: date(2026, 1, 1), AnnualRate: dec("0.09")},
		{EffectiveDate: date(2025, 9, 1), AnnualRate: dec("0.08")},
	}

	tests := []struct {
		name   string
		modify func(*model.LoanTerms)
	}{
		{"annuity", func(tr *model.LoanTerms) { tr.Mode = valueobject.ModeAnnuity }},
		{"constant principal", func(tr *model.LoanTerms) { tr.Mode = valueobject.ModeConstantPrincipal }},
		{"interest only with lump", func(tr *model.LoanTerms) {
			tr.Mode = valueobject.ModeInterestOnly
			tr.BalloonFraction = dec("0.4")
		}},
		{"interest only bullet", func(tr *model.LoanTerms) { tr.Mode = valueobject.ModeInterestOnly }},
		{"balloon", func(tr *model.LoanTerms) {
			tr.Mode = valueobject.ModeBalloon
			tr.BalloonFraction = dec("0.3")
		}},
		{"full balloon", func(tr *model.LoanTerms) {
			tr.Mode = valueobject.ModeBalloon
			tr.BalloonFraction = dec("1")
		}},
		{"variable recalculated", func(tr *model.LoanTerms) {
			tr.Mode = valueobject.ModeAnnuity
			tr.RateType = valueobject.RateTypeVariable
			tr.RateRevisions = revisions
			tr.RecalcOnRateChange = true
		}},
		{"variable frozen", func(tr *model.LoanTerms) {
			tr.Mode = valueobject.ModeAnnuity
			tr.RateType = valueobject.RateTypeVariable
			tr.RateRevisions = revisions
		}},
		{"weekly annuity", func(tr *model.LoanTerms) {
			tr.Mode = valueobject.ModeAnnuity
			tr.Frequency = valueobject.FrequencyWeekly
			tr.TotalPeriods = 104
		}},
		{"yearly no grace", func(tr *model.LoanTerms) {
			tr.Mode = valueobject.ModeAnnuity
			tr.Frequency = valueobject.FrequencyYearly
			tr.TotalPeriods = 5
			tr.GracePeriods = 0
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			terms := base
			tc.modify(&terms)

			sched, err := model.BuildSchedule(terms)
			require.NoError(t, err)
			assertScheduleInvariants(t, terms, sched)

			assert.True(t, sched.Lines[0].FeesDue.Equal(dec("150")))
			for _, line := range sched.Lines[1:] {
				assert.True(t, line.FeesDue.IsZero())
				assert.True(t, line.InsuranceDue.Equal(dec("12.5")))
			}
		})
	}
}

func TestBuildSchedule_Deterministic(t *testing.T) {
	first, err := model.BuildSchedule(mortgageTerms())
	require.NoError(t, err)
	second, err := model.BuildSchedule(mortgageTerms())
	require.NoError(t, err)

	require.Len(t, second.Lines, len(first.Lines))
	for i := range first.Lines {
		assert.True(t, first.Lines[i].TotalDue.Equal(second.Lines[i].TotalDue))
		assert.True(t, first.Lines[i].RemainingPrincipalAfter.Equal(second.Lines[i].RemainingPrincipalAfter))
	}
}

func TestBuildSchedule_ZeroRateAnnuity(t *testing.T) {
	terms := model.LoanTerms{
		Principal:    dec("12000"),
		AnnualRate:   decimal.Zero,
		RateType:     valueobject.RateTypeFixed,
		Mode:         valueobject.ModeAnnuity,
		Frequency:    valueobject.FrequencyMonthly,
		TotalPeriods: 14,
		GracePeriods: 2,
		StartDate:    date(2025, 1, 1),
	}

	sched, err := model.BuildSchedule(terms)
	require.NoError(t, err)

	assert.True(t, sched.Installment.Equal(dec("1000")))
	for _, line := range sched.Lines {
		assert.True(t, line.InterestDue.IsZero())
		if line.PeriodIndex <= 2 {
			assert.True(t, line.PrincipalDue.IsZero())
			continue
		}
		assert.True(t, line.PrincipalDue.Equal(dec("1000")), "period %d: %s", line.PeriodIndex, line.PrincipalDue)
	}
}

func TestBuildSchedule_Modes(t *testing.T) {
	terms := model.LoanTerms{
		Principal:    dec("1200"),
		AnnualRate:   decimal.Zero,
		RateType:     valueobject.RateTypeFixed,
		Frequency:    valueobject.FrequencyMonthly,
		TotalPeriods: 12,
		StartDate:    date(2025, 1, 1),
	}

	t.Run("constant principal", func(t *testing.T) {
		tr := terms
		tr.Mode = valueobject.ModeConstantPrincipal
		sched, err := model.BuildSchedule(tr)
		require.NoError(t, err)
		for _, line := range sched.Lines {
			assert.True(t, line.PrincipalDue.Equal(dec("100")))
		}
		assert.True(t, sched.Installment.IsZero())
		assert.Equal(t, valueobject.InstallmentNone, sched.Policy)
	})

	t.Run("balloon keeps fraction for final period", func(t *testing.T) {
		tr := terms
		tr.Mode = valueobject.ModeBalloon
		tr.BalloonFraction = dec("0.5")
		sched, err := model.BuildSchedule(tr)
		require.NoError(t, err)
		for _, line := range sched.Lines[:11] {
			assert.True(t, line.PrincipalDue.Equal(dec("50")), "period %d: %s", line.PeriodIndex, line.PrincipalDue)
		}
		assert.True(t, sched.Lines[11].PrincipalDue.Equal(dec("650")))
	})

	t.Run("interest only bullet", func(t *testing.T) {
		tr := terms
		tr.Mode = valueobject.ModeInterestOnly
		sched, err := model.BuildSchedule(tr)
		require.NoError(t, err)
		for _, line := range sched.Lines[:11] {
			assert.True(t, line.PrincipalDue.IsZero())
		}
		assert.True(t, sched.Lines[11].PrincipalDue.Equal(dec("1200")))
	})

	t.Run("interest only with lump before maturity", func(t *testing.T) {
		tr := terms
		tr.Mode = valueobject.ModeInterestOnly
		tr.BalloonFraction = dec("0.25")
		sched, err := model.BuildSchedule(tr)
		require.NoError(t, err)
		assert.True(t, sched.Lines[9].PrincipalDue.IsZero())
		assert.True(t, sched.Lines[10].PrincipalDue.Equal(dec("900")))
		assert.True(t, sched.Lines[11].PrincipalDue.Equal(dec("300")))
	})

	t.Run("grace covering every period repays at maturity", func(t *testing.T) {
		tr := terms
		tr.Mode = valueobject.ModeAnnuity
		tr.GracePeriods = 12
		sched, err := model.BuildSchedule(tr)
		require.NoError(t, err)
		assert.True(t, sched.Lines[10].PrincipalDue.IsZero())
		assert.True(t, sched.Lines[11].PrincipalDue.Equal(dec("1200")))
	})
}

func TestBuildSchedule_MonthEndDueDates(t *testing.T) {
	terms := mortgageTerms()
	terms.StartDate = date(2024, 1, 31)
	terms.TotalPeriods = 4

	sched, err := model.BuildSchedule(terms)
	require.NoError(t, err)

	assert.Equal(t, date(2024, 2, 29), sched.Lines[0].DueDate)
	assert.Equal(t, date(2024, 3, 31), sched.Lines[1].DueDate)
	assert.Equal(t, date(2024, 4, 30), sched.Lines[2].DueDate)
	assert.Equal(t, date(2024, 5, 31), sched.Lines[3].DueDate)

	// A remainder built with an offset stays on the same anchor.
	terms.PeriodOffset = 1
	terms.TotalPeriods = 3
	rest, err := model.BuildSchedule(terms)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 3, 31), rest.Lines[0].DueDate)
	assert.Equal(t, date(2024, 5, 31), rest.Lines[2].DueDate)
}

func TestBuildSchedule_WeeklyInterest(t *testing.T) {
	terms := model.LoanTerms{
		Principal:    dec("5200"),
		AnnualRate:   dec("0.052"),
		RateType:     valueobject.RateTypeFixed,
		Mode:         valueobject.ModeConstantPrincipal,
		Frequency:    valueobject.FrequencyWeekly,
		TotalPeriods: 52,
		StartDate:    date(2025, 6, 2),
	}

	sched, err := model.BuildSchedule(terms)
	require.NoError(t, err)

	assert.True(t, sched.Lines[0].InterestDue.Equal(dec("5.2")))
	assert.Equal(t, date(2025, 6, 9), sched.Lines[0].DueDate)
	assert.Equal(t, date(2025, 6, 16), sched.Lines[1].DueDate)
}

func TestBuildSchedule_InstallmentIncludesInsurance(t *testing.T) {
	terms := mortgageTerms()
	terms.UpfrontFees = dec("500")
	terms.PeriodicInsurance = dec("25")

	sched, err := model.BuildSchedule(terms)
	require.NoError(t, err)

	assert.True(t, sched.Installment.Equal(dec("68813.73")), "got %s", sched.Installment)
	assert.True(t, sched.Lines[0].TotalDue.Equal(sched.Installment.Add(dec("500"))))
	assert.True(t, sched.Lines[1].TotalDue.Equal(sched.Installment))
}

func TestBuildSchedule_VariableRate(t *testing.T) {
	terms := mortgageTerms()
	terms.RateType = valueobject.RateTypeVariable
	terms.RateRevisions = []model.RateRevision{
		{EffectiveDate: date(2025, 1, 15), AnnualRate: dec("0.08")},
	}

	t.Run("recalculated", func(t *testing.T) {
		tr := terms
		tr.RecalcOnRateChange = true
		sched, err := model.BuildSchedule(tr)
		require.NoError(t, err)

		assert.Equal(t, valueobject.InstallmentRecalculated, sched.Policy)
		assert.True(t, sched.Lines[11].AnnualRate.Equal(dec("0.08")), "revision applies on its effective date")
		assert.True(t, sched.Lines[10].AnnualRate.Equal(dec("0.055")))
		assert.True(t, sched.Lines[12].TotalDue.GreaterThan(sched.Lines[10].TotalDue))
		assertScheduleInvariants(t, tr, sched)
	})

	t.Run("frozen", func(t *testing.T) {
		sched, err := model.BuildSchedule(terms)
		require.NoError(t, err)

		assert.Equal(t, valueobject.InstallmentFrozenOnRateChange, sched.Policy)
		assert.True(t, sched.Lines[12].TotalDue.Equal(sched.Installment))
		assert.True(t, sched.Lines[12].PrincipalDue.LessThan(sched.Lines[10].PrincipalDue))
		assertScheduleInvariants(t, terms, sched)
	})

	t.Run("fixed ignores revisions", func(t *testing.T) {
		tr := terms
		tr.RateType = valueobject.RateTypeFixed
		sched, err := model.BuildSchedule(tr)
		require.NoError(t, err)
		assert.True(t, sched.Lines[100].AnnualRate.Equal(dec("0.055")))
	})
}

func TestBuildSchedule_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*model.LoanTerms)
		want   error
	}{
		{"zero periods", func(tr *model.LoanTerms) { tr.TotalPeriods = 0 }, model.ErrInvalidTerm},
		{"grace beyond term", func(tr *model.LoanTerms) { tr.GracePeriods = 241 }, model.ErrInvalidTerm},
		{"negative grace", func(tr *model.LoanTerms) { tr.GracePeriods = -1 }, model.ErrInvalidTerm},
		{"zero principal", func(tr *model.LoanTerms) { tr.Principal = decimal.Zero }, model.ErrInvalidTerm},
		{"negative rate", func(tr *model.LoanTerms) { tr.AnnualRate = dec("-0.01") }, model.ErrInvalidTerm},
		{"balloon above one", func(tr *model.LoanTerms) { tr.BalloonFraction = dec("1.1") }, model.ErrInvalidTerm},
		{"negative fees", func(tr *model.LoanTerms) { tr.UpfrontFees = dec("-1") }, model.ErrInvalidTerm},
		{"invalid start", func(tr *model.LoanTerms) { tr.StartDate = civil.Date{} }, model.ErrInvalidTerm},
		{"negative period offset", func(tr *model.LoanTerms) { tr.PeriodOffset = -1 }, model.ErrInvalidTerm},
		{"negative revision", func(tr *model.LoanTerms) {
			tr.RateRevisions = []model.RateRevision{{EffectiveDate: date(2025, 1, 1), AnnualRate: dec("-0.02")}}
		}, model.ErrInvalidTerm},
		{"frequency", func(tr *model.LoanTerms) { tr.Frequency = valueobject.Frequency{} }, model.ErrUnsupportedFrequency},
		{"mode", func(tr *model.LoanTerms) { tr.Mode = valueobject.AmortizationMode{} }, model.ErrUnsupportedMode},
		{"rate type", func(tr *model.LoanTerms) { tr.RateType = valueobject.RateType{} }, model.ErrUnsupportedRateType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			terms := mortgageTerms()
			tc.modify(&terms)
			_, err := model.BuildSchedule(terms)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAnnuityPayment(t *testing.T) {
	assert.True(t, model.AnnuityPayment(dec("1000"), decimal.Zero, 4).Equal(dec("250")))
	assert.True(t, model.AnnuityPayment(dec("1000"), dec("0.01"), 0).Equal(dec("1000")))
	assert.True(t, model.AnnuityPayment(dec("10000"), dec("0.01"), 12).Equal(dec("888.49")))
}
