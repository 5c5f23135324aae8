package postgres

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

func TestTermsCodec(t *testing.T) {
	terms := model.LoanTerms{
		Principal:  decimal.RequireFromString("250000"),
		AnnualRate: decimal.RequireFromString("0.041"),
		RateType:   valueobject.RateTypeVariable,
		RateRevisions: []model.RateRevision{
			{EffectiveDate: civil.Date{Year: 2026, Month: time.January, Day: 1}, AnnualRate: decimal.RequireFromString("0.045")},
		},
		Mode:                  valueobject.ModeBalloon,
		Frequency:             valueobject.FrequencyWeekly,
		TotalPeriods:          104,
		GracePeriods:          4,
		StartDate:             civil.Date{Year: 2025, Month: time.March, Day: 31},
		UpfrontFees:           decimal.RequireFromString("150"),
		PeriodicInsurance:     decimal.RequireFromString("4.5"),
		BalloonFraction:       decimal.RequireFromString("0.3"),
		PrepaymentPenaltyRate: decimal.RequireFromString("0.01"),
		RecalcOnRateChange:    true,
		PeriodOffset:          7,
	}

	raw, err := encodeTerms(terms)
	require.NoError(t, err)
	got, err := decodeTerms(raw)
	require.NoError(t, err)

	assert.True(t, got.Principal.Equal(terms.Principal))
	assert.True(t, got.RateType.Equal(valueobject.RateTypeVariable))
	assert.True(t, got.Mode.Equal(valueobject.ModeBalloon))
	assert.True(t, got.Frequency.Equal(valueobject.FrequencyWeekly))
	assert.Equal(t, terms.StartDate, got.StartDate)
	assert.Equal(t, 7, got.PeriodOffset)
	require.Len(t, got.RateRevisions, 1)
	assert.True(t, got.RateRevisions[0].AnnualRate.Equal(decimal.RequireFromString("0.045")))
	assert.Equal(t, 4, got.GracePeriods)
	assert.True(t, got.RecalcOnRateChange)
}

func TestDecodeTerms_RejectsUnknownEnums(t *testing.T) {
	_, err := decodeTerms([]byte(`{"rate_type":"FIXED","mode":"BULLET","frequency":"MONTHLY"}`))
	assert.Error(t, err)

	_, err = decodeTerms([]byte(`not json`))
	assert.Error(t, err)
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	require.NotNil(t, nullable("abc"))
	assert.Equal(t, "abc", *nullable("abc"))
}
