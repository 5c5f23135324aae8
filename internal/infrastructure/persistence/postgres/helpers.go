package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/bibbank/debt-service/internal/domain/model"
	"github.com/bibbank/debt-service/internal/domain/valueobject"
)

// pgDate converts a calendar date for a DATE column.
func pgDate(d civil.Date) time.Time {
	return d.In(time.UTC)
}

// nullable maps an empty identifier to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// termsRecord is the JSONB shape of model.LoanTerms.
type termsRecord struct {
	Principal             decimal.Decimal  `json:"principal"`
	AnnualRate            decimal.Decimal  `json:"annual_rate"`
	RateType              string           `json:"rate_type"`
	RateRevisions         []revisionRecord `json:"rate_revisions,omitempty"`
	Mode                  string           `json:"mode"`
	Frequency             string           `json:"frequency"`
	TotalPeriods          int              `json:"total_periods"`
	GracePeriods          int              `json:"grace_periods"`
	StartDate             civil.Date       `json:"start_date"`
	PeriodOffset          int              `json:"period_offset,omitempty"`
	UpfrontFees           decimal.Decimal  `json:"upfront_fees"`
	PeriodicInsurance     decimal.Decimal  `json:"periodic_insurance"`
	BalloonFraction       decimal.Decimal  `json:"balloon_fraction"`
	PrepaymentPenaltyRate decimal.Decimal  `json:"prepayment_penalty_rate"`
	RecalcOnRateChange    bool             `json:"recalc_on_rate_change"`
}

type revisionRecord struct {
	EffectiveDate civil.Date      `json:"effective_date"`
	AnnualRate    decimal.Decimal `json:"annual_rate"`
}

func encodeTerms(t model.LoanTerms) ([]byte, error) {
	rec := termsRecord{
		Principal:             t.Principal,
		AnnualRate:            t.AnnualRate,
		RateType:              t.RateType.String(),
		Mode:                  t.Mode.String(),
		Frequency:             t.Frequency.String(),
		TotalPeriods:          t.TotalPeriods,
		GracePeriods:          t.GracePeriods,
		StartDate:             t.StartDate,
		PeriodOffset:          t.PeriodOffset,
		UpfrontFees:           t.UpfrontFees,
		PeriodicInsurance:     t.PeriodicInsurance,
		BalloonFraction:       t.BalloonFraction,
		PrepaymentPenaltyRate: t.PrepaymentPenaltyRate,
		RecalcOnRateChange:    t.RecalcOnRateChange,
	}
	for _, r := range t.RateRevisions {
		rec.RateRevisions = append(rec.RateRevisions, revisionRecord(r))
	}
	return json.Marshal(rec)
}

func decodeTerms(raw []byte) (model.LoanTerms, error) {
	var rec termsRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.LoanTerms{}, fmt.Errorf("decode terms: %w", err)
	}
	rateType, err := valueobject.NewRateType(rec.RateType)
	if err != nil {
		return model.LoanTerms{}, err
	}
	mode, err := valueobject.NewAmortizationMode(rec.Mode)
	if err != nil {
		return model.LoanTerms{}, err
	}
	freq, err := valueobject.NewFrequency(rec.Frequency)
	if err != nil {
		return model.LoanTerms{}, err
	}

	terms := model.LoanTerms{
		Principal:             rec.Principal,
		AnnualRate:            rec.AnnualRate,
		RateType:              rateType,
		Mode:                  mode,
		Frequency:             freq,
		TotalPeriods:          rec.TotalPeriods,
		GracePeriods:          rec.GracePeriods,
		StartDate:             rec.StartDate,
		PeriodOffset:          rec.PeriodOffset,
		UpfrontFees:           rec.UpfrontFees,
		PeriodicInsurance:     rec.PeriodicInsurance,
		BalloonFraction:       rec.BalloonFraction,
		PrepaymentPenaltyRate: rec.PrepaymentPenaltyRate,
		RecalcOnRateChange:    rec.RecalcOnRateChange,
	}
	for _, r := range rec.RateRevisions {
		terms.RateRevisions = append(terms.RateRevisions, model.RateRevision(r))
	}
	return terms, nil
}
