package usecase

import (
	"fmt"

	"github.com/bibbank/debt-service/internal/application/dto"
	"github.com/bibbank/debt-service/internal/domain/model"
	"github.com/bibbank/debt-service/internal/domain/valueobject"
)

// toTerms converts request terms into domain terms. An empty rate type
// defaults to FIXED.
func toTerms(req dto.LoanTermsRequest) (model.LoanTerms, error) {
	rateType := valueobject.RateTypeFixed
	if req.RateType != "" {
		rt, err := valueobject.NewRateType(req.RateType)
		if err != nil {
			return model.LoanTerms{}, fmt.Errorf("%w: %v", model.ErrUnsupportedRateType, err)
		}
		rateType = rt
	}
	mode, err := valueobject.NewAmortizationMode(req.Mode)
	if err != nil {
		return model.LoanTerms{}, fmt.Errorf("%w: %v", model.ErrUnsupportedMode, err)
	}
	freq, err := valueobject.NewFrequency(req.Frequency)
	if err != nil {
		return model.LoanTerms{}, fmt.Errorf("%w: %v", model.ErrUnsupportedFrequency, err)
	}

	revisions := make([]model.RateRevision, 0, len(req.RateRevisions))
	for _, r := range req.RateRevisions {
		revisions = append(revisions, model.RateRevision{
			EffectiveDate: r.EffectiveDate,
			AnnualRate:    r.AnnualRate,
		})
	}

	return model.LoanTerms{
		Principal:             req.Principal,
		AnnualRate:            req.AnnualRate,
		RateType:              rateType,
		RateRevisions:         revisions,
		Mode:                  mode,
		Frequency:             freq,
		TotalPeriods:          req.TotalPeriods,
		GracePeriods:          req.GracePeriods,
		StartDate:             req.StartDate,
		UpfrontFees:           req.UpfrontFees,
		PeriodicInsurance:     req.PeriodicInsurance,
		BalloonFraction:       req.BalloonFraction,
		PrepaymentPenaltyRate: req.PrepaymentPenaltyRate,
		RecalcOnRateChange:    req.RecalcOnRateChange,
	}, nil
}

func toLoanResponse(loan model.Loan, withInstallments bool) dto.LoanResponse {
	terms := loan.Terms()
	resp := dto.LoanResponse{
		ID:                 loan.ID(),
		OwnerID:            loan.OwnerID(),
		Currency:           loan.Currency().Code(),
		OriginalPrincipal:  loan.OriginalPrincipal(),
		RemainingPrincipal: loan.RemainingPrincipal(),
		Credit:             loan.Credit(),
		Status:             loan.Status().String(),
		Mode:               terms.Mode.String(),
		Frequency:          terms.Frequency.String(),
		RateType:           terms.RateType.String(),
		AnnualRate:         terms.AnnualRate,
		TotalPeriods:       len(loan.Installments()),
		Installment:        loan.Installment(),
		InstallmentPolicy:  loan.InstallmentPolicy().String(),
		NextDueDate:        loan.NextDueDate(),
		NextDueAmount:      loan.NextDueAmount(),
		PredecessorID:      loan.PredecessorID(),
		SuccessorID:        loan.SuccessorID(),
		Version:            loan.Version(),
		CreatedAt:          loan.CreatedAt(),
		UpdatedAt:          loan.UpdatedAt(),
	}
	if withInstallments {
		for _, inst := range loan.Installments() {
			resp.Installments = append(resp.Installments, dto.InstallmentResponse{
				ScheduleLineResponse: toLineResponse(inst.ScheduleLine),
				PaidTotal:            inst.Paid.Total(),
				Outstanding:          inst.Outstanding().Total(),
				Settled:              inst.IsSettled(),
			})
		}
	}
	return resp
}

func toLineResponse(l model.ScheduleLine) dto.ScheduleLineResponse {
	return dto.ScheduleLineResponse{
		PeriodIndex:             l.PeriodIndex,
		DueDate:                 l.DueDate,
		PrincipalDue:            l.PrincipalDue,
		InterestDue:             l.InterestDue,
		FeesDue:                 l.FeesDue,
		InsuranceDue:            l.InsuranceDue,
		TotalDue:                l.TotalDue,
		RemainingPrincipalAfter: l.RemainingPrincipalAfter,
		AnnualRate:              l.AnnualRate,
	}
}

func toLineResponses(lines []model.ScheduleLine) []dto.ScheduleLineResponse {
	out := make([]dto.ScheduleLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, toLineResponse(l))
	}
	return out
}

func toPrepaymentResponse(plan model.PrepaymentPlan) dto.PrepaymentResponse {
	return dto.PrepaymentResponse{
		LoanID:                plan.LoanID,
		Mode:                  plan.Mode.String(),
		PrincipalApplied:      plan.PrincipalApplied,
		Penalty:               plan.Penalty,
		NewDuration:           plan.NewDuration,
		NewInstallment:        plan.NewInstallment,
		InterestSaved:         plan.InterestSaved,
		NewRemainingPrincipal: plan.NewRemainingPrincipal,
		Schedule:              toLineResponses(plan.NewSchedule.Lines),
	}
}
