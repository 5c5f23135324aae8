package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/bibbank/debt-service/internal/application/dto"
	"github.com/bibbank/debt-service/internal/domain/port"
)

// BuildScheduleUseCase regenerates the schedule of a loan that has no
// payments yet.
type BuildScheduleUseCase struct {
	loanRepo  port.LoanRepository
	publisher port.EventPublisher
	metrics   port.Metrics
}

// NewBuildScheduleUseCase wires dependencies.
func NewBuildScheduleUseCase(
	loanRepo port.LoanRepository,
	publisher port.EventPublisher,
	metrics port.Metrics,
) *BuildScheduleUseCase {
	return &BuildScheduleUseCase{
		loanRepo:  loanRepo,
		publisher: publisher,
		metrics:   metrics,
	}
}

// Execute rebuilds, stores and returns the schedule.
func (uc *BuildScheduleUseCase) Execute(
	ctx context.Context,
	req dto.BuildScheduleRequest,
) (dto.ScheduleResponse, error) {
	now := time.Now().UTC()

	loan, err := uc.loanRepo.FindByID(ctx, req.OwnerID, req.LoanID)
	if err != nil {
		return dto.ScheduleResponse{}, fmt.Errorf("find loan: %w", err)
	}

	loan, err = loan.RebuildSchedule(now)
	if err != nil {
		return dto.ScheduleResponse{}, fmt.Errorf("rebuild schedule: %w", err)
	}

	if err := uc.loanRepo.Save(ctx, loan); err != nil {
		return dto.ScheduleResponse{}, fmt.Errorf("save loan: %w", err)
	}
	if err := uc.publisher.Publish(ctx, loan.DomainEvents()...); err != nil {
		return dto.ScheduleResponse{}, fmt.Errorf("publish events: %w", err)
	}

	installments := loan.Installments()
	uc.metrics.ScheduleBuilt(ctx, loan.Terms().Mode.String(), len(installments))

	resp := dto.ScheduleResponse{
		LoanID:            loan.ID(),
		Installment:       loan.Installment(),
		InstallmentPolicy: loan.InstallmentPolicy().String(),
		Lines:             make([]dto.ScheduleLineResponse, 0, len(installments)),
	}
	for _, inst := range installments {
		resp.Lines = append(resp.Lines, toLineResponse(inst.ScheduleLine))
		resp.TotalPrincipal = resp.TotalPrincipal.Add(inst.PrincipalDue)
		resp.TotalInterest = resp.TotalInterest.Add(inst.InterestDue)
	}
	return resp, nil
}
