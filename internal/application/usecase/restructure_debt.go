package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/bibbank/debt-service/internal/application/dto"
	"github.com/bibbank/debt-service/internal/domain/event"
	"github.com/bibbank/debt-service/internal/domain/port"
)

// RestructureDebtUseCase closes a loan and opens a successor under new terms.
type RestructureDebtUseCase struct {
	loanRepo  port.LoanRepository
	publisher port.EventPublisher
	metrics   port.Metrics
}

// NewRestructureDebtUseCase wires dependencies.
func NewRestructureDebtUseCase(
	loanRepo port.LoanRepository,
	publisher port.EventPublisher,
	metrics port.Metrics,
) *RestructureDebtUseCase {
	return &RestructureDebtUseCase{
		loanRepo:  loanRepo,
		publisher: publisher,
		metrics:   metrics,
	}
}

// Execute stores both loans in one transaction and publishes their events.
func (uc *RestructureDebtUseCase) Execute(
	ctx context.Context,
	req dto.RestructureDebtRequest,
) (dto.RestructureResponse, error) {
	now := time.Now().UTC()

	// 1. Parse the new terms.
	terms, err := toTerms(req.Terms)
	if err != nil {
		return dto.RestructureResponse{}, fmt.Errorf("parse terms: %w", err)
	}

	// 2. Retrieve the loan.
	loan, err := uc.loanRepo.FindByID(ctx, req.OwnerID, req.LoanID)
	if err != nil {
		return dto.RestructureResponse{}, fmt.Errorf("find loan: %w", err)
	}

	// 3. Restructure.
	closed, successor, err := loan.Restructure(terms, now)
	if err != nil {
		return dto.RestructureResponse{}, fmt.Errorf("restructure: %w", err)
	}

	// 4. Persist both sides atomically.
	if err := uc.loanRepo.Save(ctx, closed, successor); err != nil {
		return dto.RestructureResponse{}, fmt.Errorf("save loans: %w", err)
	}

	// 5. Publish events.
	evts := make([]event.DomainEvent, 0, len(closed.DomainEvents())+len(successor.DomainEvents()))
	evts = append(evts, closed.DomainEvents()...)
	evts = append(evts, successor.DomainEvents()...)
	if err := uc.publisher.Publish(ctx, evts...); err != nil {
		return dto.RestructureResponse{}, fmt.Errorf("publish events: %w", err)
	}

	uc.metrics.StatusChanged(ctx, closed.Status().String())
	uc.metrics.ScheduleBuilt(ctx, terms.Mode.String(), terms.TotalPeriods)

	return dto.RestructureResponse{
		ClosedLoan: toLoanResponse(closed, false),
		NewLoan:    toLoanResponse(successor, true),
	}, nil
}
