package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/bibbank/debt-service/internal/application/dto"
	"github.com/bibbank/debt-service/internal/domain/model"
	"github.com/bibbank/debt-service/internal/domain/port"
	"github.com/bibbank/debt-service/pkg/money"
)

// OriginateLoanUseCase registers a new loan and its first schedule.
type OriginateLoanUseCase struct {
	loanRepo  port.LoanRepository
	publisher port.EventPublisher
	metrics   port.Metrics
}

// NewOriginateLoanUseCase wires dependencies.
func NewOriginateLoanUseCase(
	loanRepo port.LoanRepository,
	publisher port.EventPublisher,
	metrics port.Metrics,
) *OriginateLoanUseCase {
	return &OriginateLoanUseCase{
		loanRepo:  loanRepo,
		publisher: publisher,
		metrics:   metrics,
	}
}

// Execute validates the terms, builds the schedule and stores the loan.
func (uc *OriginateLoanUseCase) Execute(
	ctx context.Context,
	req dto.OriginateLoanRequest,
) (dto.LoanResponse, error) {
	now := time.Now().UTC()

	// 1. Parse inputs.
	currency, err := money.NewCurrency(req.Currency)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("%w: %v", model.ErrInvalidCurrency, err)
	}
	terms, err := toTerms(req.Terms)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("parse terms: %w", err)
	}

	// 2. Create the aggregate.
	loan, err := model.NewLoan(req.OwnerID, currency, terms, now)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("create loan: %w", err)
	}

	// 3. Persist.
	if err := uc.loanRepo.Save(ctx, loan); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("save loan: %w", err)
	}

	// 4. Publish events.
	if err := uc.publisher.Publish(ctx, loan.DomainEvents()...); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("publish events: %w", err)
	}

	uc.metrics.ScheduleBuilt(ctx, terms.Mode.String(), terms.TotalPeriods)
	uc.metrics.StatusChanged(ctx, loan.Status().String())

	return toLoanResponse(loan, true), nil
}
