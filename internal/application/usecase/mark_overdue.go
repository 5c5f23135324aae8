package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/debt-service/internal/application/dto"
	"github.com/bibbank/debt-service/internal/domain/port"
)

// MarkOverdueLoansUseCase moves ACTIVE loans with unpaid past-due
// installments to LATE.
type MarkOverdueLoansUseCase struct {
	loanRepo  port.LoanRepository
	publisher port.EventPublisher
	metrics   port.Metrics
	logger    *slog.Logger
}

// NewMarkOverdueLoansUseCase wires dependencies.
func NewMarkOverdueLoansUseCase(
	loanRepo port.LoanRepository,
	publisher port.EventPublisher,
	metrics port.Metrics,
	logger *slog.Logger,
) *MarkOverdueLoansUseCase {
	return &MarkOverdueLoansUseCase{
		loanRepo:  loanRepo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Execute marks every overdue loan. A failure on one loan is logged and
// counted; the sweep carries on with the rest.
func (uc *MarkOverdueLoansUseCase) Execute(
	ctx context.Context,
	req dto.MarkOverdueRequest,
) (dto.MarkOverdueResponse, error) {
	now := time.Now().UTC()

	loans, err := uc.loanRepo.FindOverdue(ctx, req.AsOf)
	if err != nil {
		return dto.MarkOverdueResponse{}, fmt.Errorf("find overdue loans: %w", err)
	}

	resp := dto.MarkOverdueResponse{Checked: len(loans)}
	for _, loan := range loans {
		late, err := loan.MarkLate(req.AsOf, now)
		if err != nil {
			uc.logger.Warn("skip loan in overdue sweep", "loan_id", loan.ID(), "error", err)
			resp.Failed++
			continue
		}
		if err := uc.loanRepo.Save(ctx, late); err != nil {
			uc.logger.Error("save late loan", "loan_id", loan.ID(), "error", err)
			resp.Failed++
			continue
		}
		if err := uc.publisher.Publish(ctx, late.DomainEvents()...); err != nil {
			uc.logger.Error("publish late loan events", "loan_id", loan.ID(), "error", err)
		}
		uc.metrics.StatusChanged(ctx, late.Status().String())
		resp.MarkedLate++
	}
	return resp, nil
}
