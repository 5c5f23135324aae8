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

// RecordPaymentUseCase applies a payment to a loan.
type RecordPaymentUseCase struct {
	loanRepo  port.LoanRepository
	publisher port.EventPublisher
	metrics   port.Metrics
}

// NewRecordPaymentUseCase wires dependencies.
func NewRecordPaymentUseCase(
	loanRepo port.LoanRepository,
	publisher port.EventPublisher,
	metrics port.Metrics,
) *RecordPaymentUseCase {
	return &RecordPaymentUseCase{
		loanRepo:  loanRepo,
		publisher: publisher,
		metrics:   metrics,
	}
}

// Execute processes a payment against a loan.
func (uc *RecordPaymentUseCase) Execute(
	ctx context.Context,
	req dto.RecordPaymentRequest,
) (dto.PaymentResponse, error) {
	now := time.Now().UTC()

	// 1. Parse the amount, rounded to the currency's minor units.
	amount, err := money.NewFromString(req.Amount.String(), req.Currency)
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("%w: %v", model.ErrInvalidCurrency, err)
	}
	amount = amount.Round()

	// 2. Retrieve the loan.
	loan, err := uc.loanRepo.FindByID(ctx, req.OwnerID, req.LoanID)
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("find loan: %w", err)
	}
	before := loan.Status()

	// 3. Apply payment.
	loan, alloc, err := loan.RecordPayment(model.Payment{
		PeriodIndex:     req.PeriodIndex,
		PaidAt:          req.PaidAt,
		Amount:          amount,
		FXRate:          req.FXRate,
		Method:          req.Method,
		SourceAccountID: req.SourceAccountID,
	}, now)
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("record payment: %w", err)
	}

	// 4. Persist updated loan.
	if err := uc.loanRepo.Save(ctx, loan); err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("save loan: %w", err)
	}

	// 5. Publish events.
	if err := uc.publisher.Publish(ctx, loan.DomainEvents()...); err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("publish events: %w", err)
	}

	uc.metrics.PaymentRecorded(ctx, amount.Currency().Code(), amount.Amount())
	if !before.Equal(loan.Status()) {
		uc.metrics.StatusChanged(ctx, loan.Status().String())
	}

	return dto.PaymentResponse{
		LoanID:             loan.ID(),
		FeesPaid:           alloc.FeesPaid,
		InterestPaid:       alloc.InterestPaid,
		InsurancePaid:      alloc.InsurancePaid,
		PrincipalPaid:      alloc.PrincipalPaid,
		Credited:           alloc.Remainder,
		RemainingPrincipal: loan.RemainingPrincipal(),
		Credit:             loan.Credit(),
		LoanStatus:         loan.Status().String(),
		NextDueDate:        loan.NextDueDate(),
		NextDueAmount:      loan.NextDueAmount(),
	}, nil
}
