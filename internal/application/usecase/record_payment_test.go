package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/debt-service/internal/application/dto"
	"github.com/bibbank/debt-service/internal/application/usecase"
	"github.com/bibbank/debt-service/internal/domain/event"
	"github.com/bibbank/debt-service/internal/domain/model"
	"github.com/bibbank/debt-service/internal/domain/port"
	"github.com/bibbank/debt-service/pkg/money"
)

func paymentRequest(loanID, amount string, paidAt civil.Date) dto.RecordPaymentRequest {
	return dto.RecordPaymentRequest{
		OwnerID:  "owner-001",
		LoanID:   loanID,
		PaidAt:   paidAt,
		Amount:   dec(amount),
		Currency: "USD",
		Method:   "TRANSFER",
	}
}

func TestRecordPayment_Execute(t *testing.T) {
	feb1 := civil.Date{Year: 2025, Month: time.February, Day: 1}

	t.Run("applies an exact installment", func(t *testing.T) {
		loan := storedLoan(t, simpleTerms())
		repo := repoWith(loan)
		publisher := &mockEventPublisher{}
		metrics := &mockMetrics{}
		uc := usecase.NewRecordPaymentUseCase(repo, publisher, metrics)

		resp, err := uc.Execute(context.Background(), paymentRequest(loan.ID(), "100", feb1))

		require.NoError(t, err)
		assert.True(t, resp.PrincipalPaid.Equal(dec("100")))
		assert.True(t, resp.Credited.IsZero())
		assert.True(t, resp.RemainingPrincipal.Equal(dec("1100")))
		assert.Equal(t, "ACTIVE", resp.LoanStatus)
		assert.Equal(t, civil.Date{Year: 2025, Month: time.March, Day: 1}, resp.NextDueDate)

		require.Len(t, repo.savedLoans, 1)
		assert.Equal(t, []string{event.TypePaymentRecorded}, publisher.types())
		require.Len(t, metrics.payments, 1)
		assert.True(t, metrics.payments[0].Equal(dec("100")))
		assert.Empty(t, metrics.statuses)
	})

	t.Run("holds overpayment as credit", func(t *testing.T) {
		loan := storedLoan(t, simpleTerms())
		uc := usecase.NewRecordPaymentUseCase(repoWith(loan), &mockEventPublisher{}, &mockMetrics{})

		resp, err := uc.Execute(context.Background(), paymentRequest(loan.ID(), "130", feb1))

		require.NoError(t, err)
		assert.True(t, resp.PrincipalPaid.Equal(dec("100")))
		assert.True(t, resp.Credited.Equal(dec("30")))
		assert.True(t, resp.Credit.Equal(dec("30")))
	})

	t.Run("settles the loan and reports the status change", func(t *testing.T) {
		loan := storedLoan(t, simpleTerms())
		publisher := &mockEventPublisher{}
		metrics := &mockMetrics{}
		uc := usecase.NewRecordPaymentUseCase(repoWith(loan), publisher, metrics)

		req := paymentRequest(loan.ID(), "1200", civil.Date{Year: 2026, Month: time.January, Day: 1})
		resp, err := uc.Execute(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "SETTLED", resp.LoanStatus)
		assert.True(t, resp.RemainingPrincipal.IsZero())
		assert.Contains(t, publisher.types(), event.TypeLoanSettled)
		assert.Equal(t, []string{"SETTLED"}, metrics.statuses)
	})

	t.Run("rejects a payment in another currency", func(t *testing.T) {
		loan := storedLoan(t, simpleTerms())
		repo := repoWith(loan)
		uc := usecase.NewRecordPaymentUseCase(repo, &mockEventPublisher{}, &mockMetrics{})

		req := paymentRequest(loan.ID(), "100", feb1)
		req.Currency = "EUR"
		req.FXRate = decimal.NewNullDecimal(dec("1.08"))
		_, err := uc.Execute(context.Background(), req)

		assert.ErrorIs(t, err, model.ErrCurrencyMismatch)
		assert.Empty(t, repo.savedLoans)
	})

	t.Run("rejects malformed currency", func(t *testing.T) {
		uc := usecase.NewRecordPaymentUseCase(&mockLoanRepository{}, &mockEventPublisher{}, &mockMetrics{})
		req := paymentRequest("loan-1", "100", feb1)
		req.Currency = "dollars"
		_, err := uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, model.ErrInvalidCurrency)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		loan := storedLoan(t, simpleTerms())
		uc := usecase.NewRecordPaymentUseCase(repoWith(loan), &mockEventPublisher{}, &mockMetrics{})
		_, err := uc.Execute(context.Background(), paymentRequest(loan.ID(), "0", feb1))
		assert.ErrorIs(t, err, model.ErrInvalidPaymentAmount)
	})

	t.Run("surfaces concurrent modification", func(t *testing.T) {
		loan := storedLoan(t, simpleTerms())
		repo := repoWith(loan)
		repo.saveFunc = func(context.Context, ...model.Loan) error {
			return fmt.Errorf("update loan %s: %w", loan.ID(), port.ErrConcurrentModification)
		}
		publisher := &mockEventPublisher{}
		uc := usecase.NewRecordPaymentUseCase(repo, publisher, &mockMetrics{})

		_, err := uc.Execute(context.Background(), paymentRequest(loan.ID(), "100", feb1))

		require.Error(t, err)
		assert.True(t, errors.Is(err, port.ErrConcurrentModification))
		assert.Empty(t, publisher.publishedEvents)
	})

	t.Run("rejects payment on a restructured loan", func(t *testing.T) {
		loan := storedLoan(t, simpleTerms())
		closed, _, err := loan.Restructure(simpleTerms(), time.Now().UTC())
		require.NoError(t, err)

		uc := usecase.NewRecordPaymentUseCase(repoWith(closed.ClearEvents()), &mockEventPublisher{}, &mockMetrics{})
		_, err = uc.Execute(context.Background(), paymentRequest(loan.ID(), "100", feb1))

		assert.ErrorIs(t, err, model.ErrTerminalState)
	})
}

func TestGetLoan_Execute(t *testing.T) {
	loan := storedLoan(t, simpleTerms())

	t.Run("returns the loan with installments", func(t *testing.T) {
		uc := usecase.NewGetLoanUseCase(repoWith(loan))

		resp, err := uc.Execute(context.Background(), dto.GetLoanRequest{
			OwnerID: "owner-001", LoanID: loan.ID(), WithInstallments: true,
		})

		require.NoError(t, err)
		assert.Equal(t, loan.ID(), resp.ID)
		assert.Len(t, resp.Installments, 12)
		assert.False(t, resp.Installments[0].Settled)
		assert.True(t, resp.Installments[0].Outstanding.Equal(dec("100")))
	})

	t.Run("omits installments when not asked", func(t *testing.T) {
		uc := usecase.NewGetLoanUseCase(repoWith(loan))
		resp, err := uc.Execute(context.Background(), dto.GetLoanRequest{OwnerID: "owner-001", LoanID: loan.ID()})
		require.NoError(t, err)
		assert.Empty(t, resp.Installments)
	})

	t.Run("other owners cannot see the loan", func(t *testing.T) {
		uc := usecase.NewGetLoanUseCase(repoWith(loan))
		_, err := uc.Execute(context.Background(), dto.GetLoanRequest{OwnerID: "owner-002", LoanID: loan.ID()})
		assert.ErrorIs(t, err, port.ErrLoanNotFound)
	})
}

func TestListLoans_Execute(t *testing.T) {
	a := storedLoan(t, simpleTerms())
	b := storedLoan(t, annuityTerms())
	repo := &mockLoanRepository{
		findByOwnerFunc: func(_ context.Context, ownerID string) ([]model.Loan, error) {
			if ownerID == "owner-001" {
				return []model.Loan{a, b}, nil
			}
			return nil, nil
		},
	}
	uc := usecase.NewListLoansUseCase(repo)

	resp, err := uc.Execute(context.Background(), dto.ListLoansRequest{OwnerID: "owner-001"})
	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.Equal(t, a.ID(), resp[0].ID)
	assert.Equal(t, "ANNUITY", resp[1].Mode)

	resp, err = uc.Execute(context.Background(), dto.ListLoansRequest{OwnerID: "owner-002"})
	require.NoError(t, err)
	assert.Empty(t, resp)
}

func TestMarkOverdueLoans_Execute(t *testing.T) {
	mar1 := civil.Date{Year: 2025, Month: time.March, Day: 1}

	overdue := storedLoan(t, simpleTerms())
	current := storedLoan(t, simpleTerms())
	current, _, err := current.RecordPayment(model.Payment{
		PaidAt: civil.Date{Year: 2025, Month: time.February, Day: 1},
		Amount: money.New(dec("200"), money.USD),
	}, time.Now().UTC())
	require.NoError(t, err)
	current = current.ClearEvents()

	repo := &mockLoanRepository{
		findOverdueFunc: func(_ context.Context, asOf civil.Date) ([]model.Loan, error) {
			assert.Equal(t, mar1, asOf)
			return []model.Loan{overdue, current}, nil
		},
	}
	publisher := &mockEventPublisher{}
	metrics := &mockMetrics{}
	uc := usecase.NewMarkOverdueLoansUseCase(repo, publisher, metrics, discardLogger())

	resp, err := uc.Execute(context.Background(), dto.MarkOverdueRequest{AsOf: mar1})

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Checked)
	assert.Equal(t, 1, resp.MarkedLate)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, repo.savedLoans, 1)
	assert.Equal(t, overdue.ID(), repo.savedLoans[0].ID())
	assert.Equal(t, "LATE", repo.savedLoans[0].Status().String())
	assert.Equal(t, []string{event.TypeLoanLate}, publisher.types())
	assert.Equal(t, []string{"LATE"}, metrics.statuses)
}

func TestMarkOverdueLoans_RepositoryFailure(t *testing.T) {
	repo := &mockLoanRepository{
		findOverdueFunc: func(context.Context, civil.Date) ([]model.Loan, error) {
			return nil, fmt.Errorf("connection refused")
		},
	}
	uc := usecase.NewMarkOverdueLoansUseCase(repo, &mockEventPublisher{}, &mockMetrics{}, discardLogger())

	_, err := uc.Execute(context.Background(), dto.MarkOverdueRequest{AsOf: testStart})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "find overdue loans")
}
