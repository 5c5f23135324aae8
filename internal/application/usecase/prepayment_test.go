package usecase_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/debt-service/internal/application/dto"
	"github.com/bibbank/debt-service/internal/application/usecase"
	"github.com/bibbank/debt-service/internal/domain/event"
	"github.com/bibbank/debt-service/internal/domain/model"
	"github.com/bibbank/debt-service/internal/domain/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var jan15 = civil.Date{Year: 2025, Month: time.January, Day: 15}

func prepaymentRequest(loanID, amount, mode string) dto.PrepaymentRequest {
	return dto.PrepaymentRequest{
		OwnerID: "owner-001",
		LoanID:  loanID,
		AsOf:    jan15,
		Amount:  dec(amount),
		Mode:    mode,
	}
}

func TestSimulatePrepayment_Execute(t *testing.T) {
	t.Run("simulates without persisting", func(t *testing.T) {
		loan := storedLoan(t, annuityTerms())
		repo := repoWith(loan)
		cache := newMockSimulationCache()
		uc := usecase.NewSimulatePrepaymentUseCase(repo, service.NewPrepaymentPlanner(), cache, time.Minute, discardLogger())

		resp, err := uc.Execute(context.Background(), prepaymentRequest(loan.ID(), "2000", "RE_AMORTIZE"))

		require.NoError(t, err)
		assert.False(t, resp.Applied)
		assert.Equal(t, "RE_AMORTIZE", resp.Mode)
		assert.Equal(t, 12, resp.NewDuration)
		assert.True(t, resp.NewRemainingPrincipal.Equal(dec("10000")))
		assert.True(t, resp.NewInstallment.LessThan(loan.Installment()))
		assert.True(t, resp.InterestSaved.IsPositive())
		assert.Len(t, resp.Schedule, 12)
		assert.Zero(t, repo.saveCalls)
		assert.Equal(t, 1, cache.sets)
	})

	t.Run("serves repeated simulations from cache", func(t *testing.T) {
		loan := storedLoan(t, annuityTerms())
		cache := newMockSimulationCache()
		uc := usecase.NewSimulatePrepaymentUseCase(repoWith(loan), service.NewPrepaymentPlanner(), cache, time.Minute, discardLogger())
		req := prepaymentRequest(loan.ID(), "2000", "SHORTEN_TERM")

		first, err := uc.Execute(context.Background(), req)
		require.NoError(t, err)
		second, err := uc.Execute(context.Background(), req)
		require.NoError(t, err)

		assert.Equal(t, 2, cache.gets)
		assert.Equal(t, 1, cache.sets)
		assert.Equal(t, first.NewDuration, second.NewDuration)
		assert.Less(t, second.NewDuration, 12)
		assert.True(t, first.InterestSaved.Equal(second.InterestSaved))
		assert.True(t, first.NewInstallment.Equal(second.NewInstallment))
	})

	t.Run("cache failure falls back to computing", func(t *testing.T) {
		loan := storedLoan(t, annuityTerms())
		cache := newMockSimulationCache()
		cache.getErr = fmt.Errorf("redis: connection refused")
		uc := usecase.NewSimulatePrepaymentUseCase(repoWith(loan), service.NewPrepaymentPlanner(), cache, time.Minute, discardLogger())

		resp, err := uc.Execute(context.Background(), prepaymentRequest(loan.ID(), "2000", "RE_AMORTIZE"))

		require.NoError(t, err)
		assert.True(t, resp.NewRemainingPrincipal.Equal(dec("10000")))
	})

	t.Run("rejects invalid scenarios", func(t *testing.T) {
		loan := storedLoan(t, annuityTerms())
		tests := []struct {
			name    string
			req     dto.PrepaymentRequest
			wantErr error
		}{
			{"unknown mode", prepaymentRequest(loan.ID(), "2000", "SKIP_PAYMENT"), model.ErrUnsupportedPrepayment},
			{"zero amount", prepaymentRequest(loan.ID(), "0", "RE_AMORTIZE"), model.ErrInvalidPrepaymentAmount},
			{"above principal", prepaymentRequest(loan.ID(), "12000.01", "RE_AMORTIZE"), model.ErrAmountExceedsPrincipal},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				uc := usecase.NewSimulatePrepaymentUseCase(repoWith(loan), service.NewPrepaymentPlanner(), newMockSimulationCache(), time.Minute, discardLogger())
				_, err := uc.Execute(context.Background(), tt.req)
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	})

	t.Run("refuses while arrears are outstanding", func(t *testing.T) {
		loan := storedLoan(t, annuityTerms())
		uc := usecase.NewSimulatePrepaymentUseCase(repoWith(loan), service.NewPrepaymentPlanner(), newMockSimulationCache(), time.Minute, discardLogger())

		req := prepaymentRequest(loan.ID(), "2000", "RE_AMORTIZE")
		req.AsOf = civil.Date{Year: 2025, Month: time.March, Day: 10}
		_, err := uc.Execute(context.Background(), req)

		assert.ErrorIs(t, err, model.ErrArrearsOutstanding)
	})
}

func TestApplyPrepayment_Execute(t *testing.T) {
	t.Run("applies a partial prepayment", func(t *testing.T) {
		loan := storedLoan(t, annuityTerms())
		repo := repoWith(loan)
		publisher := &mockEventPublisher{}
		metrics := &mockMetrics{}
		uc := usecase.NewApplyPrepaymentUseCase(repo, service.NewPrepaymentPlanner(), publisher, metrics)

		resp, err := uc.Execute(context.Background(), prepaymentRequest(loan.ID(), "2000", "RE_AMORTIZE"))

		require.NoError(t, err)
		assert.True(t, resp.Applied)
		assert.Equal(t, "ACTIVE", resp.LoanStatus)
		require.Len(t, repo.savedLoans, 1)
		saved := repo.savedLoans[0]
		assert.True(t, saved.RemainingPrincipal().Equal(dec("10000")))
		assert.True(t, saved.Installment().Equal(resp.NewInstallment))
		assert.Equal(t, []string{event.TypePrepaymentApplied}, publisher.types())
		assert.Equal(t, []string{"RE_AMORTIZE"}, metrics.prepayments)
		assert.Empty(t, metrics.statuses)
	})

	t.Run("full payoff settles the loan", func(t *testing.T) {
		loan := storedLoan(t, annuityTerms())
		repo := repoWith(loan)
		publisher := &mockEventPublisher{}
		metrics := &mockMetrics{}
		uc := usecase.NewApplyPrepaymentUseCase(repo, service.NewPrepaymentPlanner(), publisher, metrics)

		resp, err := uc.Execute(context.Background(), prepaymentRequest(loan.ID(), "12000", "RE_AMORTIZE"))

		require.NoError(t, err)
		assert.Equal(t, "SETTLED", resp.LoanStatus)
		assert.Equal(t, 0, resp.NewDuration)
		assert.Equal(t, []string{event.TypePrepaymentApplied, event.TypeLoanSettled}, publisher.types())
		assert.Equal(t, []string{"SETTLED"}, metrics.statuses)
	})

	t.Run("does not publish when save fails", func(t *testing.T) {
		loan := storedLoan(t, annuityTerms())
		repo := repoWith(loan)
		repo.saveFunc = func(context.Context, ...model.Loan) error { return fmt.Errorf("database unavailable") }
		publisher := &mockEventPublisher{}
		uc := usecase.NewApplyPrepaymentUseCase(repo, service.NewPrepaymentPlanner(), publisher, &mockMetrics{})

		_, err := uc.Execute(context.Background(), prepaymentRequest(loan.ID(), "2000", "RE_AMORTIZE"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "save loan")
		assert.Empty(t, publisher.publishedEvents)
	})
}

func TestRestructureDebt_Execute(t *testing.T) {
	t.Run("closes the loan and opens a successor", func(t *testing.T) {
		loan := storedLoan(t, simpleTerms())
		repo := repoWith(loan)
		var batches [][]model.Loan
		repo.saveFunc = func(_ context.Context, loans ...model.Loan) error {
			batches = append(batches, loans)
			return nil
		}
		publisher := &mockEventPublisher{}
		uc := usecase.NewRestructureDebtUseCase(repo, publisher, &mockMetrics{})

		terms := simpleTermsRequest()
		terms.TotalPeriods = 24
		resp, err := uc.Execute(context.Background(), dto.RestructureDebtRequest{
			OwnerID: "owner-001", LoanID: loan.ID(), Terms: terms,
		})

		require.NoError(t, err)
		assert.Equal(t, "RESTRUCTURED", resp.ClosedLoan.Status)
		assert.Equal(t, resp.NewLoan.ID, resp.ClosedLoan.SuccessorID)
		assert.Equal(t, loan.ID(), resp.NewLoan.PredecessorID)
		assert.Equal(t, "ACTIVE", resp.NewLoan.Status)
		assert.Len(t, resp.NewLoan.Installments, 24)
		assert.True(t, resp.ClosedLoan.RemainingPrincipal.Equal(dec("1200")))

		require.Len(t, batches, 1, "both loans are saved together")
		assert.Len(t, batches[0], 2)
		assert.Equal(t, []string{event.TypeLoanRestructured, event.TypeLoanOriginated}, publisher.types())
	})

	t.Run("rejects a terminal loan", func(t *testing.T) {
		loan := storedLoan(t, simpleTerms())
		closed, _, err := loan.Restructure(simpleTerms(), time.Now().UTC())
		require.NoError(t, err)

		uc := usecase.NewRestructureDebtUseCase(repoWith(closed.ClearEvents()), &mockEventPublisher{}, &mockMetrics{})
		_, err = uc.Execute(context.Background(), dto.RestructureDebtRequest{
			OwnerID: "owner-001", LoanID: loan.ID(), Terms: simpleTermsRequest(),
		})

		assert.ErrorIs(t, err, model.ErrTerminalState)
	})

	t.Run("rejects invalid new terms", func(t *testing.T) {
		loan := storedLoan(t, simpleTerms())
		repo := repoWith(loan)
		uc := usecase.NewRestructureDebtUseCase(repo, &mockEventPublisher{}, &mockMetrics{})

		terms := simpleTermsRequest()
		terms.Principal = dec("-1")
		_, err := uc.Execute(context.Background(), dto.RestructureDebtRequest{
			OwnerID: "owner-001", LoanID: loan.ID(), Terms: terms,
		})

		assert.ErrorIs(t, err, model.ErrInvalidTerm)
		assert.Zero(t, repo.saveCalls)
	})
}
