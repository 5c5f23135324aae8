package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/bibbank/debt-service/internal/application/dto"
	"github.com/bibbank/debt-service/internal/domain/model"
	"github.com/bibbank/debt-service/internal/domain/port"
	pkgkafka "github.com/bibbank/debt-service/pkg/kafka"
)

// PaymentRecorder applies a payment to a loan.
type PaymentRecorder interface {
	Execute(ctx context.Context, req dto.RecordPaymentRequest) (dto.PaymentResponse, error)
}

// settledPayment is the payload of a payments.settled message.
type settledPayment struct {
	PaymentID       string              `json:"payment_id"`
	OwnerID         string              `json:"owner_id"`
	LoanID          string              `json:"loan_id"`
	PeriodIndex     int                 `json:"period_index"`
	Amount          decimal.Decimal     `json:"amount"`
	Currency        string              `json:"currency"`
	FXRate          decimal.NullDecimal `json:"fx_rate"`
	SettledOn       civil.Date          `json:"settled_on"`
	Method          string              `json:"method"`
	SourceAccountID string              `json:"source_account_id"`
}

// NewPaymentHandler returns a consumer handler that records settled payments
// against their loans. Malformed messages and business rejections are
// permanent; anything else is retried.
func NewPaymentHandler(recorder PaymentRecorder, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, msg pkgkafka.Message) error {
		var p settledPayment
		if err := json.Unmarshal(msg.Value, &p); err != nil {
			return pkgkafka.Permanent(fmt.Errorf("decode settled payment: %w", err))
		}
		if p.LoanID == "" || p.OwnerID == "" || !p.SettledOn.IsValid() {
			return pkgkafka.Permanent(fmt.Errorf("settled payment %q: missing loan, owner or settlement date", p.PaymentID))
		}

		resp, err := recorder.Execute(ctx, dto.RecordPaymentRequest{
			OwnerID:         p.OwnerID,
			LoanID:          p.LoanID,
			PeriodIndex:     p.PeriodIndex,
			PaidAt:          p.SettledOn,
			Amount:          p.Amount,
			Currency:        p.Currency,
			FXRate:          p.FXRate,
			Method:          p.Method,
			SourceAccountID: p.SourceAccountID,
		})
		if err != nil {
			if isRejection(err) {
				return pkgkafka.Permanent(fmt.Errorf("payment %s rejected: %w", p.PaymentID, err))
			}
			return fmt.Errorf("record payment %s: %w", p.PaymentID, err)
		}

		logger.InfoContext(ctx, "settled payment recorded",
			"payment_id", p.PaymentID,
			"loan_id", resp.LoanID,
			"loan_status", resp.LoanStatus,
			"offset", msg.Offset,
		)
		return nil
	}
}

func isRejection(err error) bool {
	for _, target := range []error{
		port.ErrLoanNotFound,
		model.ErrInvalidPaymentAmount,
		model.ErrCurrencyMismatch,
		model.ErrInvalidCurrency,
		model.ErrUnknownInstallment,
		model.ErrTerminalState,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
