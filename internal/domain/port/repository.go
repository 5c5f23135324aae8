package port

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/bibbank/debt-service/internal/domain/event"
	"github.com/bibbank/debt-service/internal/domain/model"
)

// ---------------------------------------------------------------------------
// Repository ports (driven/secondary adapters)
// ---------------------------------------------------------------------------

var (
	// ErrLoanNotFound is returned when no loan matches the owner and ID.
	ErrLoanNotFound = errors.New("loan not found")
	// ErrConcurrentModification is returned when a loan changed since it was read.
	ErrConcurrentModification = errors.New("loan was modified concurrently")
)

// LoanRepository persists and retrieves loans.
type LoanRepository interface {
	// Save stores every loan in a single transaction. A loan whose version no
	// longer matches the stored one fails with ErrConcurrentModification.
	Save(ctx context.Context, loans ...model.Loan) error
	FindByID(ctx context.Context, ownerID, id string) (model.Loan, error)
	FindByOwner(ctx context.Context, ownerID string) ([]model.Loan, error)
	// FindOverdue returns ACTIVE loans with an unpaid installment due before asOf.
	FindOverdue(ctx context.Context, asOf civil.Date) ([]model.Loan, error)
}

// ---------------------------------------------------------------------------
// Event publisher port
// ---------------------------------------------------------------------------

// EventPublisher publishes domain events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.DomainEvent) error
}

// ---------------------------------------------------------------------------
// Cache port
// ---------------------------------------------------------------------------

// SimulationCache stores encoded prepayment simulations. Keys embed the loan
// version, so entries never outlive the state they were computed from.
type SimulationCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ---------------------------------------------------------------------------
// Metrics port
// ---------------------------------------------------------------------------

// Metrics records business measurements.
type Metrics interface {
	ScheduleBuilt(ctx context.Context, mode string, periods int)
	PaymentRecorded(ctx context.Context, currency string, amount decimal.Decimal)
	StatusChanged(ctx context.Context, status string)
	PrepaymentApplied(ctx context.Context, mode string, interestSaved decimal.Decimal)
}
