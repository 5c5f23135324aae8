package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/debt-service/internal/application/dto"
	"github.com/bibbank/debt-service/internal/domain/model"
	"github.com/bibbank/debt-service/internal/domain/port"
	"github.com/bibbank/debt-service/internal/domain/service"
	"github.com/bibbank/debt-service/internal/domain/valueobject"
)

// SimulatePrepaymentUseCase computes a prepayment scenario without changing
// the loan. Results are cached per loan version.
type SimulatePrepaymentUseCase struct {
	loanRepo port.LoanRepository
	planner  *service.PrepaymentPlanner
	cache    port.SimulationCache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewSimulatePrepaymentUseCase wires dependencies.
func NewSimulatePrepaymentUseCase(
	loanRepo port.LoanRepository,
	planner *service.PrepaymentPlanner,
	cache port.SimulationCache,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *SimulatePrepaymentUseCase {
	return &SimulatePrepaymentUseCase{
		loanRepo: loanRepo,
		planner:  planner,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Execute returns the plan the prepayment would produce.
func (uc *SimulatePrepaymentUseCase) Execute(
	ctx context.Context,
	req dto.PrepaymentRequest,
) (dto.PrepaymentResponse, error) {
	mode, err := valueobject.NewPrepaymentMode(req.Mode)
	if err != nil {
		return dto.PrepaymentResponse{}, fmt.Errorf("%w: %v", model.ErrUnsupportedPrepayment, err)
	}

	loan, err := uc.loanRepo.FindByID(ctx, req.OwnerID, req.LoanID)
	if err != nil {
		return dto.PrepaymentResponse{}, fmt.Errorf("find loan: %w", err)
	}

	key := simulationKey(loan, req)
	if cached, ok := uc.lookup(ctx, key); ok {
		return cached, nil
	}

	plan, err := planPrepayment(uc.planner, loan, req, mode)
	if err != nil {
		return dto.PrepaymentResponse{}, err
	}

	resp := toPrepaymentResponse(plan)
	resp.LoanStatus = loan.Status().String()
	uc.store(ctx, key, resp)
	return resp, nil
}

func (uc *SimulatePrepaymentUseCase) lookup(ctx context.Context, key string) (dto.PrepaymentResponse, bool) {
	raw, ok, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.logger.Warn("simulation cache read failed", "key", key, "error", err)
		return dto.PrepaymentResponse{}, false
	}
	if !ok {
		return dto.PrepaymentResponse{}, false
	}
	var resp dto.PrepaymentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		uc.logger.Warn("discarding undecodable cached simulation", "key", key, "error", err)
		return dto.PrepaymentResponse{}, false
	}
	return resp, true
}

func (uc *SimulatePrepaymentUseCase) store(ctx context.Context, key string, resp dto.PrepaymentResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		uc.logger.Warn("encode simulation", "key", key, "error", err)
		return
	}
	if err := uc.cache.Set(ctx, key, raw, uc.cacheTTL); err != nil {
		uc.logger.Warn("simulation cache write failed", "key", key, "error", err)
	}
}

func simulationKey(loan model.Loan, req dto.PrepaymentRequest) string {
	return fmt.Sprintf("prepayment:%s:v%d:%s:%s:%s",
		loan.ID(), loan.Version(), req.AsOf, req.Amount.String(), req.Mode)
}

func planPrepayment(
	planner *service.PrepaymentPlanner,
	loan model.Loan,
	req dto.PrepaymentRequest,
	mode valueobject.PrepaymentMode,
) (model.PrepaymentPlan, error) {
	basis, err := loan.PrepaymentBasis(req.AsOf)
	if err != nil {
		return model.PrepaymentPlan{}, fmt.Errorf("prepayment basis: %w", err)
	}
	plan, err := planner.Plan(basis, req.Amount, mode)
	if err != nil {
		return model.PrepaymentPlan{}, fmt.Errorf("plan prepayment: %w", err)
	}
	return plan, nil
}

// ApplyPrepaymentUseCase commits a prepayment to a loan.
type ApplyPrepaymentUseCase struct {
	loanRepo  port.LoanRepository
	planner   *service.PrepaymentPlanner
	publisher port.EventPublisher
	metrics   port.Metrics
}

// NewApplyPrepaymentUseCase wires dependencies.
func NewApplyPrepaymentUseCase(
	loanRepo port.LoanRepository,
	planner *service.PrepaymentPlanner,
	publisher port.EventPublisher,
	metrics port.Metrics,
) *ApplyPrepaymentUseCase {
	return &ApplyPrepaymentUseCase{
		loanRepo:  loanRepo,
		planner:   planner,
		publisher: publisher,
		metrics:   metrics,
	}
}

// Execute plans the prepayment against the stored loan and applies it.
func (uc *ApplyPrepaymentUseCase) Execute(
	ctx context.Context,
	req dto.PrepaymentRequest,
) (dto.PrepaymentResponse, error) {
	now := time.Now().UTC()

	// 1. Parse inputs.
	mode, err := valueobject.NewPrepaymentMode(req.Mode)
	if err != nil {
		return dto.PrepaymentResponse{}, fmt.Errorf("%w: %v", model.ErrUnsupportedPrepayment, err)
	}

	// 2. Retrieve the loan.
	loan, err := uc.loanRepo.FindByID(ctx, req.OwnerID, req.LoanID)
	if err != nil {
		return dto.PrepaymentResponse{}, fmt.Errorf("find loan: %w", err)
	}
	before := loan.Status()

	// 3. Plan and apply.
	plan, err := planPrepayment(uc.planner, loan, req, mode)
	if err != nil {
		return dto.PrepaymentResponse{}, err
	}
	loan, err = loan.ApplyPrepayment(plan, now)
	if err != nil {
		return dto.PrepaymentResponse{}, fmt.Errorf("apply prepayment: %w", err)
	}

	// 4. Persist.
	if err := uc.loanRepo.Save(ctx, loan); err != nil {
		return dto.PrepaymentResponse{}, fmt.Errorf("save loan: %w", err)
	}

	// 5. Publish events.
	if err := uc.publisher.Publish(ctx, loan.DomainEvents()...); err != nil {
		return dto.PrepaymentResponse{}, fmt.Errorf("publish events: %w", err)
	}

	uc.metrics.PrepaymentApplied(ctx, mode.String(), plan.InterestSaved)
	if !before.Equal(loan.Status()) {
		uc.metrics.StatusChanged(ctx, loan.Status().String())
	}

	resp := toPrepaymentResponse(plan)
	resp.Applied = true
	resp.LoanStatus = loan.Status().String()
	return resp, nil
}
