package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/debt-service/internal/application/dto"
	"github.com/bibbank/debt-service/internal/domain/model"
	"github.com/bibbank/debt-service/internal/domain/port"
	"github.com/bibbank/debt-service/internal/domain/valueobject"
	"github.com/bibbank/debt-service/pkg/auth"
)

// UseCase is the shape shared by every application use case.
type UseCase[Req, Resp any] interface {
	Execute(ctx context.Context, req Req) (Resp, error)
}

// UseCases groups the operations the handler exposes.
type UseCases struct {
	Originate   UseCase[dto.OriginateLoanRequest, dto.LoanResponse]
	Schedule    UseCase[dto.BuildScheduleRequest, dto.ScheduleResponse]
	Payment     UseCase[dto.RecordPaymentRequest, dto.PaymentResponse]
	Simulate    UseCase[dto.PrepaymentRequest, dto.PrepaymentResponse]
	Prepay      UseCase[dto.PrepaymentRequest, dto.PrepaymentResponse]
	Restructure UseCase[dto.RestructureDebtRequest, dto.RestructureResponse]
	GetLoan     UseCase[dto.GetLoanRequest, dto.LoanResponse]
	ListLoans   UseCase[dto.ListLoansRequest, []dto.LoanResponse]
	MarkOverdue UseCase[dto.MarkOverdueRequest, dto.MarkOverdueResponse]
}

// DebtHandler is the gRPC handler for debt operations. The owner of every
// request is taken from the caller's token.
type DebtHandler struct {
	UnimplementedDebtServiceServer
	uc     UseCases
	logger *slog.Logger
	now    func() time.Time
}

// NewDebtHandler creates a new handler with all use-case dependencies.
func NewDebtHandler(uc UseCases, logger *slog.Logger) *DebtHandler {
	return &DebtHandler{uc: uc, logger: logger, now: time.Now}
}

func (h *DebtHandler) OriginateLoan(ctx context.Context, req *dto.OriginateLoanRequest) (*dto.LoanResponse, error) {
	owner, err := auth.ResolveOwner(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	in := *req
	in.OwnerID = owner
	resp, err := h.uc.Originate.Execute(ctx, in)
	if err != nil {
		return nil, h.toStatus(ctx, "OriginateLoan", err)
	}
	return &resp, nil
}

func (h *DebtHandler) BuildSchedule(ctx context.Context, req *dto.BuildScheduleRequest) (*dto.ScheduleResponse, error) {
	owner, err := auth.ResolveOwner(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	in := *req
	in.OwnerID = owner
	resp, err := h.uc.Schedule.Execute(ctx, in)
	if err != nil {
		return nil, h.toStatus(ctx, "BuildSchedule", err)
	}
	return &resp, nil
}

func (h *DebtHandler) RecordPayment(ctx context.Context, req *dto.RecordPaymentRequest) (*dto.PaymentResponse, error) {
	owner, err := auth.ResolveOwner(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	in := *req
	in.OwnerID = owner
	if !in.PaidAt.IsValid() {
		in.PaidAt = h.today()
	}
	resp, err := h.uc.Payment.Execute(ctx, in)
	if err != nil {
		return nil, h.toStatus(ctx, "RecordPayment", err)
	}
	return &resp, nil
}

func (h *DebtHandler) SimulatePrepayment(ctx context.Context, req *dto.PrepaymentRequest) (*dto.PrepaymentResponse, error) {
	in, err := h.prepaymentInput(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := h.uc.Simulate.Execute(ctx, in)
	if err != nil {
		return nil, h.toStatus(ctx, "SimulatePrepayment", err)
	}
	return &resp, nil
}

func (h *DebtHandler) ApplyPrepayment(ctx context.Context, req *dto.PrepaymentRequest) (*dto.PrepaymentResponse, error) {
	in, err := h.prepaymentInput(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := h.uc.Prepay.Execute(ctx, in)
	if err != nil {
		return nil, h.toStatus(ctx, "ApplyPrepayment", err)
	}
	return &resp, nil
}

func (h *DebtHandler) prepaymentInput(ctx context.Context, req *dto.PrepaymentRequest) (dto.PrepaymentRequest, error) {
	owner, err := auth.ResolveOwner(ctx, req.OwnerID)
	if err != nil {
		return dto.PrepaymentRequest{}, err
	}
	in := *req
	in.OwnerID = owner
	if !in.AsOf.IsValid() {
		in.AsOf = h.today()
	}
	return in, nil
}

func (h *DebtHandler) RestructureDebt(ctx context.Context, req *dto.RestructureDebtRequest) (*dto.RestructureResponse, error) {
	owner, err := auth.ResolveOwner(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	in := *req
	in.OwnerID = owner
	resp, err := h.uc.Restructure.Execute(ctx, in)
	if err != nil {
		return nil, h.toStatus(ctx, "RestructureDebt", err)
	}
	return &resp, nil
}

func (h *DebtHandler) GetLoan(ctx context.Context, req *dto.GetLoanRequest) (*dto.LoanResponse, error) {
	owner, err := auth.ResolveOwner(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	in := *req
	in.OwnerID = owner
	resp, err := h.uc.GetLoan.Execute(ctx, in)
	if err != nil {
		return nil, h.toStatus(ctx, "GetLoan", err)
	}
	return &resp, nil
}

func (h *DebtHandler) ListLoans(ctx context.Context, req *dto.ListLoansRequest) (*dto.LoanListResponse, error) {
	owner, err := auth.ResolveOwner(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	loans, err := h.uc.ListLoans.Execute(ctx, dto.ListLoansRequest{OwnerID: owner})
	if err != nil {
		return nil, h.toStatus(ctx, "ListLoans", err)
	}
	return &dto.LoanListResponse{Loans: loans}, nil
}

// MarkOverdue runs the overdue sweep on demand. Access is restricted by the
// server's role interceptor.
func (h *DebtHandler) MarkOverdue(ctx context.Context, req *dto.MarkOverdueRequest) (*dto.MarkOverdueResponse, error) {
	in := *req
	if !in.AsOf.IsValid() {
		in.AsOf = h.today()
	}
	resp, err := h.uc.MarkOverdue.Execute(ctx, in)
	if err != nil {
		return nil, h.toStatus(ctx, "MarkOverdue", err)
	}
	return &resp, nil
}

func (h *DebtHandler) today() civil.Date {
	return civil.DateOf(h.now().UTC())
}

var validationErrors = []error{
	model.ErrInvalidTerm,
	model.ErrUnsupportedFrequency,
	model.ErrUnsupportedMode,
	model.ErrUnsupportedRateType,
	model.ErrInvalidPaymentAmount,
	model.ErrCurrencyMismatch,
	model.ErrUnknownInstallment,
	model.ErrInvalidPrepaymentAmount,
	model.ErrUnsupportedPrepayment,
	model.ErrOwnerRequired,
	model.ErrInvalidCurrency,
}

var stateErrors = []error{
	model.ErrTerminalState,
	model.ErrScheduleLocked,
	model.ErrArrearsOutstanding,
	model.ErrInstallmentPartiallyPaid,
	model.ErrNoArrears,
	model.ErrStalePlan,
	model.ErrAmountExceedsPrincipal,
	model.ErrNoConvergence,
	valueobject.ErrInvalidStatusTransition,
}

// toStatus maps domain and repository errors to gRPC status codes.
func (h *DebtHandler) toStatus(ctx context.Context, method string, err error) error {
	switch {
	case isAny(err, validationErrors):
		h.logger.ErrorContext(ctx, "invalid request from caller", "method", method, "error", err)
		return status.Error(codes.InvalidArgument, err.Error())
	case isAny(err, stateErrors):
		h.logger.WarnContext(ctx, "operation not allowed in loan state", "method", method, "error", err)
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, port.ErrLoanNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, port.ErrConcurrentModification):
		h.logger.WarnContext(ctx, "concurrent modification", "method", method, "error", err)
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		h.logger.ErrorContext(ctx, "internal error", "method", method, "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
