package grpc

// proto.go hand-writes the service descriptor for debt.v1.DebtService.
// Messages are the application DTOs, carried by the JSON codec.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/debt-service/internal/application/dto"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "debt.v1.DebtService"

// Full method names, as seen by interceptors.
const (
	MethodOriginateLoan      = "/" + ServiceName + "/OriginateLoan"
	MethodBuildSchedule      = "/" + ServiceName + "/BuildSchedule"
	MethodRecordPayment      = "/" + ServiceName + "/RecordPayment"
	MethodSimulatePrepayment = "/" + ServiceName + "/SimulatePrepayment"
	MethodApplyPrepayment    = "/" + ServiceName + "/ApplyPrepayment"
	MethodRestructureDebt    = "/" + ServiceName + "/RestructureDebt"
	MethodGetLoan            = "/" + ServiceName + "/GetLoan"
	MethodListLoans          = "/" + ServiceName + "/ListLoans"
	MethodMarkOverdue        = "/" + ServiceName + "/MarkOverdue"
)

// DebtServiceServer is the server API for DebtService.
type DebtServiceServer interface {
	OriginateLoan(context.Context, *dto.OriginateLoanRequest) (*dto.LoanResponse, error)
	BuildSchedule(context.Context, *dto.BuildScheduleRequest) (*dto.ScheduleResponse, error)
	RecordPayment(context.Context, *dto.RecordPaymentRequest) (*dto.PaymentResponse, error)
	SimulatePrepayment(context.Context, *dto.PrepaymentRequest) (*dto.PrepaymentResponse, error)
	ApplyPrepayment(context.Context, *dto.PrepaymentRequest) (*dto.PrepaymentResponse, error)
	RestructureDebt(context.Context, *dto.RestructureDebtRequest) (*dto.RestructureResponse, error)
	GetLoan(context.Context, *dto.GetLoanRequest) (*dto.LoanResponse, error)
	ListLoans(context.Context, *dto.ListLoansRequest) (*dto.LoanListResponse, error)
	MarkOverdue(context.Context, *dto.MarkOverdueRequest) (*dto.MarkOverdueResponse, error)
	mustEmbedUnimplementedDebtServiceServer()
}

// UnimplementedDebtServiceServer provides forward-compatible default implementations.
type UnimplementedDebtServiceServer struct{}

func (UnimplementedDebtServiceServer) OriginateLoan(context.Context, *dto.OriginateLoanRequest) (*dto.LoanResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method OriginateLoan not implemented")
}
func (UnimplementedDebtServiceServer) BuildSchedule(context.Context, *dto.BuildScheduleRequest) (*dto.ScheduleResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method BuildSchedule not implemented")
}
func (UnimplementedDebtServiceServer) RecordPayment(context.Context, *dto.RecordPaymentRequest) (*dto.PaymentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RecordPayment not implemented")
}
func (UnimplementedDebtServiceServer) SimulatePrepayment(context.Context, *dto.PrepaymentRequest) (*dto.PrepaymentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SimulatePrepayment not implemented")
}
func (UnimplementedDebtServiceServer) ApplyPrepayment(context.Context, *dto.PrepaymentRequest) (*dto.PrepaymentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ApplyPrepayment not implemented")
}
func (UnimplementedDebtServiceServer) RestructureDebt(context.Context, *dto.RestructureDebtRequest) (*dto.RestructureResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RestructureDebt not implemented")
}
func (UnimplementedDebtServiceServer) GetLoan(context.Context, *dto.GetLoanRequest) (*dto.LoanResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetLoan not implemented")
}
func (UnimplementedDebtServiceServer) ListLoans(context.Context, *dto.ListLoansRequest) (*dto.LoanListResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListLoans not implemented")
}
func (UnimplementedDebtServiceServer) MarkOverdue(context.Context, *dto.MarkOverdueRequest) (*dto.MarkOverdueResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method MarkOverdue not implemented")
}
func (UnimplementedDebtServiceServer) mustEmbedUnimplementedDebtServiceServer() {}

// RegisterDebtServiceServer registers srv with the gRPC server.
func RegisterDebtServiceServer(s grpclib.ServiceRegistrar, srv DebtServiceServer) {
	s.RegisterService(&debtServiceDesc, srv)
}

var debtServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DebtServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "OriginateLoan", Handler: unary(MethodOriginateLoan, DebtServiceServer.OriginateLoan)},
		{MethodName: "BuildSchedule", Handler: unary(MethodBuildSchedule, DebtServiceServer.BuildSchedule)},
		{MethodName: "RecordPayment", Handler: unary(MethodRecordPayment, DebtServiceServer.RecordPayment)},
		{MethodName: "SimulatePrepayment", Handler: unary(MethodSimulatePrepayment, DebtServiceServer.SimulatePrepayment)},
		{MethodName: "ApplyPrepayment", Handler: unary(MethodApplyPrepayment, DebtServiceServer.ApplyPrepayment)},
		{MethodName: "RestructureDebt", Handler: unary(MethodRestructureDebt, DebtServiceServer.RestructureDebt)},
		{MethodName: "GetLoan", Handler: unary(MethodGetLoan, DebtServiceServer.GetLoan)},
		{MethodName: "ListLoans", Handler: unary(MethodListLoans, DebtServiceServer.ListLoans)},
		{MethodName: "MarkOverdue", Handler: unary(MethodMarkOverdue, DebtServiceServer.MarkOverdue)},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "debt/v1/debt.proto",
}

// unary adapts a typed server method to a grpc.MethodHandler, in the shape
// protoc-gen-go-grpc emits per method.
func unary[Req, Resp any](
	fullMethod string,
	call func(DebtServiceServer, context.Context, *Req) (*Resp, error),
) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DebtServiceServer), ctx, in)
		}
		info := &grpclib.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(DebtServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
