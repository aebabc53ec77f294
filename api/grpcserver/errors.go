package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"barter/domain/exchange"
)

// ErrorDomain tags ErrorInfo details produced by this service.
const ErrorDomain = "barter.exchange"

func grpcCode(c exchange.Code) codes.Code {
	switch c {
	case exchange.CodeNotFound:
		return codes.NotFound
	case exchange.CodeValidation:
		return codes.InvalidArgument
	case exchange.CodeInsufficientFunds, exchange.CodeLedgerMissing:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

// toStatus converts err to a gRPC status. Exchange errors carry their code
// and metadata in an ErrorInfo detail.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	var xerr *exchange.Error
	if !errors.As(err, &xerr) {
		return status.Error(codes.Internal, err.Error())
	}

	st := status.New(grpcCode(xerr.Code), xerr.Message)
	withInfo, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   string(xerr.Code),
		Domain:   ErrorDomain,
		Metadata: xerr.Metadata,
	})
	if derr != nil {
		return st.Err()
	}
	return withInfo.Err()
}

// CodeFromStatus recovers the exchange code from a status error returned
// by this service, CodeUnknown when it carries none.
func CodeFromStatus(err error) exchange.Code {
	st, ok := status.FromError(err)
	if !ok {
		return exchange.CodeUnknown
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.Domain == ErrorDomain {
			return exchange.Code(info.Reason)
		}
	}
	return exchange.CodeUnknown
}
