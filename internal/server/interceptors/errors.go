package interceptors

import (
	"context"
	"errors"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"registration-backend/internal/apperr"
	"registration-backend/internal/security"
)

// ToStatus maps a service error to a gRPC status error. Errors that already carry a status are
// returned unchanged. Unclassified errors become Internal with a generic message; the cause is
// logged, never sent to the client.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, security.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, "token expired")
	case errors.Is(err, security.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, apperr.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, apperr.Message(err))
	case errors.Is(err, apperr.ErrBadRequest):
		return status.Error(codes.InvalidArgument, apperr.Message(err))
	case errors.Is(err, apperr.ErrForbidden):
		return status.Error(codes.PermissionDenied, apperr.Message(err))
	case errors.Is(err, apperr.ErrNotFound):
		return status.Error(codes.NotFound, apperr.Message(err))
	case errors.Is(err, apperr.ErrInvalidState):
		return status.Error(codes.FailedPrecondition, apperr.Message(err))
	default:
		log.Printf("server: internal error: %v", err)
		return status.Error(codes.Internal, "internal error")
	}
}

// ErrorUnary returns a unary server interceptor that maps handler errors through ToStatus.
func ErrorUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			return resp, ToStatus(err)
		}
		return resp, nil
	}
}
