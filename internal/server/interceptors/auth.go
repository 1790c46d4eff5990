package interceptors

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"registration-backend/internal/identity/domain"
	"registration-backend/internal/security"
)

const bearerPrefix = "bearer "

// TokenParser validates a bearer token and returns its claims. Implemented by *security.TokenService.
type TokenParser interface {
	Parse(token string) (*security.SessionClaims, error)
}

// AuthUnary returns a unary server interceptor that validates the Bearer session token
// from gRPC metadata and sets the caller (email, role) in context for protected RPCs.
// publicMethods is the set of full method names that do not require a Bearer token
// (e.g. login, register, raising a reset request, health checks).
// An expired token is rejected with the message "token expired" so clients can prompt a fresh
// login; any other failure is rejected as missing or invalid authorization.
func AuthUnary(tokens TokenParser, publicMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		token := extractBearer(ctx)
		public := publicMethods[info.FullMethod]

		if token == "" {
			if public {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			if public {
				return handler(ctx, req)
			}
			if errors.Is(err, security.ErrTokenExpired) {
				return nil, status.Error(codes.Unauthenticated, "token expired")
			}
			return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
		}

		ctx = WithCaller(ctx, claims.Subject, domain.Role(claims.Role))
		return handler(ctx, req)
	}
}

// BearerToken returns the Bearer token from ctx metadata, or "" if missing or malformed.
// Used by logout, which needs the raw token to record its digest.
func BearerToken(ctx context.Context) string {
	return extractBearer(ctx)
}

// extractBearer returns the Bearer token from ctx metadata, or "" if missing or malformed.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
