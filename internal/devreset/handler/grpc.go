// Package handler implements the dev-only DevService (GetTempPassword).
package handler

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"registration-backend/internal/server/rpc"
)

const (
	serviceName = "DevService"
	devNote     = "DEV MODE ONLY"
)

// Store reads back delivered temporary passwords. *devreset.MemoryStore satisfies it.
type Store interface {
	Get(ctx context.Context, email string) (string, bool)
}

type GetTempPasswordRequest struct {
	Email string `json:"email"`
}

type GetTempPasswordResponse struct {
	TempPassword string `json:"tempPassword"`
	Note         string `json:"note"`
}

// DevServiceServer is the server API for DevService.
type DevServiceServer interface {
	GetTempPassword(ctx context.Context, req *GetTempPasswordRequest) (*GetTempPasswordResponse, error)
}

// ServiceDesc describes DevService for grpc.ServiceRegistrar.
var ServiceDesc = rpc.Service(serviceName, (*DevServiceServer)(nil),
	rpc.Unary(serviceName, "GetTempPassword", DevServiceServer.GetTempPassword),
)

// PublicMethods are reachable without a bearer token.
var PublicMethods = []string{
	rpc.FullMethod(serviceName, "GetTempPassword"),
}

// RegisterDevServiceServer registers srv with s.
func RegisterDevServiceServer(s grpc.ServiceRegistrar, srv DevServiceServer) {
	s.RegisterService(ServiceDesc, srv)
}

// Server implements DevService. Only registered when dev delivery is enabled and not production.
type Server struct {
	store Store
}

// NewServer returns a DevService server reading from store.
func NewServer(store Store) *Server {
	return &Server{store: store}
}

// GetTempPassword returns the last temporary password sent to req.Email. Returns NotFound if
// missing or expired.
func (s *Server) GetTempPassword(ctx context.Context, req *GetTempPasswordRequest) (*GetTempPasswordResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, status.Error(codes.InvalidArgument, "email is required")
	}
	pw, ok := s.store.Get(ctx, email)
	if !ok {
		return nil, status.Error(codes.NotFound, "temporary password not found or expired")
	}
	return &GetTempPasswordResponse{TempPassword: pw, Note: devNote}, nil
}
