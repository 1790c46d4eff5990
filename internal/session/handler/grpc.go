package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"registration-backend/internal/server/interceptors"
	"registration-backend/internal/server/rpc"
	"registration-backend/internal/session"
	"registration-backend/internal/session/domain"
)

const serviceName = "SessionService"

type HistoryRequest struct{}

// Entry is the wire form of a session audit entry. The token hash stays server side.
type Entry struct {
	ID             string     `json:"id"`
	Email          string     `json:"email,omitempty"`
	Role           string     `json:"role,omitempty"`
	EventTime      time.Time  `json:"eventTime"`
	Kind           string     `json:"kind"`
	Reason         string     `json:"reason"`
	TokenIssuedAt  *time.Time `json:"tokenIssuedAt,omitempty"`
	TokenExpiresAt *time.Time `json:"tokenExpiresAt,omitempty"`
}

type HistoryResponse struct {
	Entries []Entry `json:"entries"`
}

// SessionServiceServer is the server API for SessionService.
type SessionServiceServer interface {
	MyHistory(ctx context.Context, req *HistoryRequest) (*HistoryResponse, error)
	ListAll(ctx context.Context, req *HistoryRequest) (*HistoryResponse, error)
}

// ServiceDesc describes SessionService for grpc.ServiceRegistrar.
var ServiceDesc = rpc.Service(serviceName, (*SessionServiceServer)(nil),
	rpc.Unary(serviceName, "MyHistory", SessionServiceServer.MyHistory),
	rpc.Unary(serviceName, "ListAll", SessionServiceServer.ListAll),
)

// RegisterSessionServiceServer registers srv with s.
func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(ServiceDesc, srv)
}

// Server implements SessionServiceServer for reading the session audit trail.
type Server struct {
	log *session.AuditLog
}

// NewServer returns a new Session gRPC server. If log is nil, all RPCs return Unimplemented.
func NewServer(log *session.AuditLog) *Server {
	return &Server{log: log}
}

// MyHistory returns the caller's own login history.
func (s *Server) MyHistory(ctx context.Context, req *HistoryRequest) (*HistoryResponse, error) {
	if s.log == nil {
		return nil, status.Error(codes.Unimplemented, "method MyHistory not implemented")
	}
	entries, err := s.log.CurrentUserHistory(ctx)
	if err != nil {
		return nil, interceptors.ToStatus(err)
	}
	return toResponse(entries), nil
}

// ListAll returns the full session audit trail.
func (s *Server) ListAll(ctx context.Context, req *HistoryRequest) (*HistoryResponse, error) {
	if s.log == nil {
		return nil, status.Error(codes.Unimplemented, "method ListAll not implemented")
	}
	entries, err := s.log.ListAll(ctx)
	if err != nil {
		return nil, interceptors.ToStatus(err)
	}
	return toResponse(entries), nil
}

func toResponse(entries []*domain.Entry) *HistoryResponse {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, Entry{
			ID:             e.ID,
			Email:          e.Email,
			Role:           e.Role,
			EventTime:      e.EventTime,
			Kind:           string(e.Kind),
			Reason:         string(e.Reason),
			TokenIssuedAt:  e.TokenIssuedAt,
			TokenExpiresAt: e.TokenExpiresAt,
		})
	}
	return &HistoryResponse{Entries: out}
}
