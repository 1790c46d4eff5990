package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"registration-backend/internal/passwordreset/domain"
	"registration-backend/internal/passwordreset/service"
	"registration-backend/internal/server/interceptors"
	"registration-backend/internal/server/rpc"
)

const serviceName = "PasswordResetService"

type RaiseRequest struct {
	Email string `json:"email"`
}

type RequestID struct {
	ID int64 `json:"id"`
}

type ListRequest struct{}

// Request is the wire form of a reset request. Neither the temporary password nor its hash is sent.
type Request struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	Status         string     `json:"status"`
	ApprovedBy     string     `json:"approvedBy,omitempty"`
	RequestedAt    time.Time  `json:"requestedAt"`
	ApprovedAt     *time.Time `json:"approvedAt,omitempty"`
	PasswordSentAt *time.Time `json:"passwordSentAt,omitempty"`
	Remarks        string     `json:"remarks,omitempty"`
}

type ListResponse struct {
	Requests []Request `json:"requests"`
}

// PasswordResetServiceServer is the server API for PasswordResetService.
type PasswordResetServiceServer interface {
	Raise(ctx context.Context, req *RaiseRequest) (*Request, error)
	Accept(ctx context.Context, req *RequestID) (*Request, error)
	Send(ctx context.Context, req *RequestID) (*Request, error)
	List(ctx context.Context, req *ListRequest) (*ListResponse, error)
}

// ServiceDesc describes PasswordResetService for grpc.ServiceRegistrar.
var ServiceDesc = rpc.Service(serviceName, (*PasswordResetServiceServer)(nil),
	rpc.Unary(serviceName, "Raise", PasswordResetServiceServer.Raise),
	rpc.Unary(serviceName, "Accept", PasswordResetServiceServer.Accept),
	rpc.Unary(serviceName, "Send", PasswordResetServiceServer.Send),
	rpc.Unary(serviceName, "List", PasswordResetServiceServer.List),
)

// PublicMethods are reachable without a bearer token.
var PublicMethods = []string{
	rpc.FullMethod(serviceName, "Raise"),
}

// RegisterPasswordResetServiceServer registers srv with s.
func RegisterPasswordResetServiceServer(s grpc.ServiceRegistrar, srv PasswordResetServiceServer) {
	s.RegisterService(ServiceDesc, srv)
}

// Server implements PasswordResetServiceServer.
type Server struct {
	workflow *service.Workflow
}

// NewServer returns a new PasswordReset gRPC server. If workflow is nil, all RPCs return Unimplemented.
func NewServer(workflow *service.Workflow) *Server {
	return &Server{workflow: workflow}
}

func (s *Server) Raise(ctx context.Context, req *RaiseRequest) (*Request, error) {
	if s.workflow == nil {
		return nil, status.Error(codes.Unimplemented, "method Raise not implemented")
	}
	r, err := s.workflow.Raise(ctx, req.Email)
	if err != nil {
		return nil, interceptors.ToStatus(err)
	}
	return toRequest(r), nil
}

func (s *Server) Accept(ctx context.Context, req *RequestID) (*Request, error) {
	if s.workflow == nil {
		return nil, status.Error(codes.Unimplemented, "method Accept not implemented")
	}
	r, err := s.workflow.Accept(ctx, req.ID)
	if err != nil {
		return nil, interceptors.ToStatus(err)
	}
	return toRequest(r), nil
}

func (s *Server) Send(ctx context.Context, req *RequestID) (*Request, error) {
	if s.workflow == nil {
		return nil, status.Error(codes.Unimplemented, "method Send not implemented")
	}
	r, err := s.workflow.Send(ctx, req.ID)
	if err != nil {
		return nil, interceptors.ToStatus(err)
	}
	return toRequest(r), nil
}

func (s *Server) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	if s.workflow == nil {
		return nil, status.Error(codes.Unimplemented, "method List not implemented")
	}
	list, err := s.workflow.List(ctx)
	if err != nil {
		return nil, interceptors.ToStatus(err)
	}
	out := make([]Request, 0, len(list))
	for _, r := range list {
		out = append(out, *toRequest(r))
	}
	return &ListResponse{Requests: out}, nil
}

func toRequest(r *domain.Request) *Request {
	return &Request{
		ID:             r.ID,
		Email:          r.Email,
		Status:         string(r.Status),
		ApprovedBy:     r.ApprovedBy,
		RequestedAt:    r.RequestedAt,
		ApprovedAt:     r.ApprovedAt,
		PasswordSentAt: r.PasswordSentAt,
		Remarks:        r.Remarks,
	}
}
