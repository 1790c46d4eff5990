package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"registration-backend/internal/audit"
	"registration-backend/internal/audit/domain"
	"registration-backend/internal/server/interceptors"
	"registration-backend/internal/server/rpc"
)

const serviceName = "AuditService"

// ListActionsRequest filters the action audit. Empty fields match everything. From and To must be
// set together and cannot be combined with the other filters.
type ListActionsRequest struct {
	ActionType string     `json:"actionType,omitempty"`
	Outcome    string     `json:"outcome,omitempty"`
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
}

type ActionEntry struct {
	ID           string    `json:"id"`
	ActorEmail   string    `json:"actorEmail"`
	ActorRole    string    `json:"actorRole"`
	TargetUserID *int64    `json:"targetUserId,omitempty"`
	TargetEmail  string    `json:"targetEmail,omitempty"`
	ActionType   string    `json:"actionType"`
	Outcome      string    `json:"outcome"`
	Reason       string    `json:"reason,omitempty"`
	BeforeState  string    `json:"beforeState,omitempty"`
	AfterState   string    `json:"afterState,omitempty"`
	PerformedAt  time.Time `json:"performedAt"`
}

type ListActionsResponse struct {
	Entries []ActionEntry `json:"entries"`
}

// AuditServiceServer is the server API for AuditService.
type AuditServiceServer interface {
	ListActions(ctx context.Context, req *ListActionsRequest) (*ListActionsResponse, error)
}

// ServiceDesc describes AuditService for grpc.ServiceRegistrar.
var ServiceDesc = rpc.Service(serviceName, (*AuditServiceServer)(nil),
	rpc.Unary(serviceName, "ListActions", AuditServiceServer.ListActions),
)

// RegisterAuditServiceServer registers srv with s.
func RegisterAuditServiceServer(s grpc.ServiceRegistrar, srv AuditServiceServer) {
	s.RegisterService(ServiceDesc, srv)
}

// Server implements AuditServiceServer over the action audit trail.
type Server struct {
	query *audit.QueryService
}

// NewServer returns a new Audit gRPC server. If query is nil, ListActions returns Unimplemented.
func NewServer(query *audit.QueryService) *Server {
	return &Server{query: query}
}

// ListActions returns action audit entries, newest first.
func (s *Server) ListActions(ctx context.Context, req *ListActionsRequest) (*ListActionsResponse, error) {
	if s.query == nil {
		return nil, status.Error(codes.Unimplemented, "method ListActions not implemented")
	}
	entries, err := s.list(ctx, req)
	if err != nil {
		return nil, interceptors.ToStatus(err)
	}
	out := make([]ActionEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntry(e))
	}
	return &ListActionsResponse{Entries: out}, nil
}

func (s *Server) list(ctx context.Context, req *ListActionsRequest) ([]*domain.ActionEntry, error) {
	if req.From != nil || req.To != nil {
		if req.From == nil || req.To == nil {
			return nil, status.Error(codes.InvalidArgument, "from and to must be set together")
		}
		if req.ActionType != "" || req.Outcome != "" {
			return nil, status.Error(codes.InvalidArgument, "time range cannot be combined with other filters")
		}
		return s.query.ByRange(ctx, *req.From, *req.To)
	}

	var (
		actionType domain.ActionType
		outcome    domain.Outcome
		ok         bool
	)
	if req.ActionType != "" {
		if actionType, ok = domain.ParseActionType(req.ActionType); !ok {
			return nil, status.Errorf(codes.InvalidArgument, "unknown action type %q", req.ActionType)
		}
	}
	if req.Outcome != "" {
		if outcome, ok = domain.ParseOutcome(req.Outcome); !ok {
			return nil, status.Errorf(codes.InvalidArgument, "unknown outcome %q", req.Outcome)
		}
	}

	switch {
	case actionType != "" && outcome != "":
		return s.query.ByTypeAndOutcome(ctx, actionType, outcome)
	case actionType != "":
		return s.query.ByType(ctx, actionType)
	case outcome != "":
		return s.query.ByOutcome(ctx, outcome)
	default:
		return s.query.All(ctx)
	}
}

func toEntry(e *domain.ActionEntry) ActionEntry {
	return ActionEntry{
		ID:           e.ID,
		ActorEmail:   e.ActorEmail,
		ActorRole:    e.ActorRole,
		TargetUserID: e.TargetUserID,
		TargetEmail:  e.TargetEmail,
		ActionType:   string(e.ActionType),
		Outcome:      string(e.Outcome),
		Reason:       e.Reason,
		BeforeState:  e.BeforeState,
		AfterState:   e.AfterState,
		PerformedAt:  e.PerformedAt,
	}
}
