package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"registration-backend/internal/admin/service"
	identitydomain "registration-backend/internal/identity/domain"
	"registration-backend/internal/server/interceptors"
	"registration-backend/internal/server/rpc"
)

const serviceName = "AdminService"

// Identity is the wire form of an identity. The password hash is never sent.
type Identity struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Active         bool      `json:"active"`
	ProfileCreated bool      `json:"profileCreated"`
	CreatedAt      time.Time `json:"createdAt"`
}

type ChangeRoleRequest struct {
	IdentityID int64  `json:"identityId"`
	Role       string `json:"role"`
}

type SetActiveRequest struct {
	IdentityID int64 `json:"identityId"`
	Active     bool  `json:"active"`
}

type DeleteProfileRequest struct {
	ProfileID int64 `json:"profileId"`
}

type DeleteProfileResponse struct{}

type ListIdentitiesRequest struct{}

type ListIdentitiesResponse struct {
	Identities []Identity `json:"identities"`
}

// AdminServiceServer is the server API for AdminService.
type AdminServiceServer interface {
	ChangeRole(ctx context.Context, req *ChangeRoleRequest) (*Identity, error)
	SetActive(ctx context.Context, req *SetActiveRequest) (*Identity, error)
	DeleteProfile(ctx context.Context, req *DeleteProfileRequest) (*DeleteProfileResponse, error)
	ListIdentities(ctx context.Context, req *ListIdentitiesRequest) (*ListIdentitiesResponse, error)
}

// ServiceDesc describes AdminService for grpc.ServiceRegistrar.
var ServiceDesc = rpc.Service(serviceName, (*AdminServiceServer)(nil),
	rpc.Unary(serviceName, "ChangeRole", AdminServiceServer.ChangeRole),
	rpc.Unary(serviceName, "SetActive", AdminServiceServer.SetActive),
	rpc.Unary(serviceName, "DeleteProfile", AdminServiceServer.DeleteProfile),
	rpc.Unary(serviceName, "ListIdentities", AdminServiceServer.ListIdentities),
)

// RegisterAdminServiceServer registers srv with s.
func RegisterAdminServiceServer(s grpc.ServiceRegistrar, srv AdminServiceServer) {
	s.RegisterService(ServiceDesc, srv)
}

// Server implements AdminServiceServer for privileged account operations.
type Server struct {
	admin *service.AdminService
}

// NewServer returns a new Admin gRPC server. If admin is nil, every RPC returns Unimplemented.
func NewServer(admin *service.AdminService) *Server {
	return &Server{admin: admin}
}

func (s *Server) ChangeRole(ctx context.Context, req *ChangeRoleRequest) (*Identity, error) {
	if s.admin == nil {
		return nil, status.Error(codes.Unimplemented, "method ChangeRole not implemented")
	}
	ident, err := s.admin.ChangeRoleNamed(ctx, req.IdentityID, req.Role)
	if err != nil {
		return nil, interceptors.ToStatus(err)
	}
	return toIdentity(ident), nil
}

func (s *Server) SetActive(ctx context.Context, req *SetActiveRequest) (*Identity, error) {
	if s.admin == nil {
		return nil, status.Error(codes.Unimplemented, "method SetActive not implemented")
	}
	ident, err := s.admin.SetActive(ctx, req.IdentityID, req.Active)
	if err != nil {
		return nil, interceptors.ToStatus(err)
	}
	return toIdentity(ident), nil
}

func (s *Server) DeleteProfile(ctx context.Context, req *DeleteProfileRequest) (*DeleteProfileResponse, error) {
	if s.admin == nil {
		return nil, status.Error(codes.Unimplemented, "method DeleteProfile not implemented")
	}
	if err := s.admin.DeleteProfile(ctx, req.ProfileID); err != nil {
		return nil, interceptors.ToStatus(err)
	}
	return &DeleteProfileResponse{}, nil
}

func (s *Server) ListIdentities(ctx context.Context, req *ListIdentitiesRequest) (*ListIdentitiesResponse, error) {
	if s.admin == nil {
		return nil, status.Error(codes.Unimplemented, "method ListIdentities not implemented")
	}
	list, err := s.admin.ListIdentities(ctx)
	if err != nil {
		return nil, interceptors.ToStatus(err)
	}
	out := make([]Identity, 0, len(list))
	for _, i := range list {
		out = append(out, *toIdentity(i))
	}
	return &ListIdentitiesResponse{Identities: out}, nil
}

func toIdentity(i *identitydomain.Identity) *Identity {
	return &Identity{
		ID:             i.ID,
		Email:          i.Email,
		Role:           i.Role.String(),
		Active:         i.Active,
		ProfileCreated: i.ProfileCreated,
		CreatedAt:      i.CreatedAt,
	}
}
