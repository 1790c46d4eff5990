package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"registration-backend/internal/profile/domain"
	"registration-backend/internal/profile/service"
	"registration-backend/internal/server/interceptors"
	"registration-backend/internal/server/rpc"
)

const serviceName = "ProfileService"

type CreateProfileRequest struct {
	IdentityID int64  `json:"identityId"`
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
}

type Profile struct {
	ID         int64     `json:"id"`
	IdentityID int64     `json:"identityId"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ProfileServiceServer is the server API for ProfileService.
type ProfileServiceServer interface {
	CreateProfile(ctx context.Context, req *CreateProfileRequest) (*Profile, error)
}

// ServiceDesc describes ProfileService for grpc.ServiceRegistrar.
var ServiceDesc = rpc.Service(serviceName, (*ProfileServiceServer)(nil),
	rpc.Unary(serviceName, "CreateProfile", ProfileServiceServer.CreateProfile),
)

// RegisterProfileServiceServer registers srv with s.
func RegisterProfileServiceServer(s grpc.ServiceRegistrar, srv ProfileServiceServer) {
	s.RegisterService(ServiceDesc, srv)
}

// Server implements ProfileServiceServer.
type Server struct {
	profiles *service.ProfileService
}

// NewServer returns a new Profile gRPC server. If profiles is nil, every RPC returns Unimplemented.
func NewServer(profiles *service.ProfileService) *Server {
	return &Server{profiles: profiles}
}

// CreateProfile creates the profile for req.IdentityID.
func (s *Server) CreateProfile(ctx context.Context, req *CreateProfileRequest) (*Profile, error) {
	if s.profiles == nil {
		return nil, status.Error(codes.Unimplemented, "method CreateProfile not implemented")
	}
	p, err := s.profiles.CreateProfile(ctx, req.IdentityID, domain.Profile{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		return nil, interceptors.ToStatus(err)
	}
	return &Profile{
		ID:         p.ID,
		IdentityID: p.IdentityID,
		Name:       p.Name,
		Phone:      p.Phone,
		Address:    p.Address,
		CreatedAt:  p.CreatedAt,
	}, nil
}
