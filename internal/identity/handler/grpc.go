package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	identitydomain "registration-backend/internal/identity/domain"
	"registration-backend/internal/identity/service"
	"registration-backend/internal/server/interceptors"
	"registration-backend/internal/server/rpc"
)

const serviceName = "AuthService"

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type RegisterResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Greeting struct {
	Kind         string     `json:"kind"`
	Message      string     `json:"message"`
	LastLogoutAt *time.Time `json:"lastLogoutAt,omitempty"`
	Elapsed      string     `json:"elapsed,omitempty"`
}

type LoginResponse struct {
	Token          string    `json:"token"`
	Role           string    `json:"role"`
	ProfileCreated bool      `json:"profileCreated"`
	ExpiresAt      time.Time `json:"expiresAt"`
	Greeting       Greeting  `json:"greeting"`
}

// LogoutRequest is empty; the session token is read from the authorization metadata.
type LogoutRequest struct{}

type LogoutResponse struct{}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type ChangePasswordResponse struct{}

// AuthServiceServer is the server API for AuthService.
type AuthServiceServer interface {
	Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, req *LogoutRequest) (*LogoutResponse, error)
	ChangePassword(ctx context.Context, req *ChangePasswordRequest) (*ChangePasswordResponse, error)
}

// ServiceDesc describes AuthService for grpc.ServiceRegistrar.
var ServiceDesc = rpc.Service(serviceName, (*AuthServiceServer)(nil),
	rpc.Unary(serviceName, "Register", AuthServiceServer.Register),
	rpc.Unary(serviceName, "Login", AuthServiceServer.Login),
	rpc.Unary(serviceName, "Logout", AuthServiceServer.Logout),
	rpc.Unary(serviceName, "ChangePassword", AuthServiceServer.ChangePassword),
)

// PublicMethods are the AuthService methods callable without a bearer token. Logout is public so
// an expired token can still end its session.
var PublicMethods = []string{
	rpc.FullMethod(serviceName, "Register"),
	rpc.FullMethod(serviceName, "Login"),
	rpc.FullMethod(serviceName, "Logout"),
}

// RegisterAuthServiceServer registers srv with s.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(ServiceDesc, srv)
}

// AuthServer implements AuthServiceServer for registration, login, logout and password change.
type AuthServer struct {
	auth *service.AuthService
}

// NewAuthServer returns a new Auth gRPC server. If auth is nil, every RPC returns Unimplemented.
func NewAuthServer(auth *service.AuthService) *AuthServer {
	return &AuthServer{auth: auth}
}

func (s *AuthServer) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "method Register not implemented")
	}
	var role identitydomain.Role
	if req.Role != "" {
		r, err := identitydomain.ParseRole(req.Role)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "unknown role")
		}
		role = r
	}
	ident, err := s.auth.Register(ctx, req.Email, req.Password, role)
	if err != nil {
		return nil, interceptors.ToStatus(err)
	}
	return &RegisterResponse{ID: ident.ID, Email: ident.Email, Role: ident.Role.String()}, nil
}

func (s *AuthServer) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "method Login not implemented")
	}
	res, err := s.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, interceptors.ToStatus(err)
	}
	return &LoginResponse{
		Token:          res.Token,
		Role:           res.Role.String(),
		ProfileCreated: res.ProfileCreated,
		ExpiresAt:      res.ExpiresAt,
		Greeting: Greeting{
			Kind:         string(res.Greeting.Kind),
			Message:      res.Greeting.Message,
			LastLogoutAt: res.Greeting.LastLogoutAt,
			Elapsed:      res.Greeting.Elapsed,
		},
	}, nil
}

// Logout records the end of the session named by the bearer token. A missing or invalid token
// still succeeds.
func (s *AuthServer) Logout(ctx context.Context, req *LogoutRequest) (*LogoutResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "method Logout not implemented")
	}
	token := interceptors.BearerToken(ctx)
	if token == "" {
		return &LogoutResponse{}, nil
	}
	if err := s.auth.Logout(ctx, token); err != nil {
		return nil, interceptors.ToStatus(err)
	}
	return &LogoutResponse{}, nil
}

func (s *AuthServer) ChangePassword(ctx context.Context, req *ChangePasswordRequest) (*ChangePasswordResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "method ChangePassword not implemented")
	}
	if err := s.auth.ChangePassword(ctx, req.CurrentPassword, req.NewPassword); err != nil {
		return nil, interceptors.ToStatus(err)
	}
	return &ChangePasswordResponse{}, nil
}
