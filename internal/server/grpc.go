package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	adminhandler "registration-backend/internal/admin/handler"
	adminservice "registration-backend/internal/admin/service"
	"registration-backend/internal/audit"
	audithandler "registration-backend/internal/audit/handler"
	devhandler "registration-backend/internal/devreset/handler"
	healthhandler "registration-backend/internal/health/handler"
	identityhandler "registration-backend/internal/identity/handler"
	identityservice "registration-backend/internal/identity/service"
	resethandler "registration-backend/internal/passwordreset/handler"
	resetservice "registration-backend/internal/passwordreset/service"
	profilehandler "registration-backend/internal/profile/handler"
	profileservice "registration-backend/internal/profile/service"
	"registration-backend/internal/server/interceptors"
	"registration-backend/internal/session"
	sessionhandler "registration-backend/internal/session/handler"
)

// Deps holds optional service dependencies for gRPC handlers. A nil service leaves its RPCs
// registered but returning Unimplemented.
type Deps struct {
	Auth          *identityservice.AuthService
	Admin         *adminservice.AdminService
	Profiles      *profileservice.ProfileService
	PasswordReset *resetservice.Workflow
	SessionAudit  *session.AuditLog
	ActionAudit   *audit.QueryService
	// HealthPinger is used by the health service for readiness (e.g. *sql.DB). If nil, the DB ping is skipped.
	HealthPinger healthhandler.Pinger
	// HealthPolicyChecker is used by the health service for readiness (e.g. the OPA evaluator). If nil, the policy check is skipped.
	HealthPolicyChecker healthhandler.PolicyChecker
	// DevHandler is the dev-only DevService (GetTempPassword). If nil, DevService is not registered.
	DevHandler devhandler.DevServiceServer
}

// RegisterServices registers all gRPC services with the given server.
//
// Service → handler mapping:
//   - AuthService          → internal/identity/handler
//   - AdminService         → internal/admin/handler
//   - ProfileService       → internal/profile/handler
//   - PasswordResetService → internal/passwordreset/handler
//   - SessionService       → internal/session/handler
//   - AuditService         → internal/audit/handler
//   - grpc.health.v1.Health → internal/health/handler
//   - DevService           → internal/devreset/handler (dev only)
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	identityhandler.RegisterAuthServiceServer(s, identityhandler.NewAuthServer(deps.Auth))
	adminhandler.RegisterAdminServiceServer(s, adminhandler.NewServer(deps.Admin))
	profilehandler.RegisterProfileServiceServer(s, profilehandler.NewServer(deps.Profiles))
	resethandler.RegisterPasswordResetServiceServer(s, resethandler.NewServer(deps.PasswordReset))
	sessionhandler.RegisterSessionServiceServer(s, sessionhandler.NewServer(deps.SessionAudit))
	audithandler.RegisterAuditServiceServer(s, audithandler.NewServer(deps.ActionAudit))
	healthpb.RegisterHealthServer(s, healthhandler.NewServer(deps.HealthPinger, deps.HealthPolicyChecker))
	if deps.DevHandler != nil {
		devhandler.RegisterDevServiceServer(s, deps.DevHandler)
	}
}

// PublicMethods returns the full method names that do not require a bearer token.
func PublicMethods() map[string]bool {
	public := map[string]bool{
		healthpb.Health_Check_FullMethodName: true,
	}
	for _, m := range identityhandler.PublicMethods {
		public[m] = true
	}
	for _, m := range resethandler.PublicMethods {
		public[m] = true
	}
	for _, m := range devhandler.PublicMethods {
		public[m] = true
	}
	return public
}

// NewServer returns a gRPC server with authentication, error mapping and OpenTelemetry
// instrumentation, with every service registered.
func NewServer(deps Deps, tokens interceptors.TokenParser, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.AuthUnary(tokens, PublicMethods()),
			interceptors.ErrorUnary(),
		),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterServices(s, deps)
	return s
}
