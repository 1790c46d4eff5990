package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminservice "registration-backend/internal/admin/service"
	"registration-backend/internal/audit"
	auditrepo "registration-backend/internal/audit/repository"
	"registration-backend/internal/config"
	"registration-backend/internal/db"
	"registration-backend/internal/devreset"
	devhandler "registration-backend/internal/devreset/handler"
	healthhandler "registration-backend/internal/health/handler"
	identityrepo "registration-backend/internal/identity/repository"
	identityservice "registration-backend/internal/identity/service"
	resetrepo "registration-backend/internal/passwordreset/repository"
	resetservice "registration-backend/internal/passwordreset/service"
	"registration-backend/internal/policy/engine"
	policyrepo "registration-backend/internal/policy/repository"
	profilerepo "registration-backend/internal/profile/repository"
	profileservice "registration-backend/internal/profile/service"
	"registration-backend/internal/security"
	"registration-backend/internal/server"
	"registration-backend/internal/session"
	sessionrepo "registration-backend/internal/session/repository"
	"registration-backend/internal/telemetry/metrics"
	"registration-backend/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx := context.Background()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	providers, err := otel.NewProviders(ctx, cfg.OTelEndpoint, otel.ServiceName, cfg.OTelInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("otel: shutdown: %v", err)
		}
	}()

	metrics.Init()
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Printf("metrics listening on %s", cfg.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics: serve: %v", err)
			}
		}()
	}

	authz, err := engine.New(ctx, cfg.PolicyEngine, policyrepo.NewPostgresRepository(database))
	if err != nil {
		log.Fatalf("policy engine: %v", err)
	}
	log.Printf("policy engine: %s", cfg.PolicyEngine)

	tokens := security.NewTokenService([]byte(cfg.JWTSecret), cfg.JWTIssuer)
	hasher := security.NewHasher(cfg.BcryptCost)
	identities := identityrepo.NewPostgresRepository(database)
	profiles := profilerepo.NewPostgresRepository(database)

	sessionLog := session.NewAuditLog(sessionrepo.NewPostgresRepository(database), authz)
	actionRepo := auditrepo.NewPostgresRepository(database)
	actionLog := audit.NewLogger(actionRepo, otel.NewActionMirror(providers.LoggerProvider))

	var deliverer resetservice.Deliverer
	var devServer devhandler.DevServiceServer
	if cfg.DevDeliveryEnabled() {
		store := devreset.NewMemoryStore(devreset.DefaultTTL)
		deliverer = store
		devServer = devhandler.NewServer(store)
		log.Println("dev reset delivery enabled: temporary passwords readable via DevService")
	}

	deps := server.Deps{
		Auth:          identityservice.NewAuthService(identities, sessionLog, hasher, tokens),
		Admin:         adminservice.NewAdminService(identities, profiles, authz, actionLog),
		Profiles:      profileservice.NewProfileService(identities, profiles, authz, actionLog),
		PasswordReset: resetservice.NewWorkflow(identities, resetrepo.NewPostgresRepository(database), hasher, authz, actionLog, deliverer),
		SessionAudit:  sessionLog,
		ActionAudit:   audit.NewQueryService(actionRepo, authz),
		HealthPinger:  database,
		DevHandler:    devServer,
	}
	if checker, ok := authz.(healthhandler.PolicyChecker); ok {
		deps.HealthPolicyChecker = checker
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	s := server.NewServer(deps, tokens)

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := s.Serve(lis); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down gRPC server...")
	s.GracefulStop()
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("metrics: shutdown: %v", err)
		}
	}
	log.Println("gRPC server stopped")
}
