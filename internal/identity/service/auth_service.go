package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"registration-backend/internal/apperr"
	identitydomain "registration-backend/internal/identity/domain"
	identityrepo "registration-backend/internal/identity/repository"
	"registration-backend/internal/platform/rbac"
	"registration-backend/internal/security"
	"registration-backend/internal/server/interceptors"
	sessiondomain "registration-backend/internal/session/domain"
	"registration-backend/internal/telemetry/metrics"
)

// Sentinel errors for auth service; both wrap apperr.ErrBadRequest so the transport maps them
// to InvalidArgument.
var (
	ErrEmailAlreadyRegistered = fmt.Errorf("%w: email already registered", apperr.ErrBadRequest)
	ErrInvalidCredentials     = fmt.Errorf("%w: invalid email or password", apperr.ErrBadRequest)
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token          string
	Role           identitydomain.Role
	ProfileCreated bool
	ExpiresAt      time.Time
	Greeting       sessiondomain.Greeting
}

// IdentityRepo is the minimal identity repository needed by the auth service.
type IdentityRepo interface {
	GetByEmail(ctx context.Context, email string) (*identitydomain.Identity, error)
	Create(ctx context.Context, i *identitydomain.Identity) error
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
}

// SessionAudit is the session audit surface used by the auth service. Implemented by *session.AuditLog.
type SessionAudit interface {
	RecordLogin(ctx context.Context, ident *identitydomain.Identity, token string, issuedAt, expiresAt time.Time)
	RecordLogout(ctx context.Context, ident *identitydomain.Identity, token string, issuedAt, expiresAt time.Time)
	RecordFailure(ctx context.Context, email string, reason sessiondomain.Reason)
	RecordPasswordChange(ctx context.Context, email string, role identitydomain.Role, reason sessiondomain.Reason)
	BuildGreeting(ctx context.Context, email string, currentLogin time.Time) sessiondomain.Greeting
}

// AuthService implements password register, login, logout and password change.
type AuthService struct {
	identityRepo IdentityRepo
	audit        SessionAudit
	hasher       *security.Hasher
	tokens       *security.TokenService
	now          func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(identityRepo IdentityRepo, audit SessionAudit, hasher *security.Hasher, tokens *security.TokenService) *AuthService {
	return &AuthService{
		identityRepo: identityRepo,
		audit:        audit,
		hasher:       hasher,
		tokens:       tokens,
		now:          time.Now,
	}
}

// Register creates an active identity with the given email, password and role. An empty role
// means USER. The new identity has no profile yet.
func (s *AuthService) Register(ctx context.Context, email, password string, role identitydomain.Role) (*identitydomain.Identity, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if role == "" {
		role = identitydomain.RoleUser
	}
	if !role.Assignable() {
		return nil, apperr.BadRequest("role %q cannot be registered", role)
	}
	existing, err := s.identityRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	ident := &identitydomain.Identity{
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := ident.Validate(); err != nil {
		return nil, apperr.BadRequest("%s", err.Error())
	}
	if err := s.identityRepo.Create(ctx, ident); err != nil {
		if errors.Is(err, identityrepo.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}
	return ident, nil
}

// Login checks the email, the password and the account status in that order, then issues a
// session token. Every failed step records its reason and returns ErrInvalidCredentials, so the
// client cannot tell which check failed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	ident, err := s.identityRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		s.hasher.Burn(password)
		return nil, s.loginFailed(ctx, email, sessiondomain.ReasonEmailNotFound)
	}
	if !s.hasher.Matches(ident.PasswordHash, password) {
		return nil, s.loginFailed(ctx, email, sessiondomain.ReasonInvalidPassword)
	}
	if !ident.Active {
		return nil, s.loginFailed(ctx, email, sessiondomain.ReasonUserDisabled)
	}

	token, issuedAt, expiresAt, err := s.tokens.Issue(ident.Email, ident.Role)
	if err != nil {
		return nil, err
	}
	s.audit.RecordLogin(ctx, ident, token, issuedAt, expiresAt)
	metrics.LoginAttempt(string(sessiondomain.ReasonLoginSuccess))

	return &LoginResult{
		Token:          token,
		Role:           ident.Role,
		ProfileCreated: ident.ProfileCreated,
		ExpiresAt:      expiresAt,
		Greeting:       s.audit.BuildGreeting(ctx, ident.Email, issuedAt),
	}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, email string, reason sessiondomain.Reason) error {
	s.audit.RecordFailure(ctx, email, reason)
	metrics.LoginAttempt(string(reason))
	return ErrInvalidCredentials
}

// Logout records a LOGOUT entry for the token's subject. An invalid or expired token, or a
// subject that no longer exists, is a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	ident, err := s.identityRepo.GetByEmail(ctx, claims.Subject)
	if err != nil {
		return err
	}
	if ident == nil {
		return nil
	}
	var issuedAt, expiresAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.UTC()
	}
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.UTC()
	}
	s.audit.RecordLogout(ctx, ident, token, issuedAt, expiresAt)
	return nil
}

// ChangePassword replaces the caller's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	caller, err := rbac.RequireCaller(ctx)
	if err != nil {
		return err
	}
	ident, err := s.identityRepo.GetByEmail(ctx, caller.Email)
	if err != nil {
		return err
	}
	if ident == nil {
		return apperr.NotFound("identity %s not found", caller.Email)
	}
	if !s.hasher.Matches(ident.PasswordHash, currentPassword) {
		s.audit.RecordPasswordChange(ctx, ident.Email, ident.Role, sessiondomain.ReasonInvalidCurrentPassword)
		return apperr.BadRequest("current password is incorrect")
	}
	if newPassword == currentPassword {
		s.audit.RecordPasswordChange(ctx, ident.Email, ident.Role, sessiondomain.ReasonSamePasswordReuse)
		return apperr.BadRequest("new password must differ from the current password")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.identityRepo.UpdatePasswordHash(ctx, ident.ID, hashed); err != nil {
		return err
	}
	s.audit.RecordPasswordChange(ctx, ident.Email, ident.Role, sessiondomain.ReasonPasswordChanged)
	return nil
}

// Authenticate validates a bearer token and returns the caller it names.
// Errors are security.ErrTokenExpired or security.ErrInvalidToken.
func (s *AuthService) Authenticate(ctx context.Context, token string) (interceptors.Caller, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return interceptors.Caller{}, err
	}
	return interceptors.Caller{Email: claims.Subject, Role: identitydomain.Role(claims.Role)}, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.BadRequest("email is required")
	}
	if !emailPattern.MatchString(email) {
		return apperr.BadRequest("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return apperr.BadRequest("password is required")
	}
	if len(password) > maxPasswordBytes {
		return apperr.BadRequest("password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}
