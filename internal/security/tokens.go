package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"registration-backend/internal/identity/domain"
)

// SessionTTL is the fixed lifetime of a session token, measured from issuance.
const SessionTTL = 12 * time.Hour

var (
	// ErrInvalidToken is returned when a token is malformed, its signature does not verify,
	// or a required claim is absent.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a correctly signed token is past its expiry. Callers prompt
	// for a new login instead of rejecting outright.
	ErrTokenExpired = errors.New("token expired")
)

// SessionClaims holds the JWT claims of a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenService issues and validates HS256 session tokens signed with a server-held secret.
// It keeps no state beyond its configuration and is safe for concurrent use.
type TokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenService returns a TokenService that signs with secret and stamps issuer on every token.
func NewTokenService(secret []byte, issuer string) *TokenService {
	return &TokenService{
		secret: secret,
		issuer: issuer,
		now:    time.Now,
	}
}

// WithClock returns a copy of s that reads the current time from now. Used by tests to issue
// tokens in the past.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	c := *s
	c.now = now
	return &c
}

// Issue signs a session token for email and role. issuedAt and expiresAt are the exact (second
// precision, UTC) values carried in the token; expiresAt is issuedAt + SessionTTL.
func (s *TokenService) Issue(email string, role domain.Role) (token string, issuedAt, expiresAt time.Time, err error) {
	if strings.TrimSpace(email) == "" || !role.Valid() {
		return "", time.Time{}, time.Time{}, ErrInvalidToken
	}
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	issuedAt = s.now().UTC().Truncate(time.Second)
	expiresAt = issuedAt.Add(SessionTTL)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   email,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: string(role),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	return token, issuedAt, expiresAt, nil
}

// Parse verifies the signature, issuer and expiry of token and returns its claims.
// Returns ErrTokenExpired for an expired but otherwise valid token and ErrInvalidToken for anything else.
func (s *TokenService) Parse(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if _, err := domain.ParseRole(claims.Role); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Subject returns the email the token was issued to.
func (s *TokenService) Subject(token string) (string, error) {
	c, err := s.Parse(token)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

// Role returns the role claim of the token.
func (s *TokenService) Role(token string) (domain.Role, error) {
	c, err := s.Parse(token)
	if err != nil {
		return "", err
	}
	return domain.Role(c.Role), nil
}

// IssuedAt returns the iat claim. A token without iat is invalid.
func (s *TokenService) IssuedAt(token string) (time.Time, error) {
	c, err := s.Parse(token)
	if err != nil {
		return time.Time{}, err
	}
	if c.IssuedAt == nil {
		return time.Time{}, ErrInvalidToken
	}
	return c.IssuedAt.UTC(), nil
}

// ExpiresAt returns the exp claim.
func (s *TokenService) ExpiresAt(token string) (time.Time, error) {
	c, err := s.Parse(token)
	if err != nil {
		return time.Time{}, err
	}
	if c.ExpiresAt == nil {
		return time.Time{}, ErrInvalidToken
	}
	return c.ExpiresAt.UTC(), nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
