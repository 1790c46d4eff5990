package security

// testSecret signs tokens in unit tests only. Do not use in production.
const testSecret = "test-secret-for-unit-tests-only-0123456789"

// NewTestTokenService returns a TokenService with a fixed test secret and issuer "test-issuer".
// For unit tests only. Callers must not use in production.
func NewTestTokenService() *TokenService {
	return NewTokenService([]byte(testSecret), "test-issuer")
}
