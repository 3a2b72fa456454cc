// Token issuance and hashed-secret verification, grounded on the
// teacher's internal/handlers/auth.go hashPassword/checkPassword and
// Login JWT issuance — adapted from per-user login sessions to
// per-recipient API tokens.
package authn

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// HashSecret bcrypt-hashes the secret half of a "<keyID>.<secret>" bearer
// token, the way the teacher hashes a user's password before storing it.
func HashSecret(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(b), err
}

// VerifySecret reports whether secret matches a hash produced by HashSecret.
func VerifySecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// HashedTokenEntry pairs a recipient with the bcrypt hash of its token's
// secret half.
type HashedTokenEntry struct {
	RecipientID string
	SecretHash  string
}

// HashedTokenStore resolves "<keyID>.<secret>" bearer tokens keyed by
// keyID, comparing the secret against a stored bcrypt hash rather than a
// plaintext map lookup — for deployments that don't want raw recipient
// tokens sitting in config or a database row.
type HashedTokenStore map[string]HashedTokenEntry

func (s HashedTokenStore) RecipientForToken(token string) (string, bool) {
	keyID, secret, ok := splitAPIKey(token)
	if !ok {
		return "", false
	}
	entry, ok := s[keyID]
	if !ok || !VerifySecret(entry.SecretHash, secret) {
		return "", false
	}
	return entry.RecipientID, true
}

func splitAPIKey(token string) (keyID, secret string, ok bool) {
	i := strings.IndexByte(token, '.')
	if i <= 0 || i == len(token)-1 {
		return "", "", false
	}
	return token[:i], token[i+1:], true
}

// JWTTokenStore issues and verifies signed, expiring bearer tokens,
// grounded on the teacher's Login/AuthMiddleware HS256 session tokens —
// here the subject is a recipient id rather than a user id, and there is
// no cookie: the token is the bearer credential itself.
type JWTTokenStore struct {
	secret []byte
}

func NewJWTTokenStore(secret []byte) *JWTTokenStore {
	return &JWTTokenStore{secret: secret}
}

// IssueToken signs a token for recipientID that expires after ttl.
func (s *JWTTokenStore) IssueToken(recipientID string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": recipientID,
		"exp": time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTTokenStore) RecipientForToken(token string) (string, bool) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", false
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", false
	}
	return sub, true
}

// MultiTokenStore tries each store in order, returning the first match —
// used to layer a JWTTokenStore over a config-driven StaticTokenStore
// without either implementation knowing about the other.
type MultiTokenStore []TokenStore

func (m MultiTokenStore) RecipientForToken(token string) (string, bool) {
	for _, s := range m {
		if id, ok := s.RecipientForToken(token); ok {
			return id, true
		}
	}
	return "", false
}
