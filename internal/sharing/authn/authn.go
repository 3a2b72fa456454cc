// Package authn resolves the bearer token on an inbound request into a
// model.RecipientId, the way original_source's src/auth/mod.rs inserts a
// ClientId extension on every request (there: always Anonymous — bearer
// token checking is left to callers). Generalized here into an actual
// bearer-token lookup, grounded on the teacher's internal/handlers/auth.go
// JWT/bcrypt idiom, adapted from password login to static recipient
// tokens since Delta Sharing recipients authenticate with a long-lived
// bearer token, not a username/password session.
package authn

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/model"
)

// recipientKey is the gin.Context key the middleware stores the resolved
// RecipientId under.
const recipientKey = "sharing_recipient_id"

// TokenStore resolves a bearer token to a recipient id. Implementations
// may back this with a config file, a database table or a static map;
// token comparison is the implementation's responsibility.
type TokenStore interface {
	RecipientForToken(token string) (id string, ok bool)
}

// StaticTokenStore is a TokenStore backed by a fixed token-to-recipient
// map, suitable for config-driven deployments (SHARING_BEARER_TOKENS env,
// see internal/config).
type StaticTokenStore map[string]string

func (s StaticTokenStore) RecipientForToken(token string) (string, bool) {
	id, ok := s[token]
	return id, ok
}

// Middleware resolves the Authorization: Bearer header against store and
// stashes the resulting RecipientId (model.Anonymous when the header is
// absent or the token is unrecognized — neither case is an error:
// recipients may be anonymous by design) on the context for handlers to
// read via Recipient.
func Middleware(store TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(recipientKey, model.Anonymous)

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}

		if id, ok := store.RecipientForToken(token); ok {
			c.Set(recipientKey, model.KnownRecipient(id))
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// Recipient reads the RecipientId the middleware stashed on c, defaulting
// to Anonymous if Middleware was never installed.
func Recipient(c *gin.Context) model.RecipientId {
	v, ok := c.Get(recipientKey)
	if !ok {
		return model.Anonymous
	}
	id, ok := v.(model.RecipientId)
	if !ok {
		return model.Anonymous
	}
	return id
}
