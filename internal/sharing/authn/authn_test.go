package authn

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/model"
)

func init() { gin.SetMode(gin.TestMode) }

func runMiddleware(store TokenStore, authHeader string) model.RecipientId {
	rec := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(rec)
	engine.Use(Middleware(store))
	var got model.RecipientId
	engine.GET("/", func(c *gin.Context) { got = Recipient(c) })
	c.Request = httptest.NewRequest("GET", "/", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}
	engine.HandleContext(c)
	return got
}

func TestMiddlewareDefaultsToAnonymous(t *testing.T) {
	got := runMiddleware(StaticTokenStore{}, "")
	if !got.IsAnonymous() {
		t.Fatalf("expected Anonymous, got %v", got)
	}
}

func TestMiddlewareResolvesKnownToken(t *testing.T) {
	store := StaticTokenStore{"tok-abc": "recipient-1"}
	got := runMiddleware(store, "Bearer tok-abc")
	if got.IsAnonymous() || got.ID() != "recipient-1" {
		t.Fatalf("expected recipient-1, got %v", got)
	}
}

func TestMiddlewareIgnoresUnknownToken(t *testing.T) {
	store := StaticTokenStore{"tok-abc": "recipient-1"}
	got := runMiddleware(store, "Bearer not-a-real-token")
	if !got.IsAnonymous() {
		t.Fatalf("expected Anonymous for unrecognized token, got %v", got)
	}
}

func TestMiddlewareIgnoresNonBearerHeader(t *testing.T) {
	store := StaticTokenStore{"tok-abc": "recipient-1"}
	got := runMiddleware(store, "Basic dXNlcjpwYXNz")
	if !got.IsAnonymous() {
		t.Fatalf("expected Anonymous for a non-Bearer scheme, got %v", got)
	}
}
