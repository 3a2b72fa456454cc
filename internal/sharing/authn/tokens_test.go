package authn

import (
	"testing"
	"time"
)

func TestHashSecretRoundTrips(t *testing.T) {
	hash, err := HashSecret("s3cr3t")
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	if !VerifySecret(hash, "s3cr3t") {
		t.Fatal("expected VerifySecret to accept the original secret")
	}
	if VerifySecret(hash, "wrong") {
		t.Fatal("expected VerifySecret to reject a wrong secret")
	}
}

func TestHashedTokenStoreResolvesKnownKey(t *testing.T) {
	hash, err := HashSecret("s3cr3t")
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	store := HashedTokenStore{
		"key1": {RecipientID: "acme", SecretHash: hash},
	}

	id, ok := store.RecipientForToken("key1.s3cr3t")
	if !ok || id != "acme" {
		t.Fatalf("got (%q, %v), want (\"acme\", true)", id, ok)
	}

	if _, ok := store.RecipientForToken("key1.wrong"); ok {
		t.Fatal("expected wrong secret to be rejected")
	}
	if _, ok := store.RecipientForToken("unknownkey.s3cr3t"); ok {
		t.Fatal("expected unknown keyID to be rejected")
	}
	if _, ok := store.RecipientForToken("no-dot-here"); ok {
		t.Fatal("expected malformed token to be rejected")
	}
}

func TestJWTTokenStoreIssueAndVerify(t *testing.T) {
	store := NewJWTTokenStore([]byte("test-signing-secret"))

	token, err := store.IssueToken("acme", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	id, ok := store.RecipientForToken(token)
	if !ok || id != "acme" {
		t.Fatalf("got (%q, %v), want (\"acme\", true)", id, ok)
	}
}

func TestJWTTokenStoreRejectsExpiredToken(t *testing.T) {
	store := NewJWTTokenStore([]byte("test-signing-secret"))

	token, err := store.IssueToken("acme", -time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if _, ok := store.RecipientForToken(token); ok {
		t.Fatal("expected an already-expired token to be rejected")
	}
}

func TestJWTTokenStoreRejectsForeignSecret(t *testing.T) {
	issuer := NewJWTTokenStore([]byte("secret-a"))
	verifier := NewJWTTokenStore([]byte("secret-b"))

	token, err := issuer.IssueToken("acme", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if _, ok := verifier.RecipientForToken(token); ok {
		t.Fatal("expected a token signed with a different secret to be rejected")
	}
}

func TestMultiTokenStoreTriesEachInOrder(t *testing.T) {
	jwtStore := NewJWTTokenStore([]byte("test-signing-secret"))
	token, err := jwtStore.IssueToken("jwt-recipient", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	multi := MultiTokenStore{
		StaticTokenStore{"static-token": "static-recipient"},
		jwtStore,
	}

	if id, ok := multi.RecipientForToken("static-token"); !ok || id != "static-recipient" {
		t.Fatalf("got (%q, %v), want (\"static-recipient\", true)", id, ok)
	}
	if id, ok := multi.RecipientForToken(token); !ok || id != "jwt-recipient" {
		t.Fatalf("got (%q, %v), want (\"jwt-recipient\", true)", id, ok)
	}
	if _, ok := multi.RecipientForToken("garbage"); ok {
		t.Fatal("expected an unrecognized token to be rejected")
	}
}
