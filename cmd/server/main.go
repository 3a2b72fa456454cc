package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/oreo-io/delta-sharing-server/internal/config"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/authn"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/catalog"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/catalog/fileshare"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/catalog/pgcatalog"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/catalog/rediskv"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/handler"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/reader"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/reader/deltalog"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/reader/localblob"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/signer"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/signer/gcs"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/signer/s3"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/state"
)

func main() {
	cfg := config.MustLoad()
	log.Printf("[main] starting delta sharing server on port %s (catalog backend: %s)", cfg.Port, cfg.CatalogBackend)

	cat, err := openCatalog(cfg)
	if err != nil {
		log.Fatalf("[main] failed to open catalog: %v", err)
	}

	registry := signer.NewRegistry()
	wireSigners(context.Background(), registry, cfg)

	store := localblob.New("/")
	readers := map[string]reader.TableReader{
		"DELTA": deltalog.New(store),
	}

	s := state.New(cat, readers, registry, cfg.SignedURLTTL)
	tokens := buildTokenStore(cfg)

	r := handler.SetupRouter(s, tokens)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Println("[main] shutdown signal received")
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%s", cfg.Port)
	if err := r.Run(addr); err != nil {
		log.Fatalf("[main] failed to start server: %v", err)
	}
}

// buildTokenStore layers a JWTTokenStore (when JWT_SECRET is configured)
// over the config-driven static bearer-token map, so deployments can mix
// long-lived static tokens with short-lived signed ones issued out of
// band.
func buildTokenStore(cfg *config.Config) authn.TokenStore {
	stores := authn.MultiTokenStore{authn.StaticTokenStore(cfg.BearerTokenMap())}
	if cfg.JWTSecret != "" {
		stores = append(stores, authn.NewJWTTokenStore([]byte(cfg.JWTSecret)))
	}
	return stores
}

func openCatalog(cfg *config.Config) (catalog.Catalog, error) {
	switch cfg.CatalogBackend {
	case "postgres":
		return pgcatalog.Open(cfg.DatabaseURL)
	case "redis":
		return rediskv.Open(cfg.RedisURL)
	default:
		return fileshare.Open(cfg.SharesFile)
	}
}

// wireSigners registers an object-store signer per scheme for which
// credentials were configured. Queries against a table whose storage path
// uses a scheme with no registered signer are rejected with
// UnsupportedOperation; only schemeless (local) paths pass through Noop.
func wireSigners(ctx context.Context, registry *signer.Registry, cfg *config.Config) {
	if cfg.AWSRegion != "" {
		if s3Signer, err := s3.New(ctx, cfg.AWSRegion); err != nil {
			log.Printf("[main] WARNING: s3 signer not available: %v", err)
		} else {
			registry.Register("s3", s3Signer)
		}
	}

	if cfg.GCSServiceAccount != "" && cfg.GCSPrivateKeyPath != "" {
		key, err := os.ReadFile(cfg.GCSPrivateKeyPath)
		if err != nil {
			log.Printf("[main] WARNING: gcs signer not available: %v", err)
		} else if gcsSigner, err := gcs.New(ctx, cfg.GCSServiceAccount, key); err != nil {
			log.Printf("[main] WARNING: gcs signer not available: %v", err)
		} else {
			registry.Register("gs", gcsSigner)
		}
	}

	// abfss:// support (internal/sharing/signer/azure) needs an account
	// name/key pair; wire it the same way once AZURE_STORAGE_ACCOUNT/
	// AZURE_STORAGE_KEY are set. Omitted by default since most local/dev
	// deployments run against s3/gs/file tables only.
}
