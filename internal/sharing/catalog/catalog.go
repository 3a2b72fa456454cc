// Package catalog defines the ShareReader contract: the read-only,
// entitlement-aware view over shares/schemas/tables that every catalog
// backend (YAML file, Postgres, Redis) implements identically.
package catalog

import (
	"context"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/apperr"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/model"
)

// Catalog answers "what is visible to this recipient?" and "where is this
// table stored?" — never more. Every method is filtered by an entitlement
// predicate derived from RecipientId; NotFound is returned only after
// confirming the recipient cannot see the entity, so that "absent" and
// "hidden" are indistinguishable to callers.
type Catalog interface {
	ListShares(ctx context.Context, recipient model.RecipientId, pagination model.Pagination) (model.Page[model.Share], *apperr.AppError)
	GetShare(ctx context.Context, recipient model.RecipientId, shareName string) (model.Share, *apperr.AppError)
	ListSchemas(ctx context.Context, recipient model.RecipientId, shareName string, pagination model.Pagination) (model.Page[model.Schema], *apperr.AppError)
	ListTablesInShare(ctx context.Context, recipient model.RecipientId, shareName string, pagination model.Pagination) (model.Page[model.Table], *apperr.AppError)
	ListTablesInSchema(ctx context.Context, recipient model.RecipientId, shareName, schemaName string, pagination model.Pagination) (model.Page[model.Table], *apperr.AppError)
	GetTable(ctx context.Context, recipient model.RecipientId, shareName, schemaName, tableName string) (model.Table, *apperr.AppError)
}

// HardResultCap bounds maxResults regardless of what the caller requests;
// reference backends in this repo all use the same cap.
const HardResultCap = 1000
