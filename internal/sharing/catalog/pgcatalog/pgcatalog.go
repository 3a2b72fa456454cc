// Package pgcatalog is the relational catalog backend: shares, schemas and
// tables stored as ordinary GORM rows, with entitlement expressed as rows in
// a separate ACL table rather than an in-memory allowlist. Grounded on the
// teacher's internal/database (GORM + postgres/glebarez-sqlite dual dialect,
// connect-with-retry) and internal/models (row-per-entity shape).
package pgcatalog

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/apperr"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/catalog"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/model"
)

// Catalog is the GORM-backed ShareReader.
type Catalog struct {
	db *gorm.DB
}

// Open connects to databaseURL (a postgres DSN) retrying startup races the
// way the teacher's db.Init does, then returns a ready Catalog.
func Open(databaseURL string) (*Catalog, error) {
	const maxAttempts = 30
	var gdb *gorm.DB
	var err error
	for i := 1; i <= maxAttempts; i++ {
		gdb, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("pgcatalog: connect: %w", err)
	}
	return &Catalog{db: gdb}, nil
}

// OpenSQLite opens an on-disk or in-memory sqlite database, for local runs
// and tests that don't need a real Postgres instance.
func OpenSQLite(path string) (*Catalog, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("pgcatalog: sqlite connect (%s): %w", path, err)
	}
	return &Catalog{db: gdb}, nil
}

// AutoMigrate creates/updates the catalog tables. Call once at startup.
func (c *Catalog) AutoMigrate() error {
	return c.db.AutoMigrate(&ShareRow{}, &SchemaRow{}, &TableRow{}, &AclRow{})
}

const visibilityClause = `NOT EXISTS (SELECT 1 FROM sharing_share_acls a WHERE a.share_id = sharing_shares.id)
	OR EXISTS (SELECT 1 FROM sharing_share_acls a WHERE a.share_id = sharing_shares.id AND a.recipient_id = ?)`

func (c *Catalog) visibleShares(recipient string) *gorm.DB {
	return c.db.Model(&ShareRow{}).Where(visibilityClause, recipient)
}

func encodeToken(scope, lastID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(scope + ":" + lastID))
}

func decodeToken(scope, token string) (string, *apperr.AppError) {
	if token == "" {
		return "", nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", apperr.BadPagination("page token could not be decoded")
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 || parts[0] != scope {
		return "", apperr.BadPagination("page token does not match this query")
	}
	return parts[1], nil
}

func (c *Catalog) ListShares(ctx context.Context, recipient model.RecipientId, pagination model.Pagination) (model.Page[model.Share], *apperr.AppError) {
	cursor, aerr := decodeToken("shares", pagination.PageToken)
	if aerr != nil {
		return model.Page[model.Share]{}, aerr
	}
	limit := pagination.Limit(catalog.HardResultCap)

	q := c.visibleShares(recipient.String()).WithContext(ctx).Order("id ASC")
	if cursor != "" {
		q = q.Where("id > ?", cursor)
	}

	var rows []ShareRow
	if err := q.Limit(int(limit) + 1).Find(&rows).Error; err != nil {
		return model.Page[model.Share]{}, apperr.InternalErr("failed to list shares", err)
	}

	return finishSharePage(rows, limit, "shares"), nil
}

func finishSharePage(rows []ShareRow, limit uint32, scope string) model.Page[model.Share] {
	more := uint32(len(rows)) > limit
	if more {
		rows = rows[:limit]
	}
	items := make([]model.Share, len(rows))
	for i, r := range rows {
		items[i] = model.Share{Name: r.Name, ID: r.ID}
	}
	page := model.Page[model.Share]{Items: items}
	if more {
		page.NextPageToken = encodeToken(scope, rows[len(rows)-1].ID)
	}
	return page
}

func (c *Catalog) GetShare(ctx context.Context, recipient model.RecipientId, shareName string) (model.Share, *apperr.AppError) {
	var row ShareRow
	err := c.visibleShares(recipient.String()).WithContext(ctx).Where("name = ?", shareName).First(&row).Error
	if err != nil {
		return model.Share{}, notFoundOrInternal(err, "share")
	}
	return model.Share{Name: row.Name, ID: row.ID}, nil
}

func (c *Catalog) shareRow(ctx context.Context, recipient model.RecipientId, shareName string) (ShareRow, *apperr.AppError) {
	var row ShareRow
	err := c.visibleShares(recipient.String()).WithContext(ctx).Where("name = ?", shareName).First(&row).Error
	if err != nil {
		return ShareRow{}, notFoundOrInternal(err, "share")
	}
	return row, nil
}

func (c *Catalog) ListSchemas(ctx context.Context, recipient model.RecipientId, shareName string, pagination model.Pagination) (model.Page[model.Schema], *apperr.AppError) {
	share, aerr := c.shareRow(ctx, recipient, shareName)
	if aerr != nil {
		return model.Page[model.Schema]{}, aerr
	}
	scope := "schemas:" + shareName
	cursor, aerr := decodeToken(scope, pagination.PageToken)
	if aerr != nil {
		return model.Page[model.Schema]{}, aerr
	}
	limit := pagination.Limit(catalog.HardResultCap)

	q := c.db.WithContext(ctx).Model(&SchemaRow{}).Where("share_id = ?", share.ID).Order("id ASC")
	if cursor != "" {
		q = q.Where("id > ?", cursor)
	}

	var rows []SchemaRow
	if err := q.Limit(int(limit) + 1).Find(&rows).Error; err != nil {
		return model.Page[model.Schema]{}, apperr.InternalErr("failed to list schemas", err)
	}

	more := uint32(len(rows)) > limit
	if more {
		rows = rows[:limit]
	}
	items := make([]model.Schema, len(rows))
	for i, r := range rows {
		items[i] = model.Schema{Name: r.Name, ShareName: shareName, ID: r.ID}
	}
	page := model.Page[model.Schema]{Items: items}
	if more {
		page.NextPageToken = encodeToken(scope, rows[len(rows)-1].ID)
	}
	return page, nil
}

func (c *Catalog) listTables(ctx context.Context, shareID, shareName string, schemaFilter string, pagination model.Pagination, scope string) (model.Page[model.Table], *apperr.AppError) {
	cursor, aerr := decodeToken(scope, pagination.PageToken)
	if aerr != nil {
		return model.Page[model.Table]{}, aerr
	}
	limit := pagination.Limit(catalog.HardResultCap)

	q := c.db.WithContext(ctx).Table("sharing_tables AS t").
		Select("t.id AS id, t.name AS name, t.storage_path AS storage_path, t.format AS format, s.id AS schema_id, s.name AS schema_name").
		Joins("JOIN sharing_schemas AS s ON s.id = t.schema_id").
		Where("s.share_id = ?", shareID).
		Order("t.id ASC")
	if schemaFilter != "" {
		q = q.Where("s.name = ?", schemaFilter)
	}
	if cursor != "" {
		q = q.Where("t.id > ?", cursor)
	}

	type row struct {
		ID          string
		Name        string
		StoragePath string
		Format      string
		SchemaID    string
		SchemaName  string
	}
	var rows []row
	if err := q.Limit(int(limit) + 1).Find(&rows).Error; err != nil {
		return model.Page[model.Table]{}, apperr.InternalErr("failed to list tables", err)
	}

	more := uint32(len(rows)) > limit
	if more {
		rows = rows[:limit]
	}
	items := make([]model.Table, len(rows))
	for i, r := range rows {
		items[i] = model.Table{
			Name:        r.Name,
			SchemaName:  r.SchemaName,
			ShareName:   shareName,
			StoragePath: r.StoragePath,
			ID:          r.ID,
			ShareID:     shareID,
			Format:      r.Format,
		}.WithDefaults()
	}
	page := model.Page[model.Table]{Items: items}
	if more {
		page.NextPageToken = encodeToken(scope, rows[len(rows)-1].ID)
	}
	return page, nil
}

func (c *Catalog) ListTablesInShare(ctx context.Context, recipient model.RecipientId, shareName string, pagination model.Pagination) (model.Page[model.Table], *apperr.AppError) {
	share, aerr := c.shareRow(ctx, recipient, shareName)
	if aerr != nil {
		return model.Page[model.Table]{}, aerr
	}
	return c.listTables(ctx, share.ID, shareName, "", pagination, "all-tables:"+shareName)
}

func (c *Catalog) ListTablesInSchema(ctx context.Context, recipient model.RecipientId, shareName, schemaName string, pagination model.Pagination) (model.Page[model.Table], *apperr.AppError) {
	share, aerr := c.shareRow(ctx, recipient, shareName)
	if aerr != nil {
		return model.Page[model.Table]{}, aerr
	}
	var count int64
	if err := c.db.WithContext(ctx).Model(&SchemaRow{}).Where("share_id = ? AND name = ?", share.ID, schemaName).Count(&count).Error; err != nil {
		return model.Page[model.Table]{}, apperr.InternalErr("failed to look up schema", err)
	}
	if count == 0 {
		return model.Page[model.Table]{}, apperr.Missing("schema")
	}
	return c.listTables(ctx, share.ID, shareName, schemaName, pagination, "tables:"+shareName+":"+schemaName)
}

func (c *Catalog) GetTable(ctx context.Context, recipient model.RecipientId, shareName, schemaName, tableName string) (model.Table, *apperr.AppError) {
	share, aerr := c.shareRow(ctx, recipient, shareName)
	if aerr != nil {
		return model.Table{}, apperr.Missing("table")
	}

	var schemaRow SchemaRow
	if err := c.db.WithContext(ctx).Where("share_id = ? AND name = ?", share.ID, schemaName).First(&schemaRow).Error; err != nil {
		return model.Table{}, apperr.Missing("table")
	}

	var tableRow TableRow
	if err := c.db.WithContext(ctx).Where("schema_id = ? AND name = ?", schemaRow.ID, tableName).First(&tableRow).Error; err != nil {
		return model.Table{}, apperr.Missing("table")
	}

	return model.Table{
		Name:        tableRow.Name,
		SchemaName:  schemaName,
		ShareName:   shareName,
		StoragePath: tableRow.StoragePath,
		ID:          tableRow.ID,
		ShareID:     share.ID,
		Format:      tableRow.Format,
	}.WithDefaults(), nil
}

func notFoundOrInternal(err error, resource string) *apperr.AppError {
	if err == gorm.ErrRecordNotFound {
		return apperr.Missing(resource)
	}
	return apperr.InternalErr("failed to look up "+resource, err)
}

var _ catalog.Catalog = (*Catalog)(nil)
