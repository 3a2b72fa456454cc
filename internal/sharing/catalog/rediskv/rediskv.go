// Package rediskv is the Redis-backed catalog: shares/schemas/tables are
// sorted-set members under composite keys. Shares and schemas are listed
// and paged with ZRANGEBYLEX; table listings read every member of the
// relevant sets and are paged in memory. Entitlement is a parallel set of
// recipient allowlists per share.
//
// Grounded on the teacher's controllers/security.go, the one place the
// teacher itself reaches for github.com/redis/go-redis/v9
// (redis.ParseURL + NewClient), generalised from a single Del call into a
// full catalog backend.
package rediskv

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/apperr"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/catalog"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/model"
)

// Catalog is the Redis-backed ShareReader.
type Catalog struct {
	rdb *redis.Client
}

// Open parses redisURL (redis://[:password@]host:port/db) and returns a
// ready Catalog. The connection is lazy: errors surface on first use.
func Open(redisURL string) (*Catalog, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("rediskv: parse url: %w", err)
	}
	return &Catalog{rdb: redis.NewClient(opts)}, nil
}

// Close releases the underlying connection pool.
func (c *Catalog) Close() error { return c.rdb.Close() }

const (
	sharesKey       = "sharing:shares"
	shareAclKeyFmt  = "sharing:share:%s:acl"   // set of recipient ids
	shareMetaKeyFmt = "sharing:share:%s:meta"  // hash: id
	schemasKeyFmt   = "sharing:schemas:%s"     // zset, member = schema name
	schemaMetaFmt   = "sharing:schema:%s:%s:meta"
	tablesKeyFmt    = "sharing:tables:%s:%s"   // zset, member = table name
	tableMetaFmt    = "sharing:table:%s:%s:%s:meta"
)

type tableMeta struct {
	ID       string `json:"id"`
	Location string `json:"location"`
	Format   string `json:"format"`
}

type schemaMeta struct {
	ID string `json:"id"`
}

type shareMeta struct {
	ID string `json:"id"`
}

// visible reports whether share is visible to recipient: public (no ACL
// set members) or the recipient is a member of the ACL set.
func (c *Catalog) visible(ctx context.Context, shareName, recipient string) (bool, error) {
	n, err := c.rdb.SCard(ctx, fmt.Sprintf(shareAclKeyFmt, shareName)).Result()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return true, nil
	}
	return c.rdb.SIsMember(ctx, fmt.Sprintf(shareAclKeyFmt, shareName), recipient).Result()
}

func encodeCursor(scope, member string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(scope + ":" + member))
}

func decodeCursor(scope, token string) (string, *apperr.AppError) {
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

// lexRange scans a zset of names in lexicographic order, starting strictly
// after `after` (empty means from the start), returning up to limit+1
// members so the caller can detect whether more remain.
func (c *Catalog) lexRange(ctx context.Context, key, after string, limit uint32) ([]string, error) {
	min := "-"
	if after != "" {
		min = "(" + after
	}
	return c.rdb.ZRangeByLex(ctx, key, &redis.ZRangeBy{
		Min:   min,
		Max:   "+",
		Count: int64(limit) + 1,
	}).Result()
}

func (c *Catalog) ListShares(ctx context.Context, recipient model.RecipientId, pagination model.Pagination) (model.Page[model.Share], *apperr.AppError) {
	cursor, aerr := decodeCursor("shares", pagination.PageToken)
	if aerr != nil {
		return model.Page[model.Share]{}, aerr
	}
	limit := pagination.Limit(catalog.HardResultCap)

	var items []model.Share
	after := cursor
	for uint32(len(items)) <= limit {
		names, err := c.lexRange(ctx, sharesKey, after, limit-uint32(len(items))+1)
		if err != nil {
			return model.Page[model.Share]{}, apperr.InternalErr("failed to scan shares", err)
		}
		if len(names) == 0 {
			break
		}
		for _, name := range names {
			after = name
			ok, err := c.visible(ctx, name, recipient.String())
			if err != nil {
				return model.Page[model.Share]{}, apperr.InternalErr("failed to check share visibility", err)
			}
			if !ok {
				continue
			}
			items = append(items, model.Share{Name: name, ID: c.shareID(ctx, name)})
			if uint32(len(items)) > limit {
				break
			}
		}
		if len(names) < int(limit)+1 {
			break
		}
	}

	more := uint32(len(items)) > limit
	if more {
		items = items[:limit]
	}
	page := model.Page[model.Share]{Items: items}
	if more {
		page.NextPageToken = encodeCursor("shares", items[len(items)-1].Name)
	}
	return page, nil
}

func (c *Catalog) shareID(ctx context.Context, name string) string {
	raw, err := c.rdb.Get(ctx, fmt.Sprintf(shareMetaKeyFmt, name)).Result()
	if err != nil || raw == "" {
		return ""
	}
	var meta shareMeta
	if json.Unmarshal([]byte(raw), &meta) != nil {
		return ""
	}
	return meta.ID
}

func (c *Catalog) GetShare(ctx context.Context, recipient model.RecipientId, shareName string) (model.Share, *apperr.AppError) {
	if _, err := c.rdb.ZScore(ctx, sharesKey, shareName).Result(); err != nil {
		return model.Share{}, apperr.Missing("share")
	}
	ok, err := c.visible(ctx, shareName, recipient.String())
	if err != nil {
		return model.Share{}, apperr.InternalErr("failed to check share visibility", err)
	}
	if !ok {
		return model.Share{}, apperr.Missing("share")
	}
	return model.Share{Name: shareName, ID: c.shareID(ctx, shareName)}, nil
}

func (c *Catalog) requireShare(ctx context.Context, recipient model.RecipientId, shareName string) *apperr.AppError {
	_, err := c.rdb.ZScore(ctx, sharesKey, shareName).Result()
	if err != nil {
		return apperr.Missing("share")
	}
	ok, verr := c.visible(ctx, shareName, recipient.String())
	if verr != nil {
		return apperr.InternalErr("failed to check share visibility", verr)
	}
	if !ok {
		return apperr.Missing("share")
	}
	return nil
}

func (c *Catalog) ListSchemas(ctx context.Context, recipient model.RecipientId, shareName string, pagination model.Pagination) (model.Page[model.Schema], *apperr.AppError) {
	if aerr := c.requireShare(ctx, recipient, shareName); aerr != nil {
		return model.Page[model.Schema]{}, aerr
	}
	scope := "schemas:" + shareName
	cursor, aerr := decodeCursor(scope, pagination.PageToken)
	if aerr != nil {
		return model.Page[model.Schema]{}, aerr
	}
	limit := pagination.Limit(catalog.HardResultCap)

	names, err := c.lexRange(ctx, fmt.Sprintf(schemasKeyFmt, shareName), cursor, limit)
	if err != nil {
		return model.Page[model.Schema]{}, apperr.InternalErr("failed to scan schemas", err)
	}
	more := uint32(len(names)) > limit
	if more {
		names = names[:limit]
	}

	items := make([]model.Schema, len(names))
	for i, name := range names {
		items[i] = model.Schema{Name: name, ShareName: shareName, ID: c.schemaID(ctx, shareName, name)}
	}
	page := model.Page[model.Schema]{Items: items}
	if more {
		page.NextPageToken = encodeCursor(scope, names[len(names)-1])
	}
	return page, nil
}

func (c *Catalog) schemaID(ctx context.Context, shareName, schemaName string) string {
	raw, err := c.rdb.Get(ctx, fmt.Sprintf(schemaMetaFmt, shareName, schemaName)).Result()
	if err != nil || raw == "" {
		return ""
	}
	var meta schemaMeta
	if json.Unmarshal([]byte(raw), &meta) != nil {
		return ""
	}
	return meta.ID
}

func (c *Catalog) tableAt(ctx context.Context, shareName, schemaName, tableName string) (model.Table, bool) {
	raw, err := c.rdb.Get(ctx, fmt.Sprintf(tableMetaFmt, shareName, schemaName, tableName)).Result()
	if err != nil || raw == "" {
		return model.Table{}, false
	}
	var meta tableMeta
	if json.Unmarshal([]byte(raw), &meta) != nil {
		return model.Table{}, false
	}
	return model.Table{
		Name:        tableName,
		SchemaName:  schemaName,
		ShareName:   shareName,
		StoragePath: meta.Location,
		ID:          meta.ID,
		Format:      meta.Format,
	}.WithDefaults(), true
}

func (c *Catalog) ListTablesInShare(ctx context.Context, recipient model.RecipientId, shareName string, pagination model.Pagination) (model.Page[model.Table], *apperr.AppError) {
	if aerr := c.requireShare(ctx, recipient, shareName); aerr != nil {
		return model.Page[model.Table]{}, aerr
	}

	schemaPage, aerr := c.ListSchemas(ctx, recipient, shareName, model.Pagination{MaxResults: uint32Ptr(catalog.HardResultCap)})
	if aerr != nil {
		return model.Page[model.Table]{}, aerr
	}

	var all []model.Table
	for _, sc := range schemaPage.Items {
		names, err := c.lexRange(ctx, fmt.Sprintf(tablesKeyFmt, shareName, sc.Name), "", catalog.HardResultCap)
		if err != nil {
			return model.Page[model.Table]{}, apperr.InternalErr("failed to scan tables", err)
		}
		for _, name := range names {
			if tbl, ok := c.tableAt(ctx, shareName, sc.Name, name); ok {
				all = append(all, tbl)
			}
		}
	}

	return paginateTables(all, "all-tables:"+shareName, pagination)
}

func (c *Catalog) ListTablesInSchema(ctx context.Context, recipient model.RecipientId, shareName, schemaName string, pagination model.Pagination) (model.Page[model.Table], *apperr.AppError) {
	if aerr := c.requireShare(ctx, recipient, shareName); aerr != nil {
		return model.Page[model.Table]{}, aerr
	}
	if _, err := c.rdb.ZScore(ctx, fmt.Sprintf(schemasKeyFmt, shareName), schemaName).Result(); err != nil {
		return model.Page[model.Table]{}, apperr.Missing("schema")
	}

	names, err := c.lexRange(ctx, fmt.Sprintf(tablesKeyFmt, shareName, schemaName), "", catalog.HardResultCap)
	if err != nil {
		return model.Page[model.Table]{}, apperr.InternalErr("failed to scan tables", err)
	}
	var all []model.Table
	for _, name := range names {
		if tbl, ok := c.tableAt(ctx, shareName, schemaName, name); ok {
			all = append(all, tbl)
		}
	}
	return paginateTables(all, "tables:"+shareName+":"+schemaName, pagination)
}

func paginateTables(all []model.Table, scope string, pagination model.Pagination) (model.Page[model.Table], *apperr.AppError) {
	cursor, aerr := decodeCursor(scope, pagination.PageToken)
	if aerr != nil {
		return model.Page[model.Table]{}, aerr
	}
	limit := pagination.Limit(catalog.HardResultCap)

	offset := 0
	if cursor != "" {
		for i, t := range all {
			if t.Name == cursor {
				offset = i + 1
				break
			}
		}
	}
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + int(limit)
	if end >= len(all) {
		return model.Page[model.Table]{Items: all[offset:]}, nil
	}
	page := model.Page[model.Table]{Items: all[offset:end]}
	page.NextPageToken = encodeCursor(scope, all[end-1].Name)
	return page, nil
}

func (c *Catalog) GetTable(ctx context.Context, recipient model.RecipientId, shareName, schemaName, tableName string) (model.Table, *apperr.AppError) {
	if aerr := c.requireShare(ctx, recipient, shareName); aerr != nil {
		return model.Table{}, apperr.Missing("table")
	}
	tbl, ok := c.tableAt(ctx, shareName, schemaName, tableName)
	if !ok {
		return model.Table{}, apperr.Missing("table")
	}
	return tbl, nil
}

func uint32Ptr(n uint32) *uint32 { return &n }

var _ catalog.Catalog = (*Catalog)(nil)
