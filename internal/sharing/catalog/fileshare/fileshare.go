package fileshare

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/apperr"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/catalog"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/model"
)

// Catalog is the single-file, all-in-memory ShareReader backend.
type Catalog struct {
	mu   sync.RWMutex
	path string
	doc  document
}

// Open loads and parses the catalog file at path. The file is read once;
// re-open a new Catalog to pick up edits.
func Open(path string) (*Catalog, error) {
	c := &Catalog{path: path}
	if err := c.reload(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) reload() error {
	f, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("fileshare: open %s: %w", c.path, err)
	}
	defer f.Close()

	var doc document
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		return fmt.Errorf("fileshare: parse %s: %w", c.path, err)
	}

	c.mu.Lock()
	c.doc = doc
	c.mu.Unlock()
	return nil
}

// encodeToken binds an offset to the logical query it was produced for, so
// a token resubmitted against a different query is rejected rather than
// silently reinterpreted.
func encodeToken(queryKey string, offset int) string {
	raw := fmt.Sprintf("%s:%d", queryKey, offset)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeToken(queryKey, token string) (int, *apperr.AppError) {
	if token == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, apperr.BadPagination("page token could not be decoded")
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 || parts[0] != queryKey {
		return 0, apperr.BadPagination("page token does not match this query")
	}
	offset, err := strconv.Atoi(parts[1])
	if err != nil || offset < 0 {
		return 0, apperr.BadPagination("page token is malformed")
	}
	return offset, nil
}

func paginate[T any](items []T, queryKey string, p model.Pagination) (model.Page[T], *apperr.AppError) {
	offset, aerr := decodeToken(queryKey, p.PageToken)
	if aerr != nil {
		return model.Page[T]{}, aerr
	}
	if offset > len(items) {
		offset = len(items)
	}
	limit := int(p.Limit(catalog.HardResultCap))

	end := offset + limit
	if end >= len(items) {
		return model.Page[T]{Items: items[offset:]}, nil
	}
	return model.Page[T]{
		Items:         items[offset:end],
		NextPageToken: encodeToken(queryKey, end),
	}, nil
}

func (c *Catalog) ListShares(_ context.Context, recipient model.RecipientId, pagination model.Pagination) (model.Page[model.Share], *apperr.AppError) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var shares []model.Share
	for _, s := range c.doc.Shares {
		if !s.visibleTo(recipient.String()) {
			continue
		}
		shares = append(shares, model.Share{Name: s.Name, ID: s.ID})
	}
	sort.Slice(shares, func(i, j int) bool { return sortKey(shares[i].ID, shares[i].Name) < sortKey(shares[j].ID, shares[j].Name) })

	return paginate(shares, "shares", pagination)
}

func (c *Catalog) GetShare(_ context.Context, recipient model.RecipientId, shareName string) (model.Share, *apperr.AppError) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, s := range c.doc.Shares {
		if s.Name == shareName && s.visibleTo(recipient.String()) {
			return model.Share{Name: s.Name, ID: s.ID}, nil
		}
	}
	return model.Share{}, apperr.Missing("share")
}

func (c *Catalog) findShare(recipient string, shareName string) (shareEntry, bool) {
	for _, s := range c.doc.Shares {
		if s.Name == shareName && s.visibleTo(recipient) {
			return s, true
		}
	}
	return shareEntry{}, false
}

func (c *Catalog) ListSchemas(_ context.Context, recipient model.RecipientId, shareName string, pagination model.Pagination) (model.Page[model.Schema], *apperr.AppError) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	share, ok := c.findShare(recipient.String(), shareName)
	if !ok {
		return model.Page[model.Schema]{}, apperr.Missing("share")
	}

	var schemas []model.Schema
	for _, sc := range share.Schemas {
		schemas = append(schemas, model.Schema{Name: sc.Name, ShareName: share.Name, ID: sc.ID})
	}
	sort.Slice(schemas, func(i, j int) bool { return sortKey(schemas[i].ID, schemas[i].Name) < sortKey(schemas[j].ID, schemas[j].Name) })

	return paginate(schemas, "schemas:"+shareName, pagination)
}

func (c *Catalog) ListTablesInShare(_ context.Context, recipient model.RecipientId, shareName string, pagination model.Pagination) (model.Page[model.Table], *apperr.AppError) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	share, ok := c.findShare(recipient.String(), shareName)
	if !ok {
		return model.Page[model.Table]{}, apperr.Missing("share")
	}

	var tables []model.Table
	for _, sc := range share.Schemas {
		for _, t := range sc.Tables {
			tables = append(tables, toTable(share, sc, t))
		}
	}
	sort.Slice(tables, func(i, j int) bool { return sortKey(tables[i].ID, tables[i].Name) < sortKey(tables[j].ID, tables[j].Name) })

	return paginate(tables, "all-tables:"+shareName, pagination)
}

func (c *Catalog) ListTablesInSchema(_ context.Context, recipient model.RecipientId, shareName, schemaName string, pagination model.Pagination) (model.Page[model.Table], *apperr.AppError) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	share, ok := c.findShare(recipient.String(), shareName)
	if !ok {
		return model.Page[model.Table]{}, apperr.Missing("share")
	}
	for _, sc := range share.Schemas {
		if sc.Name != schemaName {
			continue
		}
		var tables []model.Table
		for _, t := range sc.Tables {
			tables = append(tables, toTable(share, sc, t))
		}
		sort.Slice(tables, func(i, j int) bool { return sortKey(tables[i].ID, tables[i].Name) < sortKey(tables[j].ID, tables[j].Name) })
		return paginate(tables, "tables:"+shareName+":"+schemaName, pagination)
	}
	return model.Page[model.Table]{}, apperr.Missing("schema")
}

func (c *Catalog) GetTable(_ context.Context, recipient model.RecipientId, shareName, schemaName, tableName string) (model.Table, *apperr.AppError) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	share, ok := c.findShare(recipient.String(), shareName)
	if !ok {
		return model.Table{}, apperr.Missing("table")
	}
	for _, sc := range share.Schemas {
		if sc.Name != schemaName {
			continue
		}
		for _, t := range sc.Tables {
			if t.Name == tableName {
				return toTable(share, sc, t), nil
			}
		}
	}
	return model.Table{}, apperr.Missing("table")
}

func toTable(share shareEntry, sc schemaEntry, t tableEntry) model.Table {
	return model.Table{
		Name:        t.Name,
		SchemaName:  sc.Name,
		ShareName:   share.Name,
		StoragePath: t.Location,
		ID:          t.ID,
		ShareID:     share.ID,
		Format:      t.Format,
	}.WithDefaults()
}

// sortKey prefers the opaque id when present, else falls back to name, so
// ordering is stable and total as spec.md §4.1 requires.
func sortKey(id, name string) string {
	if id != "" {
		return id
	}
	return name
}

var _ catalog.Catalog = (*Catalog)(nil)
