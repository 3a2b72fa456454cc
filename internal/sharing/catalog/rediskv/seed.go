package rediskv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// PutShare registers a share, overwriting its metadata if it already
// exists. Every member is added with score 0: ZRANGEBYLEX only orders
// members meaningfully when they share one score, which is all this
// package relies on it for.
func (c *Catalog) PutShare(ctx context.Context, id, name string) error {
	if err := c.rdb.ZAdd(ctx, sharesKey, redis.Z{Score: 0, Member: name}).Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(shareMeta{ID: id})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, fmt.Sprintf(shareMetaKeyFmt, name), raw, 0).Err()
}

// AllowRecipient adds recipient to a share's ACL set, making the share
// private (visible only to members) the moment the first entry is added.
func (c *Catalog) AllowRecipient(ctx context.Context, shareName, recipient string) error {
	return c.rdb.SAdd(ctx, fmt.Sprintf(shareAclKeyFmt, shareName), recipient).Err()
}

// PutSchema registers a schema under shareName.
func (c *Catalog) PutSchema(ctx context.Context, shareName, id, name string) error {
	if err := c.rdb.ZAdd(ctx, fmt.Sprintf(schemasKeyFmt, shareName), redis.Z{Score: 0, Member: name}).Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(schemaMeta{ID: id})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, fmt.Sprintf(schemaMetaFmt, shareName, name), raw, 0).Err()
}

// PutTable registers a table under shareName/schemaName pointing at
// location (an object-store URI) with the given Delta Sharing format.
func (c *Catalog) PutTable(ctx context.Context, shareName, schemaName, id, name, location, format string) error {
	if err := c.rdb.ZAdd(ctx, fmt.Sprintf(tablesKeyFmt, shareName, schemaName), redis.Z{Score: 0, Member: name}).Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(tableMeta{ID: id, Location: location, Format: format})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, fmt.Sprintf(tableMetaFmt, shareName, schemaName, name), raw, 0).Err()
}
