package fileshare

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/apperr"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/model"
)

const testDoc = `
shares:
  - name: share1
    id: share1-id
    schemas:
      - name: schema1
        id: schema1-id
        tables:
          - name: table1
            location: s3://bucket/table1
            id: table1-id
          - name: table2
            location: s3://bucket/table2
            id: table2-id
  - name: private-share
    id: private-id
    recipients: [alice]
    schemas:
      - name: schema1
        id: private-schema-id
        tables: []
`

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "shares.yaml")
	if err := os.WriteFile(path, []byte(testDoc), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	cat, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return cat
}

func TestListSharesFiltersByRecipient(t *testing.T) {
	cat := openTestCatalog(t)
	ctx := context.Background()

	anon, aerr := cat.ListShares(ctx, model.Anonymous, model.Pagination{})
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if len(anon.Items) != 1 || anon.Items[0].Name != "share1" {
		t.Fatalf("anonymous should see only the public share, got %+v", anon.Items)
	}

	alice, aerr := cat.ListShares(ctx, model.KnownRecipient("alice"), model.Pagination{})
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if len(alice.Items) != 2 {
		t.Fatalf("alice should see both shares, got %+v", alice.Items)
	}
}

func TestListSharesPaginates(t *testing.T) {
	cat := openTestCatalog(t)
	ctx := context.Background()
	one := uint32(1)

	page1, aerr := cat.ListShares(ctx, model.KnownRecipient("alice"), model.Pagination{MaxResults: &one})
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if len(page1.Items) != 1 || page1.NextPageToken == "" {
		t.Fatalf("expected one item and a continuation token, got %+v", page1)
	}

	page2, aerr := cat.ListShares(ctx, model.KnownRecipient("alice"), model.Pagination{MaxResults: &one, PageToken: page1.NextPageToken})
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if len(page2.Items) != 1 || page2.NextPageToken != "" {
		t.Fatalf("expected the final item with no further token, got %+v", page2)
	}
	if page1.Items[0].Name == page2.Items[0].Name {
		t.Fatalf("expected distinct items across pages, got %q twice", page1.Items[0].Name)
	}
}

func TestPageTokenRejectedForWrongQuery(t *testing.T) {
	cat := openTestCatalog(t)
	ctx := context.Background()
	one := uint32(1)

	page1, aerr := cat.ListShares(ctx, model.KnownRecipient("alice"), model.Pagination{MaxResults: &one})
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}

	_, aerr = cat.ListSchemas(ctx, model.Anonymous, "share1", model.Pagination{PageToken: page1.NextPageToken})
	if aerr == nil || aerr.ErrCode != apperr.MalformedPagination {
		t.Fatalf("expected MalformedPagination reusing a token across queries, got %v", aerr)
	}
}

func TestGetShareHiddenFromUnentitledRecipient(t *testing.T) {
	cat := openTestCatalog(t)
	ctx := context.Background()

	_, aerr := cat.GetShare(ctx, model.Anonymous, "private-share")
	if aerr == nil || aerr.ErrCode != apperr.NotFound {
		t.Fatalf("expected NotFound for a hidden share, got %v", aerr)
	}

	share, aerr := cat.GetShare(ctx, model.KnownRecipient("alice"), "private-share")
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if share.Name != "private-share" {
		t.Fatalf("expected private-share, got %+v", share)
	}
}

func TestGetTableDefaultsFormat(t *testing.T) {
	cat := openTestCatalog(t)
	ctx := context.Background()

	tbl, aerr := cat.GetTable(ctx, model.Anonymous, "share1", "schema1", "table1")
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if tbl.Format != "DELTA" {
		t.Fatalf("expected default format DELTA, got %q", tbl.Format)
	}
	if tbl.StoragePath != "s3://bucket/table1" {
		t.Fatalf("unexpected storage path %q", tbl.StoragePath)
	}
}

func TestListTablesInSchemaUnknownSchema(t *testing.T) {
	cat := openTestCatalog(t)
	ctx := context.Background()

	_, aerr := cat.ListTablesInSchema(ctx, model.Anonymous, "share1", "nope", model.Pagination{})
	if aerr == nil || aerr.ErrCode != apperr.NotFound {
		t.Fatalf("expected NotFound for an unknown schema, got %v", aerr)
	}
}
