package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/apperr"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/authn"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/model"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/reader"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/signer"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/state"
)

func init() { gin.SetMode(gin.TestMode) }

// stubCatalog is a fixed, single-table catalog.Catalog used so handler
// tests exercise request/response plumbing without a real backend.
type stubCatalog struct {
	share  model.Share
	schema model.Schema
	table  model.Table
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{
		share:  model.Share{Name: "share1", ID: "share1-id"},
		schema: model.Schema{Name: "schema1", ShareName: "share1", ID: "schema1-id"},
		table:  model.Table{Name: "table1", SchemaName: "schema1", ShareName: "share1", StoragePath: "/data/table1", Format: "DELTA"},
	}
}

func (s *stubCatalog) ListShares(_ context.Context, _ model.RecipientId, _ model.Pagination) (model.Page[model.Share], *apperr.AppError) {
	return model.Page[model.Share]{Items: []model.Share{s.share}}, nil
}

func (s *stubCatalog) GetShare(_ context.Context, _ model.RecipientId, shareName string) (model.Share, *apperr.AppError) {
	if shareName != s.share.Name {
		return model.Share{}, apperr.Missing("share")
	}
	return s.share, nil
}

func (s *stubCatalog) ListSchemas(_ context.Context, _ model.RecipientId, shareName string, _ model.Pagination) (model.Page[model.Schema], *apperr.AppError) {
	if shareName != s.share.Name {
		return model.Page[model.Schema]{}, apperr.Missing("share")
	}
	return model.Page[model.Schema]{Items: []model.Schema{s.schema}}, nil
}

func (s *stubCatalog) ListTablesInShare(_ context.Context, _ model.RecipientId, shareName string, _ model.Pagination) (model.Page[model.Table], *apperr.AppError) {
	if shareName != s.share.Name {
		return model.Page[model.Table]{}, apperr.Missing("share")
	}
	return model.Page[model.Table]{Items: []model.Table{s.table}}, nil
}

func (s *stubCatalog) ListTablesInSchema(_ context.Context, _ model.RecipientId, shareName, schemaName string, _ model.Pagination) (model.Page[model.Table], *apperr.AppError) {
	if shareName != s.share.Name || schemaName != s.schema.Name {
		return model.Page[model.Table]{}, apperr.Missing("schema")
	}
	return model.Page[model.Table]{Items: []model.Table{s.table}}, nil
}

func (s *stubCatalog) GetTable(_ context.Context, _ model.RecipientId, shareName, schemaName, tableName string) (model.Table, *apperr.AppError) {
	if shareName != s.share.Name || schemaName != s.schema.Name || tableName != s.table.Name {
		return model.Table{}, apperr.Missing("table")
	}
	return s.table, nil
}

// stubReader is a TableReader returning a fixed snapshot, so handler
// tests don't need a real Delta log on disk.
type stubReader struct {
	snapshot model.TableSnapshot
	version  uint64
}

func (r *stubReader) ResolveVersion(_ context.Context, _ string, _ model.VersionSelector) (uint64, error) {
	return r.version, nil
}

func (r *stubReader) Snapshot(_ context.Context, _ string, _ model.VersionSelector) (model.TableSnapshot, error) {
	return r.snapshot, nil
}

func (r *stubReader) Changes(_ context.Context, _ string, _ model.VersionRange) (model.TableSnapshot, error) {
	return r.snapshot, nil
}

func sampleSnapshot() model.TableSnapshot {
	return model.TableSnapshot{
		Version: 3,
		Protocol: model.Protocol{
			MinReaderVersion: 1,
			MinWriterVersion: 2,
		},
		Metadata: model.Metadata{
			ID:           "meta-1",
			Format:       model.FileFormat{Provider: "parquet"},
			SchemaString: `{"type":"struct","fields":[]}`,
		},
		Files: []model.FileAction{
			{
				Kind:       model.ActionFile,
				Path:       "/data/table1/part-0001.parquet",
				Size:       1024,
				DataChange: true,
			},
		},
	}
}

func newRouter(rdr reader.TableReader) *gin.Engine {
	return newRouterWithRegistry(rdr, signer.NewRegistry())
}

func newRouterWithRegistry(rdr reader.TableReader, registry *signer.Registry) *gin.Engine {
	readers := map[string]reader.TableReader{}
	if rdr != nil {
		readers["DELTA"] = rdr
	}
	s := state.New(newStubCatalog(), readers, registry, time.Hour)
	return SetupRouter(s, authn.StaticTokenStore{"tok-1": "recipient-1"})
}

func newRouterWithStoragePath(rdr reader.TableReader, storagePath string, registry *signer.Registry) *gin.Engine {
	readers := map[string]reader.TableReader{}
	if rdr != nil {
		readers["DELTA"] = rdr
	}
	cat := newStubCatalog()
	cat.table.StoragePath = storagePath
	s := state.New(cat, readers, registry, time.Hour)
	return SetupRouter(s, authn.StaticTokenStore{"tok-1": "recipient-1"})
}

func TestHealthzReturnsOK(t *testing.T) {
	r := newRouter(nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
}

func TestListSharesReturnsConfiguredShare(t *testing.T) {
	r := newRouter(nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shares", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); !strings.Contains(got, `"share1"`) {
		t.Fatalf("response %q does not mention share1", got)
	}
}

func TestGetShareUnknownShareReturns404(t *testing.T) {
	r := newRouter(nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shares/does-not-exist", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404: %s", rec.Code, rec.Body.String())
	}
}

func TestGetTableVersionSetsHeader(t *testing.T) {
	r := newRouter(&stubReader{version: 7})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shares/share1/schemas/schema1/tables/table1/version", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Delta-Table-Version"); got != "7" {
		t.Fatalf("Delta-Table-Version header = %q, want \"7\"", got)
	}
}

func TestGetTableMetadataOmitsFiles(t *testing.T) {
	r := newRouter(&stubReader{snapshot: sampleSnapshot()})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shares/share1/schemas/schema1/tables/table1/metadata", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); strings.Contains(got, "part-0001.parquet") {
		t.Fatalf("metadata response unexpectedly includes a file line: %q", got)
	}
}

func TestQueryTableUnsupportedFormatReturns501(t *testing.T) {
	r := newRouter(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/shares/share1/schemas/schema1/tables/table1/query", nil)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("got status %d, want 501: %s", rec.Code, rec.Body.String())
	}
}

func TestChangesAlwaysReturns501(t *testing.T) {
	r := newRouter(&stubReader{snapshot: sampleSnapshot()})
	rec := httptest.NewRecorder()
	url := "/shares/share1/schemas/schema1/tables/table1/changes?startingVersion=0&endingVersion=1"
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("got status %d, want 501: %s", rec.Code, rec.Body.String())
	}
}

func TestQueryTableUnregisteredStorageSchemeReturns501(t *testing.T) {
	r := newRouterWithStoragePath(&stubReader{snapshot: sampleSnapshot()}, "s3://bucket/table1", signer.NewRegistry())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/shares/share1/schemas/schema1/tables/table1/query", nil)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("got status %d, want 501 for a table on an unregistered storage scheme: %s", rec.Code, rec.Body.String())
	}
}

func TestQueryTableRegisteredStorageSchemeSucceeds(t *testing.T) {
	registry := signer.NewRegistry()
	registry.Register("s3", signer.Noop{})
	r := newRouterWithStoragePath(&stubReader{snapshot: sampleSnapshot()}, "s3://bucket/table1", registry)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/shares/share1/schemas/schema1/tables/table1/query", nil)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200 once the scheme has a registered signer: %s", rec.Code, rec.Body.String())
	}
}

func TestQueryTableIncompatibleProtocolReturns501(t *testing.T) {
	snap := sampleSnapshot()
	snap.Protocol = model.Protocol{MinReaderVersion: 3, ReaderFeatures: []string{"deletionVectors"}}
	r := newRouter(&stubReader{snapshot: snap})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/shares/share1/schemas/schema1/tables/table1/query", nil)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("got status %d, want 501 for a client whose capabilities don't cover the table's protocol: %s", rec.Code, rec.Body.String())
	}
}

func TestChangesValidatesPredicatesBeforeRejecting(t *testing.T) {
	r := newRouter(&stubReader{snapshot: sampleSnapshot()})
	rec := httptest.NewRecorder()
	url := "/shares/share1/schemas/schema1/tables/table1/changes"
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400 for a missing version/timestamp range: %s", rec.Code, rec.Body.String())
	}
}

