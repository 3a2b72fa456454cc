package response

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/model"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/reader/deltalog"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/reader/localblob"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/signer"
)

func init() { gin.SetMode(gin.TestMode) }

func testContext(rec *httptest.ResponseRecorder) *gin.Context {
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest("GET", "/", nil)
	return c
}

func sampleSnapshot() model.TableSnapshot {
	return model.TableSnapshot{
		Version: 3,
		Protocol: model.Protocol{
			MinReaderVersion: 1,
			MinWriterVersion: 2,
		},
		Metadata: model.Metadata{
			ID:               "meta-1",
			Name:             "events",
			Format:           model.FileFormat{Provider: "parquet"},
			SchemaString:     `{"type":"struct","fields":[]}`,
			PartitionColumns: []string{"date"},
		},
		Files: []model.FileAction{
			{
				Kind:            model.ActionFile,
				Path:            "part-0000.snappy.parquet",
				PartitionValues: map[string]*string{"date": strPtr("2021-04-28")},
				Size:            573,
				Stats:           `{"numRecords":1}`,
			},
		},
	}
}

func strPtr(s string) *string { return &s }

func TestWriteParquetEnvelopeWritesProtocolMetadataAndFileLines(t *testing.T) {
	rec := httptest.NewRecorder()
	c := testContext(rec)
	registry := signer.NewRegistry()

	err := WriteParquetEnvelope(context.Background(), c, sampleSnapshot(), registry, "file:///tmp/table", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := rec.Header().Get("Delta-Table-Version"); got != "3" {
		t.Fatalf("expected Delta-Table-Version 3, got %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/x-ndjson; charset=utf-8" {
		t.Fatalf("unexpected content type: %q", got)
	}

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines (protocol, metaData, file), got %d: %v", len(lines), lines)
	}

	var protocolLine map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &protocolLine); err != nil {
		t.Fatalf("bad protocol line: %v", err)
	}
	if _, ok := protocolLine["protocol"]; !ok {
		t.Fatalf("expected a protocol line, got %s", lines[0])
	}

	var fileLine map[string]map[string]any
	if err := json.Unmarshal([]byte(lines[2]), &fileLine); err != nil {
		t.Fatalf("bad file line: %v", err)
	}
	file, ok := fileLine["file"]
	if !ok {
		t.Fatalf("expected a file line, got %s", lines[2])
	}
	if file["url"] != "file:///tmp/table/part-0000.snappy.parquet" {
		t.Fatalf("expected path joined against table root, got %v", file["url"])
	}
}

func TestWriteDeltaEnvelopeWrapsAddAction(t *testing.T) {
	rec := httptest.NewRecorder()
	c := testContext(rec)
	registry := signer.NewRegistry()

	err := WriteDeltaEnvelope(context.Background(), c, sampleSnapshot(), registry, "file:///tmp/table", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(lines), lines)
	}

	var fileLine map[string]map[string]any
	if err := json.Unmarshal([]byte(lines[2]), &fileLine); err != nil {
		t.Fatalf("bad file line: %v", err)
	}
	file, ok := fileLine["file"]
	if !ok {
		t.Fatalf("expected a file line, got %s", lines[2])
	}
	add, ok := file["add"].(map[string]any)
	if !ok {
		t.Fatalf("expected an add action, got %v", file)
	}
	if add["path"] != "file:///tmp/table/part-0000.snappy.parquet" {
		t.Fatalf("expected path joined against table root, got %v", add["path"])
	}
}

func TestWriteDeltaEnvelopeRewritesRelativeDeletionVector(t *testing.T) {
	rec := httptest.NewRecorder()
	c := testContext(rec)
	registry := signer.NewRegistry()

	snapshot := sampleSnapshot()
	snapshot.Files[0].DeletionVector = &model.DeletionVectorDescriptor{
		StorageType:    model.DVRelative,
		PathOrInlineDv: "deletion_vector.bin",
		SizeInBytes:    40,
		Cardinality:    6,
	}

	if err := WriteDeltaEnvelope(context.Background(), c, snapshot, registry, "file:///tmp/table", time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	var fileLine map[string]map[string]any
	if err := json.Unmarshal([]byte(lines[2]), &fileLine); err != nil {
		t.Fatalf("bad file line: %v", err)
	}
	add := fileLine["file"]["add"].(map[string]any)
	dv, ok := add["deletionVector"].(map[string]any)
	if !ok {
		t.Fatalf("expected a deletionVector, got %v", add)
	}
	if dv["storageType"] != "p" {
		t.Fatalf("expected relative deletion vector rewritten to absolute, got %v", dv["storageType"])
	}
	if dv["pathOrInlineDv"] != "file:///tmp/table/deletion_vector.bin" {
		t.Fatalf("expected joined+signed deletion vector path, got %v", dv["pathOrInlineDv"])
	}
}

func TestWriteDeltaEnvelopeLeavesInlineDeletionVectorUntouched(t *testing.T) {
	rec := httptest.NewRecorder()
	c := testContext(rec)
	registry := signer.NewRegistry()

	snapshot := sampleSnapshot()
	snapshot.Files[0].DeletionVector = &model.DeletionVectorDescriptor{
		StorageType:    model.DVInline,
		PathOrInlineDv: "wi5b=000010000siXQKl0rr91000f55c8Xg0@@D72lkbi5=-{L",
		SizeInBytes:    40,
		Cardinality:    6,
	}

	if err := WriteDeltaEnvelope(context.Background(), c, snapshot, registry, "file:///tmp/table", time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	var fileLine map[string]map[string]any
	if err := json.Unmarshal([]byte(lines[2]), &fileLine); err != nil {
		t.Fatalf("bad file line: %v", err)
	}
	add := fileLine["file"]["add"].(map[string]any)
	dv := add["deletionVector"].(map[string]any)
	if dv["storageType"] != "i" {
		t.Fatalf("expected inline deletion vector left untouched, got %v", dv["storageType"])
	}
	if dv["pathOrInlineDv"] != "wi5b=000010000siXQKl0rr91000f55c8Xg0@@D72lkbi5=-{L" {
		t.Fatalf("expected inline bytes unchanged, got %v", dv["pathOrInlineDv"])
	}
}

func TestFileIDHashesRelativePathNotTableRoot(t *testing.T) {
	want := md5.Sum([]byte("part-0000.snappy.parquet"))
	wantHex := hex.EncodeToString(want[:])

	rec := httptest.NewRecorder()
	c := testContext(rec)
	registry := signer.NewRegistry()

	if err := WriteParquetEnvelope(context.Background(), c, sampleSnapshot(), registry, "file:///tmp/table", time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	var fileLine map[string]map[string]any
	if err := json.Unmarshal([]byte(lines[2]), &fileLine); err != nil {
		t.Fatalf("bad file line: %v", err)
	}
	if got := fileLine["file"]["id"]; got != wantHex {
		t.Fatalf("expected id %q (md5 of relative path), got %v", wantHex, got)
	}
}

// setupDeltaLogTable writes a two-line commit through the real deltalog
// reader so the file path reaching the response writer is the
// table-root-joined path produced by deltalog.convertAdd, not a bare
// relative string a test fixture invented.
func setupDeltaLogTable(t *testing.T) (*deltalog.Reader, string) {
	t.Helper()
	root := t.TempDir()
	tableDir := filepath.Join(root, "tables", "t1")
	logDir := filepath.Join(tableDir, "_delta_log")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	commit := `{"protocol":{"minReaderVersion":1,"minWriterVersion":2}}` + "\n" +
		`{"metaData":{"id":"tbl-1","schemaString":"{\"type\":\"struct\",\"fields\":[]}","format":{"provider":"parquet"},"partitionColumns":[]}}` + "\n" +
		`{"add":{"path":"part-0001.parquet","partitionValues":{},"size":200,"modificationTime":2000,"dataChange":true}}` + "\n"
	if err := os.WriteFile(filepath.Join(logDir, fmt.Sprintf("%020d.json", 0)), []byte(commit), 0o644); err != nil {
		t.Fatalf("write commit: %v", err)
	}

	store := localblob.New(root)
	return deltalog.New(store), "file:///tables/t1"
}

func TestFileIDStableThroughRealDeltalogReader(t *testing.T) {
	rdr, tableRoot := setupDeltaLogTable(t)
	snap, err := rdr.Snapshot(context.Background(), tableRoot, model.Latest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Files) != 1 || snap.Files[0].Path != tableRoot+"/part-0001.parquet" {
		t.Fatalf("expected the reader to join the table root onto the relative log path, got %+v", snap.Files)
	}

	rec := httptest.NewRecorder()
	c := testContext(rec)
	registry := signer.NewRegistry()
	if err := WriteParquetEnvelope(context.Background(), c, snap, registry, tableRoot, time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	var fileLine map[string]map[string]any
	if err := json.Unmarshal([]byte(lines[2]), &fileLine); err != nil {
		t.Fatalf("bad file line: %v", err)
	}

	want := md5.Sum([]byte("part-0001.parquet"))
	wantHex := hex.EncodeToString(want[:])
	if got := fileLine["file"]["id"]; got != wantHex {
		t.Fatalf("expected id %q (md5 of the relative log path), got %v — table root leaked into the hash", wantHex, got)
	}
}

func TestSharesPageOmitsEmptyNextPageToken(t *testing.T) {
	page := model.Page[model.Share]{Items: []model.Share{{Name: "s1", ID: "id1"}}}
	resp := SharesPage(page)
	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(b), "nextPageToken") {
		t.Fatalf("expected nextPageToken to be omitted when empty, got %s", b)
	}
}

func TestSchemaFromModelUsesShareField(t *testing.T) {
	b, err := json.Marshal(SchemaFromModel(model.Schema{Name: "sch1", ShareName: "share1"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(b), `"share":"share1"`) {
		t.Fatalf("expected a \"share\" field, got %s", b)
	}
}
