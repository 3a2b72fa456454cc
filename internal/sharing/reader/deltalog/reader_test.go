package deltalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/model"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/reader/localblob"
)

func writeCommit(t *testing.T, dir string, version int, lines ...string) {
	t.Helper()
	logDir := filepath.Join(dir, "_delta_log")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(logDir, fmt.Sprintf("%020d.json", version))
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write commit: %v", err)
	}
}

func setupTestTable(t *testing.T) (*Reader, string) {
	t.Helper()
	root := t.TempDir()
	tableDir := filepath.Join(root, "tables", "t1")

	writeCommit(t, tableDir, 0,
		`{"protocol":{"minReaderVersion":1,"minWriterVersion":2}}`,
		`{"metaData":{"id":"tbl-1","schemaString":"{\"type\":\"struct\",\"fields\":[]}","format":{"provider":"parquet"},"partitionColumns":[]}}`,
		`{"add":{"path":"part-0000.parquet","partitionValues":{},"size":100,"modificationTime":1000,"dataChange":true}}`,
		`{"commitInfo":{"timestamp":1000}}`,
	)
	writeCommit(t, tableDir, 1,
		`{"add":{"path":"part-0001.parquet","partitionValues":{},"size":200,"modificationTime":2000,"dataChange":true}}`,
		`{"commitInfo":{"timestamp":2000}}`,
	)
	writeCommit(t, tableDir, 2,
		`{"remove":{"path":"part-0000.parquet","dataChange":true,"deletionTimestamp":3000}}`,
		`{"commitInfo":{"timestamp":3000}}`,
	)

	store := localblob.New(root)
	return New(store), "tables/t1"
}

func TestResolveVersionLatest(t *testing.T) {
	r, tablePath := setupTestTable(t)
	v, err := r.ResolveVersion(context.Background(), tablePath, model.Latest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 2 {
		t.Fatalf("expected version 2, got %d", v)
	}
}

func TestResolveVersionByTimestamp(t *testing.T) {
	r, tablePath := setupTestTable(t)
	ts := time.UnixMilli(2500)
	v, err := r.ResolveVersion(context.Background(), tablePath, model.AtTimestamp(ts))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 1 {
		t.Fatalf("expected version 1 (latest commit at or before ts), got %d", v)
	}
}

func TestSnapshotReplaysAddRemove(t *testing.T) {
	r, tablePath := setupTestTable(t)
	snap, err := r.Snapshot(context.Background(), tablePath, model.Latest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Version != 2 {
		t.Fatalf("expected version 2, got %d", snap.Version)
	}
	if len(snap.Files) != 1 || snap.Files[0].Path != tablePath+"/part-0001.parquet" {
		t.Fatalf("expected only part-0001 to survive the remove, got %+v", snap.Files)
	}
	if snap.Protocol.MinReaderVersion != 1 {
		t.Fatalf("unexpected protocol: %+v", snap.Protocol)
	}
	if snap.Metadata.ID != "tbl-1" {
		t.Fatalf("unexpected metadata: %+v", snap.Metadata)
	}
}

func TestSnapshotAtEarlierVersion(t *testing.T) {
	r, tablePath := setupTestTable(t)
	snap, err := r.Snapshot(context.Background(), tablePath, model.AtVersion(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Files) != 1 || snap.Files[0].Path != tablePath+"/part-0000.parquet" {
		t.Fatalf("expected only part-0000 at version 0, got %+v", snap.Files)
	}
}

func TestChangesAcrossVersionRange(t *testing.T) {
	r, tablePath := setupTestTable(t)
	snap, err := r.Changes(context.Background(), tablePath, model.VersionRange{Kind: model.RangeByVersion, StartVersion: 0, EndVersion: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Files) != 3 {
		t.Fatalf("expected 3 change actions (2 adds + 1 remove), got %d: %+v", len(snap.Files), snap.Files)
	}
}
