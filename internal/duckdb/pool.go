//go:build cgo && !windows

// Package duckdb provides a connection pool for DuckDB with the Delta Lake
// extension preloaded, used by cmd/inspect to run ad-hoc SQL against a
// sharing table's storage path without re-implementing a Parquet/Delta
// reader — DuckDB's delta_scan() already does that. Adapted from the
// teacher's project/dataset-keyed QueryDataset into a single
// storage-path-keyed QueryTable, since sharing tables are already
// resolved to an absolute path by the catalog (there is no project/
// dataset hierarchy in this domain).
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
)

// Pool manages a pool of DuckDB connections with the Delta extension pre-loaded.
type Pool struct {
	db    *sql.DB
	mu    sync.RWMutex
	ready bool
}

// Config holds DuckDB pool configuration.
type Config struct {
	MaxOpenConns    int           // Max open connections (default: 10)
	MaxIdleConns    int           // Max idle connections (default: 5)
	ConnMaxLifetime time.Duration // Connection max lifetime (default: 30 min)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// NewPool creates a new DuckDB connection pool with the given configuration,
// installing and loading the Delta extension once up front.
func NewPool(cfg Config) (*Pool, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Use a longer timeout for first-time extension download (can take 60-90s).
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	var installErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if _, installErr = conn.ExecContext(ctx, "INSTALL delta"); installErr == nil {
			break
		}
		if attempt < 3 {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
	}
	if installErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install delta extension after 3 attempts: %w", installErr)
	}

	if _, err := conn.ExecContext(ctx, "LOAD delta"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load delta extension: %w", err)
	}

	return &Pool{db: db, ready: true}, nil
}

// Close closes all connections in the pool.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ready = false
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// IsReady returns whether the pool is ready to accept queries.
func (p *Pool) IsReady() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ready
}

// QueryResult holds the result of a Delta table query.
type QueryResult struct {
	Columns []string                 `json:"columns"`
	Rows    []map[string]interface{} `json:"data"`
	Total   int                      `json:"total"`
}

// QueryTable scans a Delta table at storagePath with pagination. storagePath
// must be a local filesystem path (DuckDB's delta_scan reads the data files
// directly; remote object-store paths need DuckDB's httpfs/s3 extensions,
// out of scope for this inspection tool).
func (p *Pool) QueryTable(ctx context.Context, storagePath string, limit, offset int) (*QueryResult, error) {
	if !p.IsReady() {
		return nil, fmt.Errorf("duckdb pool not ready")
	}

	path := normalizePath(storagePath)
	if !tableExists(path) {
		return nil, fmt.Errorf("delta table not found at %s", path)
	}

	query := fmt.Sprintf("SELECT * FROM delta_scan('%s') LIMIT %d OFFSET %d", path, limit, offset)
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// TableStats returns row count and column count for the table at storagePath.
func (p *Pool) TableStats(ctx context.Context, storagePath string) (rowCount, colCount int, err error) {
	if !p.IsReady() {
		return 0, 0, fmt.Errorf("duckdb pool not ready")
	}

	path := normalizePath(storagePath)
	if !tableExists(path) {
		return 0, 0, nil
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM delta_scan('%s')", path)
	if err := p.db.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		return 0, 0, fmt.Errorf("failed to get row count: %w", err)
	}

	schemaQuery := fmt.Sprintf("SELECT * FROM delta_scan('%s') LIMIT 1", path)
	rows, err := p.db.QueryContext(ctx, schemaQuery)
	if err != nil {
		return rowCount, 0, fmt.Errorf("failed to get schema: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return rowCount, 0, fmt.Errorf("failed to get columns: %w", err)
	}
	return rowCount, len(cols), nil
}

func tableExists(path string) bool {
	info, err := os.Stat(path + "/_delta_log")
	return err == nil && info.IsDir()
}

func scanRows(rows *sql.Rows) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := &QueryResult{Columns: columns, Rows: make([]map[string]interface{}, 0)}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rowMap := make(map[string]interface{})
		for i, col := range columns {
			rowMap[col] = convertValue(values[i])
		}
		result.Rows = append(result.Rows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	result.Total = len(result.Rows)
	return result, nil
}

// normalizePath converts Windows paths to forward slashes for DuckDB.
func normalizePath(path string) string {
	result := ""
	for _, c := range path {
		if c == '\\' {
			result += "/"
		} else {
			result += string(c)
		}
	}
	return result
}

// convertValue converts database values to JSON-serializable types.
func convertValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return val
	}
}
