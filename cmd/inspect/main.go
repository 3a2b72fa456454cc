// Command inspect runs an ad-hoc row/schema query against a Delta table on
// local disk, using DuckDB's delta_scan() the same way the teacher's
// internal/duckdb pool does for its Data Viewer — repointed from a
// project/dataset id pair at a bare storage path, since sharing tables
// have no project/dataset hierarchy.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/oreo-io/delta-sharing-server/internal/duckdb"
)

func main() {
	path := flag.String("path", "", "local filesystem path to the Delta table's storage root")
	limit := flag.Int("limit", 20, "max rows to print")
	offset := flag.Int("offset", 0, "row offset")
	statsOnly := flag.Bool("stats", false, "print row/column counts only")
	flag.Parse()

	if *path == "" {
		log.Fatal("[inspect] -path is required")
	}

	pool, err := duckdb.NewPool(duckdb.DefaultConfig())
	if err != nil {
		log.Fatalf("[inspect] failed to start duckdb pool: %v", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if *statsOnly {
		rows, cols, err := pool.TableStats(ctx, *path)
		if err != nil {
			log.Fatalf("[inspect] stats query failed: %v", err)
		}
		fmt.Printf("rows=%d columns=%d\n", rows, cols)
		return
	}

	result, err := pool.QueryTable(ctx, *path, *limit, *offset)
	if err != nil {
		log.Fatalf("[inspect] query failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("[inspect] failed to encode result: %v", err)
	}
}
