package response

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/model"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/signer"
)

// parquetProtocol is the legacy envelope's protocol line.
type parquetProtocol struct {
	MinReaderVersion uint32 `json:"minReaderVersion"`
}

type parquetFormat struct {
	Provider string `json:"provider"`
}

// parquetMetadata is the legacy envelope's metaData line.
type parquetMetadata struct {
	ID               string            `json:"id"`
	Name             string            `json:"name,omitempty"`
	Description      string            `json:"description,omitempty"`
	Format           parquetFormat     `json:"format"`
	SchemaString     string            `json:"schemaString"`
	PartitionColumns []string          `json:"partitionColumns"`
	Configuration    map[string]string `json:"configuration,omitempty"`
	Version          *uint64           `json:"version,omitempty"`
	Size             *int64            `json:"size,omitempty"`
	NumFiles         *int64            `json:"numFiles,omitempty"`
}

// parquetFile is the legacy envelope's file line, used for snapshot reads
// (queries that are not change-data-feed queries).
type parquetFile struct {
	URL                 string             `json:"url"`
	ID                  string             `json:"id"`
	PartitionValues     map[string]*string `json:"partitionValues"`
	Size                int64              `json:"size"`
	Stats               string             `json:"stats,omitempty"`
	Version             *uint64            `json:"version,omitempty"`
	Timestamp           *int64             `json:"timestamp,omitempty"`
	ExpirationTimestamp int64              `json:"expirationTimestamp"`
}

// parquetAdd/parquetCdf/parquetRemove are the legacy envelope's
// change-data-feed lines.
type parquetAdd struct {
	URL                 string             `json:"url"`
	ID                  string             `json:"id"`
	PartitionValues     map[string]*string `json:"partitionValues"`
	Size                int64              `json:"size"`
	Timestamp           int64              `json:"timestamp"`
	Version             uint64             `json:"version"`
	Stats               string             `json:"stats,omitempty"`
	ExpirationTimestamp int64              `json:"expirationTimestamp"`
}

type parquetCdf struct {
	URL                 string             `json:"url"`
	ID                  string             `json:"id"`
	PartitionValues     map[string]*string `json:"partitionValues"`
	Size                int64              `json:"size"`
	Timestamp           int64              `json:"timestamp"`
	Version             uint64             `json:"version"`
	ExpirationTimestamp int64              `json:"expirationTimestamp"`
}

type parquetRemove struct {
	URL                 string             `json:"url"`
	ID                  string             `json:"id"`
	PartitionValues     map[string]*string `json:"partitionValues"`
	Size                int64              `json:"size"`
	Timestamp           int64              `json:"timestamp"`
	Version             uint64             `json:"version"`
	ExpirationTimestamp int64              `json:"expirationTimestamp"`
}

func protocolLine(p model.Protocol) map[string]any {
	return map[string]any{"protocol": parquetProtocol{MinReaderVersion: p.MinReaderVersion}}
}

func metadataLine(m model.Metadata) map[string]any {
	return map[string]any{"metaData": parquetMetadata{
		ID:               m.ID,
		Name:             m.Name,
		Description:      m.Description,
		Format:           parquetFormat{Provider: m.Format.Provider},
		SchemaString:     m.SchemaString,
		PartitionColumns: m.PartitionColumns,
		Configuration:    m.Configuration,
		Version:          m.Version,
		Size:             m.Size,
		NumFiles:         m.NumFiles,
	}}
}

// WriteParquetEnvelope streams the legacy "parquet" ndjson envelope:
// a protocol line, a metaData line, then one file/add/cdf/remove line per
// action in snapshot.Files, signing each file's URL (and deletion vector,
// for actions that carry one) against tableRoot before it is written.
func WriteParquetEnvelope(ctx context.Context, c *gin.Context, snapshot model.TableSnapshot, registry *signer.Registry, tableRoot string, ttl time.Duration) error {
	w := newLineWriter(c, snapshot.Version)

	if err := w.writeLine(protocolLine(snapshot.Protocol)); err != nil {
		return err
	}
	if err := w.writeLine(metadataLine(snapshot.Metadata)); err != nil {
		return err
	}

	for _, f := range snapshot.Files {
		line, err := parquetActionLine(ctx, registry, tableRoot, ttl, f)
		if err != nil {
			return err
		}
		if err := w.writeLine(line); err != nil {
			return err
		}
	}

	return w.flush()
}

func parquetActionLine(ctx context.Context, registry *signer.Registry, tableRoot string, ttl time.Duration, f model.FileAction) (map[string]any, error) {
	signedURL, err := signPath(ctx, registry, tableRoot, f.Path, ttl)
	if err != nil {
		return nil, err
	}
	if f.DeletionVector != nil {
		if err := signDeletionVector(ctx, registry, tableRoot, f.DeletionVector, ttl); err != nil {
			return nil, err
		}
	}
	id := fileID(tableRoot, f.Path)
	expires := ttlExpiry(ttl)

	switch f.Kind {
	case model.ActionCdf:
		return map[string]any{"cdf": parquetCdf{
			URL: signedURL, ID: id, PartitionValues: f.PartitionValues, Size: f.Size,
			Timestamp: derefInt64(f.Timestamp), Version: derefUint64(f.Version),
			ExpirationTimestamp: expires,
		}}, nil
	case model.ActionRemove:
		return map[string]any{"remove": parquetRemove{
			URL: signedURL, ID: id, PartitionValues: f.PartitionValues, Size: f.Size,
			Timestamp: derefInt64(f.Timestamp), Version: derefUint64(f.Version),
			ExpirationTimestamp: expires,
		}}, nil
	case model.ActionAdd:
		return map[string]any{"add": parquetAdd{
			URL: signedURL, ID: id, PartitionValues: f.PartitionValues, Size: f.Size,
			Timestamp: derefInt64(f.Timestamp), Version: derefUint64(f.Version),
			Stats: f.Stats, ExpirationTimestamp: expires,
		}}, nil
	default:
		return map[string]any{"file": parquetFile{
			URL: signedURL, ID: id, PartitionValues: f.PartitionValues, Size: f.Size,
			Stats: f.Stats, Version: f.Version, Timestamp: f.Timestamp,
			ExpirationTimestamp: expires,
		}}, nil
	}
}

func derefInt64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefUint64(p *uint64) uint64 {
	if p == nil {
		return 0
	}
	return *p
}
