package response

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/model"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/signer"
)

// deltaProtocol mirrors the raw Delta protocol action, wrapped as this
// envelope's "protocol" line.
type deltaProtocol struct {
	MinReaderVersion uint32   `json:"minReaderVersion"`
	MinWriterVersion uint32   `json:"minWriterVersion"`
	ReaderFeatures   []string `json:"readerFeatures,omitempty"`
	WriterFeatures   []string `json:"writerFeatures,omitempty"`
}

type deltaFileFormat struct {
	Provider string            `json:"provider"`
	Options  map[string]string `json:"options,omitempty"`
}

// deltaMetadata mirrors the raw Delta metaData action, wrapped as this
// envelope's "metaData" line with the extra version/size/numFiles fields
// the protocol adds for sharing responses.
type deltaMetadata struct {
	ID               string            `json:"id"`
	Name             string            `json:"name,omitempty"`
	Description      string            `json:"description,omitempty"`
	Format           deltaFileFormat   `json:"format"`
	SchemaString     string            `json:"schemaString"`
	PartitionColumns []string          `json:"partitionColumns"`
	Configuration    map[string]string `json:"configuration,omitempty"`
	CreatedTime      *int64            `json:"createdTime,omitempty"`
	Version          *uint64           `json:"version,omitempty"`
	Size             *int64            `json:"size,omitempty"`
	NumFiles         *int64            `json:"numFiles,omitempty"`
}

type deltaDeletionVector struct {
	StorageType    string `json:"storageType"`
	PathOrInlineDv string `json:"pathOrInlineDv"`
	Offset         *int64 `json:"offset,omitempty"`
	SizeInBytes    int64  `json:"sizeInBytes"`
	Cardinality    int64  `json:"cardinality"`
}

// deltaAdd mirrors the raw Delta add action as served to a client: Path
// has already been rewritten to a signed URL by the time it is written.
type deltaAdd struct {
	Path            string              `json:"path"`
	PartitionValues map[string]*string  `json:"partitionValues"`
	Size            int64               `json:"size"`
	ModificationTime int64              `json:"modificationTime"`
	DataChange      bool                `json:"dataChange"`
	Stats           string              `json:"stats,omitempty"`
	Tags            map[string]string   `json:"tags,omitempty"`
	DeletionVector  *deltaDeletionVector `json:"deletionVector,omitempty"`
}

type deltaCdc struct {
	Path            string             `json:"path"`
	PartitionValues map[string]*string `json:"partitionValues"`
	Size            int64              `json:"size"`
	Tags            map[string]string  `json:"tags,omitempty"`
}

type deltaRemove struct {
	Path                 string             `json:"path"`
	DeletionTimestamp    *int64             `json:"deletionTimestamp,omitempty"`
	DataChange           bool               `json:"dataChange"`
	ExtendedFileMetadata bool               `json:"extendedFileMetadata,omitempty"`
	PartitionValues      map[string]*string `json:"partitionValues,omitempty"`
	Size                 *int64             `json:"size,omitempty"`
	Tags                 map[string]string  `json:"tags,omitempty"`
}

// deltaFileLine is this envelope's "file" line: response metadata plus the
// single raw Delta action (add, cdc, or remove) it wraps.
type deltaFileLine struct {
	ID                   string `json:"id"`
	DeletionVectorFileID string `json:"deletionVectorFileId,omitempty"`
	Version              *uint64 `json:"version,omitempty"`
	Timestamp            *int64  `json:"timestamp,omitempty"`
	ExpirationTimestamp  int64   `json:"expirationTimestamp"`

	Add    *deltaAdd    `json:"add,omitempty"`
	Cdc    *deltaCdc    `json:"cdc,omitempty"`
	Remove *deltaRemove `json:"remove,omitempty"`
}

func deltaProtocolLine(p model.Protocol) map[string]any {
	return map[string]any{"protocol": map[string]any{
		"deltaProtocol": deltaProtocol{
			MinReaderVersion: p.MinReaderVersion,
			MinWriterVersion: p.MinWriterVersion,
			ReaderFeatures:   p.ReaderFeatures,
			WriterFeatures:   p.WriterFeatures,
		},
	}}
}

func deltaMetadataLine(m model.Metadata) map[string]any {
	return map[string]any{"metaData": map[string]any{
		"deltaMetadata": deltaMetadata{
			ID:               m.ID,
			Name:             m.Name,
			Description:      m.Description,
			Format:           deltaFileFormat{Provider: m.Format.Provider, Options: m.Format.Options},
			SchemaString:     m.SchemaString,
			PartitionColumns: m.PartitionColumns,
			Configuration:    m.Configuration,
			CreatedTime:      m.CreatedTime,
			Version:          m.Version,
			Size:             m.Size,
			NumFiles:         m.NumFiles,
		},
		"version":  m.Version,
		"size":     m.Size,
		"numFiles": m.NumFiles,
	}}
}

// WriteDeltaEnvelope streams the native "delta" ndjson envelope: a
// protocol line, a metaData line, then one file line per action in
// snapshot.Files wrapping the raw add/cdc/remove action, with its path
// (and deletion vector, if present) rewritten to a signed URL.
func WriteDeltaEnvelope(ctx context.Context, c *gin.Context, snapshot model.TableSnapshot, registry *signer.Registry, tableRoot string, ttl time.Duration) error {
	w := newLineWriter(c, snapshot.Version)

	if err := w.writeLine(deltaProtocolLine(snapshot.Protocol)); err != nil {
		return err
	}
	if err := w.writeLine(deltaMetadataLine(snapshot.Metadata)); err != nil {
		return err
	}

	for _, f := range snapshot.Files {
		line, err := deltaActionLine(ctx, registry, tableRoot, ttl, f)
		if err != nil {
			return err
		}
		if err := w.writeLine(map[string]any{"file": line}); err != nil {
			return err
		}
	}

	return w.flush()
}

func deltaActionLine(ctx context.Context, registry *signer.Registry, tableRoot string, ttl time.Duration, f model.FileAction) (deltaFileLine, error) {
	signedURL, err := signPath(ctx, registry, tableRoot, f.Path, ttl)
	if err != nil {
		return deltaFileLine{}, err
	}

	var dv *deltaDeletionVector
	dvFileID := ""
	if f.DeletionVector != nil {
		originalDVPath := f.DeletionVector.PathOrInlineDv
		if err := signDeletionVector(ctx, registry, tableRoot, f.DeletionVector, ttl); err != nil {
			return deltaFileLine{}, err
		}
		dv = &deltaDeletionVector{
			StorageType:    string(f.DeletionVector.StorageType),
			PathOrInlineDv: f.DeletionVector.PathOrInlineDv,
			Offset:         f.DeletionVector.Offset,
			SizeInBytes:    f.DeletionVector.SizeInBytes,
			Cardinality:    f.DeletionVector.Cardinality,
		}
		dvFileID = fileID(tableRoot, originalDVPath)
	}

	line := deltaFileLine{
		ID:                   fileID(tableRoot, f.Path),
		DeletionVectorFileID: dvFileID,
		Version:              f.Version,
		Timestamp:            f.Timestamp,
		ExpirationTimestamp:  ttlExpiry(ttl),
	}

	switch f.Kind {
	case model.ActionCdf:
		line.Cdc = &deltaCdc{Path: signedURL, PartitionValues: f.PartitionValues, Size: f.Size, Tags: f.Tags}
	case model.ActionRemove:
		line.Remove = &deltaRemove{
			Path: signedURL, DeletionTimestamp: f.Timestamp, DataChange: f.DataChange,
			PartitionValues: f.PartitionValues, Size: &f.Size, Tags: f.Tags,
		}
	default:
		line.Add = &deltaAdd{
			Path: signedURL, PartitionValues: f.PartitionValues, Size: f.Size,
			ModificationTime: f.ModificationTime, DataChange: f.DataChange,
			Stats: f.Stats, Tags: f.Tags, DeletionVector: dv,
		}
	}

	return line, nil
}
