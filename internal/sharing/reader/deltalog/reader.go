package deltalog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/model"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/reader"
)

// Reader is a reader.TableReader backed by raw _delta_log commit files.
type Reader struct {
	store reader.BlobStore
}

// New returns a Reader reading commits through store.
func New(store reader.BlobStore) *Reader {
	return &Reader{store: store}
}

func logDir(tablePath string) string {
	return strings.TrimSuffix(tablePath, "/") + "/_delta_log/"
}

func commitKey(tablePath string, version uint64) string {
	return fmt.Sprintf("%s%020d.json", logDir(tablePath), version)
}

// listVersions returns every committed version number, ascending.
func (r *Reader) listVersions(ctx context.Context, tablePath string) ([]uint64, error) {
	keys, err := r.store.List(ctx, logDir(tablePath))
	if err != nil {
		return nil, fmt.Errorf("deltalog: list commits: %w", err)
	}

	var versions []uint64
	for _, k := range keys {
		base := k[strings.LastIndex(k, "/")+1:]
		if !strings.HasSuffix(base, ".json") {
			continue // skip .crc / .checkpoint.parquet / _last_checkpoint
		}
		numPart := strings.TrimSuffix(base, ".json")
		v, err := strconv.ParseUint(numPart, 10, 64)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}

func (r *Reader) readCommit(ctx context.Context, tablePath string, version uint64) ([]logLine, error) {
	f, err := r.store.Open(ctx, commitKey(tablePath, version))
	if err != nil {
		return nil, fmt.Errorf("deltalog: open commit %d: %w", version, err)
	}
	defer f.Close()

	var lines []logLine
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}
		var l logLine
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, fmt.Errorf("deltalog: parse commit %d: %w", version, err)
		}
		lines = append(lines, l)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("deltalog: read commit %d: %w", version, err)
	}
	return lines, nil
}

func (r *Reader) commitTimestamp(ctx context.Context, tablePath string, version uint64) (int64, error) {
	lines, err := r.readCommit(ctx, tablePath, version)
	if err != nil {
		return 0, err
	}
	for _, l := range lines {
		if l.CommitInfo != nil {
			return l.CommitInfo.Timestamp, nil
		}
	}
	return 0, nil
}

func (r *Reader) ResolveVersion(ctx context.Context, storagePath string, selector model.VersionSelector) (uint64, error) {
	versions, err := r.listVersions(ctx, storagePath)
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 0, fmt.Errorf("deltalog: table %s has no commits", storagePath)
	}

	switch selector.Kind {
	case model.VersionLatest:
		return versions[len(versions)-1], nil

	case model.VersionNumber:
		for _, v := range versions {
			if v == selector.Number {
				return v, nil
			}
		}
		return 0, fmt.Errorf("deltalog: version %d does not exist", selector.Number)

	case model.VersionTimestamp:
		targetMs := selector.Timestamp.UnixMilli()
		var resolved uint64
		found := false
		for _, v := range versions {
			ts, err := r.commitTimestamp(ctx, storagePath, v)
			if err != nil {
				return 0, err
			}
			if ts <= targetMs {
				resolved, found = v, true
				continue
			}
			break
		}
		if !found {
			return 0, fmt.Errorf("deltalog: no version committed at or before %s", selector.Timestamp)
		}
		return resolved, nil

	default:
		return 0, fmt.Errorf("deltalog: unknown version selector kind %d", selector.Kind)
	}
}

func (r *Reader) Snapshot(ctx context.Context, storagePath string, selector model.VersionSelector) (model.TableSnapshot, error) {
	target, err := r.ResolveVersion(ctx, storagePath, selector)
	if err != nil {
		return model.TableSnapshot{}, err
	}

	versions, err := r.listVersions(ctx, storagePath)
	if err != nil {
		return model.TableSnapshot{}, err
	}

	var protocol model.Protocol
	var metadata model.Metadata
	live := map[string]model.FileAction{}

	for _, v := range versions {
		if v > target {
			break
		}
		lines, err := r.readCommit(ctx, storagePath, v)
		if err != nil {
			return model.TableSnapshot{}, err
		}
		for _, l := range lines {
			switch {
			case l.Protocol != nil:
				protocol = convertProtocol(*l.Protocol)
			case l.MetaData != nil:
				metadata = convertMetadata(*l.MetaData)
			case l.Add != nil:
				fa := convertAdd(storagePath, *l.Add)
				fa.Kind = model.ActionFile
				live[l.Add.Path] = fa
			case l.Remove != nil:
				delete(live, l.Remove.Path)
			}
		}
	}

	files := make([]model.FileAction, 0, len(live))
	for _, f := range live {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return model.TableSnapshot{Version: target, Protocol: protocol, Metadata: metadata, Files: files}, nil
}

func (r *Reader) Changes(ctx context.Context, storagePath string, versionRange model.VersionRange) (model.TableSnapshot, error) {
	startVersion, endVersion, err := r.resolveRange(ctx, storagePath, versionRange)
	if err != nil {
		return model.TableSnapshot{}, err
	}

	var protocol model.Protocol
	var metadata model.Metadata
	var files []model.FileAction

	for v := startVersion; v <= endVersion; v++ {
		lines, err := r.readCommit(ctx, storagePath, v)
		if err != nil {
			return model.TableSnapshot{}, err
		}
		version := v
		var timestamp *int64
		for _, l := range lines {
			if l.CommitInfo != nil {
				t := l.CommitInfo.Timestamp
				timestamp = &t
			}
		}
		for _, l := range lines {
			switch {
			case l.Protocol != nil:
				protocol = convertProtocol(*l.Protocol)
			case l.MetaData != nil:
				metadata = convertMetadata(*l.MetaData)
			case l.Add != nil:
				fa := convertAdd(storagePath, *l.Add)
				fa.Kind = model.ActionAdd
				fa.Version = &version
				fa.Timestamp = timestamp
				files = append(files, fa)
			case l.Cdc != nil:
				fa := model.FileAction{
					Kind:            model.ActionCdf,
					Path:            joinPath(storagePath, l.Cdc.Path),
					PartitionValues: stringMapToPtrMap(l.Cdc.PartitionValues),
					Size:            l.Cdc.Size,
					DataChange:      false,
					Version:         &version,
					Timestamp:       timestamp,
				}
				files = append(files, fa)
			case l.Remove != nil && l.Remove.DataChange:
				fa := model.FileAction{
					Kind:            model.ActionRemove,
					Path:            joinPath(storagePath, l.Remove.Path),
					PartitionValues: stringMapToPtrMap(l.Remove.PartitionValues),
					DataChange:      true,
					Version:         &version,
					Timestamp:       timestamp,
				}
				files = append(files, fa)
			}
		}
	}

	return model.TableSnapshot{Version: endVersion, Protocol: protocol, Metadata: metadata, Files: files}, nil
}

func (r *Reader) resolveRange(ctx context.Context, storagePath string, versionRange model.VersionRange) (uint64, uint64, error) {
	switch versionRange.Kind {
	case model.RangeByVersion:
		return versionRange.StartVersion, versionRange.EndVersion, nil
	case model.RangeByTimestamp:
		start, err := r.ResolveVersion(ctx, storagePath, model.AtTimestamp(versionRange.StartTimestamp))
		if err != nil {
			return 0, 0, err
		}
		end, err := r.ResolveVersion(ctx, storagePath, model.AtTimestamp(versionRange.EndTimestamp))
		if err != nil {
			return 0, 0, err
		}
		return start, end, nil
	default:
		return 0, 0, fmt.Errorf("deltalog: unknown version range kind %d", versionRange.Kind)
	}
}

func convertProtocol(p protocolAction) model.Protocol {
	return model.Protocol{
		MinReaderVersion: p.MinReaderVersion,
		MinWriterVersion: p.MinWriterVersion,
		ReaderFeatures:   p.ReaderFeatures,
		WriterFeatures:   p.WriterFeatures,
	}
}

func convertMetadata(m metaDataAction) model.Metadata {
	return model.Metadata{
		ID:               m.ID,
		Name:             m.Name,
		Description:      m.Description,
		Format:           model.FileFormat{Provider: m.Format.Provider, Options: m.Format.Options},
		SchemaString:     m.SchemaString,
		PartitionColumns: m.PartitionColumns,
		Configuration:    m.Configuration,
		CreatedTime:      m.CreatedTime,
	}
}

func convertAdd(storagePath string, a addAction) model.FileAction {
	fa := model.FileAction{
		Kind:             model.ActionAdd,
		Path:             joinPath(storagePath, a.Path),
		PartitionValues:  stringMapToPtrMap(a.PartitionValues),
		Size:             a.Size,
		Stats:            a.Stats,
		DataChange:       a.DataChange,
		ModificationTime: a.ModificationTime,
		Tags:             a.Tags,
	}
	if a.DeletionVector != nil {
		fa.DeletionVector = &model.DeletionVectorDescriptor{
			StorageType:    model.DeletionVectorStorageType(a.DeletionVector.StorageType),
			PathOrInlineDv: a.DeletionVector.PathOrInlineDv,
			Offset:         a.DeletionVector.Offset,
			SizeInBytes:    a.DeletionVector.SizeInBytes,
			Cardinality:    a.DeletionVector.Cardinality,
		}
	}
	return fa
}

func joinPath(storagePath, relative string) string {
	if strings.Contains(relative, "://") {
		return relative // already absolute
	}
	return strings.TrimSuffix(storagePath, "/") + "/" + relative
}

func stringMapToPtrMap(m map[string]string) map[string]*string {
	if m == nil {
		return nil
	}
	out := make(map[string]*string, len(m))
	for k, v := range m {
		v := v
		out[k] = &v
	}
	return out
}

var _ reader.TableReader = (*Reader)(nil)
