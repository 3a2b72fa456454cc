package model

// Protocol declares the minimum reader/writer versions required to
// correctly interpret a table's data files.
type Protocol struct {
	MinReaderVersion uint32
	MinWriterVersion uint32
	ReaderFeatures   []string
	WriterFeatures   []string
}

// FileFormat describes the physical file format backing a table.
type FileFormat struct {
	Provider string
	Options  map[string]string
}

// Metadata contains everything required to correctly interpret a table's
// data files: schema, partitioning and configuration.
type Metadata struct {
	ID               string
	Name             string
	Description      string
	Format           FileFormat
	SchemaString     string
	PartitionColumns []string
	Configuration    map[string]string
	CreatedTime      *int64 // milliseconds since epoch
	Version          *uint64
	Size             *int64
	NumFiles         *int64
}

// DeletionVectorStorageType enumerates where a deletion vector's bytes live.
type DeletionVectorStorageType string

const (
	DVInline   DeletionVectorStorageType = "i"
	DVRelative DeletionVectorStorageType = "u"
	DVAbsolute DeletionVectorStorageType = "p"
)

// DeletionVectorDescriptor marks deleted rows in a data file. It may be
// inline, relative to the table root, or an absolute URI.
type DeletionVectorDescriptor struct {
	StorageType    DeletionVectorStorageType
	PathOrInlineDv string
	Offset         *int64
	SizeInBytes    int64
	Cardinality    int64
}

// FileActionKind discriminates the FileAction sum type.
type FileActionKind int

const (
	ActionFile FileActionKind = iota
	ActionAdd
	ActionCdf
	ActionRemove
)

// FileAction is one Delta log action describing a data file: the legacy
// "file" action (parquet envelope only) or the raw add/cdf/remove actions.
// Path is an object-store URI before signing, an HTTPS URL after.
type FileAction struct {
	Kind             FileActionKind
	Path             string
	PartitionValues  map[string]*string
	Size             int64
	Stats            string // raw JSON, empty when absent
	DataChange       bool
	ModificationTime int64 // milliseconds since epoch
	DeletionVector   *DeletionVectorDescriptor
	Tags             map[string]string

	// Version/Timestamp are populated for change-data actions.
	Version   *uint64
	Timestamp *int64
}

// TableSnapshot is the materialised result of reading a table at a
// specific version: protocol, metadata and the resolved file action set.
type TableSnapshot struct {
	Version  uint64
	Protocol Protocol
	Metadata Metadata
	Files    []FileAction
}
