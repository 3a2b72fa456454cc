package pgcatalog

import "time"

// ShareRow is the GORM row backing one share. Visibility mirrors the YAML
// backend: a share with no AclRow entries is public.
type ShareRow struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time

	Schemas []SchemaRow `gorm:"foreignKey:ShareID"`
	Acls    []AclRow    `gorm:"foreignKey:ShareID"`
}

func (ShareRow) TableName() string { return "sharing_shares" }

// SchemaRow is one schema scoped to a share.
type SchemaRow struct {
	ID      string `gorm:"primaryKey"`
	ShareID string `gorm:"index;not null"`
	Name    string `gorm:"not null"`

	Tables []TableRow `gorm:"foreignKey:SchemaID"`
}

func (SchemaRow) TableName() string { return "sharing_schemas" }

// TableRow is one table scoped to a schema, pointing at its storage location.
type TableRow struct {
	ID          string `gorm:"primaryKey"`
	SchemaID    string `gorm:"index;not null"`
	Name        string `gorm:"not null"`
	StoragePath string `gorm:"column:storage_path;not null"`
	Format      string `gorm:"not null;default:DELTA"`
}

func (TableRow) TableName() string { return "sharing_tables" }

// AclRow grants a single recipient visibility into a share. Absence of any
// AclRow for a share means the share is public.
type AclRow struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	ShareID     string `gorm:"index;not null"`
	RecipientID string `gorm:"column:recipient_id;not null"`
}

func (AclRow) TableName() string { return "sharing_share_acls" }
