package gormstore

import (
	"time"

	"github.com/Alp4ka/metapager"
)

const (
	TableRecords    = "records"
	TableRecordMeta = "record_meta"

	ColumnID        = "id"
	ColumnTitle     = "title"
	ColumnStatus    = "status"
	ColumnAuthorID  = "author_id"
	ColumnCreatedAt = "created_at"
)

// Record is a row of the main record table. Meta holds the auxiliary
// attributes loaded for the record; it is not a column.
type Record struct {
	ID        uint64            `gorm:"primaryKey" json:"id"`
	Title     string            `gorm:"size:255" json:"title"`
	Status    string            `gorm:"size:32;index" json:"status"`
	AuthorID  uint64            `gorm:"index" json:"author_id"`
	CreatedAt time.Time         `json:"created_at"`
	Meta      map[string]string `gorm:"-" json:"meta,omitempty"`
}

func (Record) TableName() string { return TableRecords }

// Value implements metapager.Row.
func (r *Record) Value(src metapager.Source) (any, bool) {
	if src.IsAttribute() {
		v, ok := r.Meta[src.Attribute]
		return v, ok
	}

	switch src.Column {
	case ColumnID:
		return r.ID, true
	case ColumnTitle:
		return r.Title, true
	case ColumnStatus:
		return r.Status, true
	case ColumnAuthorID:
		return r.AuthorID, true
	case ColumnCreatedAt:
		return r.CreatedAt, true
	default:
		return nil, false
	}
}

// RecordMeta is one auxiliary attribute of a record. A record carries at
// most one value per key.
type RecordMeta struct {
	ID        uint64 `gorm:"primaryKey"`
	RecordID  uint64 `gorm:"not null;uniqueIndex:idx_record_meta_key"`
	MetaKey   string `gorm:"size:191;not null;uniqueIndex:idx_record_meta_key"`
	MetaValue string `gorm:"type:text"`
}

func (RecordMeta) TableName() string { return TableRecordMeta }

// Columns returns the built-in columns of Record.
func Columns() []metapager.Column {
	return []metapager.Column{
		{Name: ColumnTitle, Type: metapager.TypeString},
		{Name: ColumnStatus, Type: metapager.TypeString},
		{Name: ColumnAuthorID, Type: metapager.TypeUnsigned},
		{Name: ColumnCreatedAt, Type: metapager.TypeDateTime},
	}
}

// NewResolver returns a resolver over Record columns. "date" is an alias of
// created_at; requests without an ordering are ordered by created_at DESC.
func NewResolver() *metapager.Resolver {
	return metapager.NewResolver(metapager.Column{Name: ColumnID, Type: metapager.TypeUnsigned}, Columns()...).
		WithAlias("date", metapager.Column{Name: ColumnCreatedAt, Type: metapager.TypeDateTime}).
		WithDefaultOrder(metapager.OrderClause{Name: ColumnCreatedAt, Direction: metapager.DirectionDESC})
}

var _ metapager.Row = (*Record)(nil)
