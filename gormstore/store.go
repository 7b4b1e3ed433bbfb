package gormstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/Alp4ka/metapager"
)

// Open connects to a database of the given dialect.
func Open(dialect, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch dialect {
	case DialectMySQL:
		dialector = mysql.Open(dsn)
	case DialectPostgres:
		dialector = postgres.Open(dsn)
	case DialectSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported dialect '%s'", dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("cannot open %s database: %w", dialect, err)
	}

	return db, nil
}

// Store is the relational storage collaborator: records with their
// auxiliary attributes in a joined key/value table.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:     db,
		logger: zap.NewNop(),
	}
}

// WithLogger sets the logger. Nil disables logging.
func (s *Store) WithLogger(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	s.logger = logger

	return s
}

// Migrate creates or updates the record tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Record{}, &RecordMeta{}); err != nil {
		return fmt.Errorf("cannot migrate record tables: %w", err)
	}

	return nil
}

// Put inserts a record together with its Meta attributes.
func (s *Store) Put(ctx context.Context, rec *Record) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("cannot create record: %w", err)
		}

		keys := lo.Keys(rec.Meta)
		slices.Sort(keys)

		for _, key := range keys {
			if err := setMeta(tx, rec.ID, key, rec.Meta[key]); err != nil {
				return err
			}
		}

		return nil
	})
}

// SetMeta sets an attribute of a record, replacing any previous value.
func (s *Store) SetMeta(ctx context.Context, recordID uint64, key, value string) error {
	return setMeta(s.db.WithContext(ctx), recordID, key, value)
}

func setMeta(db *gorm.DB, recordID uint64, key, value string) error {
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_id"}, {Name: "meta_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"meta_value"}),
	}).Create(&RecordMeta{RecordID: recordID, MetaKey: key, MetaValue: value}).Error
	if err != nil {
		return fmt.Errorf("cannot set attribute '%s' of record %d: %w", key, recordID, err)
	}

	return nil
}

// DeleteMeta removes an attribute of a record.
func (s *Store) DeleteMeta(ctx context.Context, recordID uint64, key string) error {
	err := s.db.WithContext(ctx).
		Where("record_id = ? AND meta_key = ?", recordID, key).
		Delete(&RecordMeta{}).Error
	if err != nil {
		return fmt.Errorf("cannot delete attribute '%s' of record %d: %w", key, recordID, err)
	}

	return nil
}

// DeleteByMeta removes every record whose attribute key equals value,
// together with all of their attributes. It returns the number of removed
// records.
func (s *Store) DeleteByMeta(ctx context.Context, key, value string) (int64, error) {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint64
		err := tx.Model(&RecordMeta{}).
			Where("meta_key = ? AND meta_value = ?", key, value).
			Pluck("record_id", &ids).Error
		if err != nil || len(ids) == 0 {
			return err
		}

		if err = tx.Where("record_id IN ?", ids).Delete(&RecordMeta{}).Error; err != nil {
			return err
		}

		res := tx.Where("id IN ?", ids).Delete(&Record{})
		removed = res.RowsAffected

		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("cannot delete records by attribute '%s': %w", key, err)
	}

	return removed, nil
}

// Scan implements metapager.Scanner. Every attribute the ordering or a
// comparison refers to is joined once; records lacking an ordering attribute,
// or holding a value that is not of the key's type, are not returned. Attributes of the returned records are loaded
// with a second query.
func (s *Store) Scan(ctx context.Context, req metapager.ScanRequest) ([]*Record, error) {
	db := s.db.WithContext(ctx)
	r := newRenderer(db.Dialector.Name(), req.Order, req.Where)

	query := db.Model(&Record{}).Select(TableRecords + ".*")
	for _, j := range r.joins {
		sql, arg := j.joinSQL()
		query = query.Joins(sql, arg)
	}

	if conds := r.conditions(req.Where, req.Order); len(conds) > 0 {
		query = query.Clauses(conds...)
	}
	if len(req.Order) > 0 {
		query = query.Order(r.orderBy(req.Order))
	}
	if req.Limit >= 0 {
		query = query.Limit(req.Limit)
	}

	s.logger.Debug("Scanning records",
		zap.Int("limit", req.Limit),
		zap.Stringer("order", req.Order),
		zap.Int("joins", len(r.joins)),
	)

	var records []*Record
	if err := query.Find(&records).Error; err != nil {
		s.logger.Error("Failed to scan records", zap.Error(err))
		return nil, fmt.Errorf("cannot scan records: %w", err)
	}

	if err := s.loadMeta(db, records); err != nil {
		return nil, err
	}

	return records, nil
}

func (s *Store) loadMeta(db *gorm.DB, records []*Record) error {
	if len(records) == 0 {
		return nil
	}

	byID := lo.SliceToMap(records, func(rec *Record) (uint64, *Record) {
		rec.Meta = make(map[string]string)
		return rec.ID, rec
	})

	var metas []RecordMeta
	ids := lo.Map(records, func(rec *Record, _ int) uint64 { return rec.ID })

	err := db.Where("record_id IN ?", ids).Find(&metas).Error
	if err != nil {
		s.logger.Error("Failed to load record attributes", zap.Error(err))
		return fmt.Errorf("cannot load record attributes: %w", err)
	}

	for _, m := range metas {
		if rec, ok := byID[m.RecordID]; ok {
			rec.Meta[m.MetaKey] = m.MetaValue
		}
	}

	return nil
}

// Get returns a record by id with its attributes.
func (s *Store) Get(ctx context.Context, id uint64) (*Record, error) {
	db := s.db.WithContext(ctx)

	var rec Record
	if err := db.First(&rec, id).Error; err != nil {
		return nil, fmt.Errorf("cannot get record %d: %w", id, err)
	}

	if err := s.loadMeta(db, []*Record{&rec}); err != nil {
		return nil, err
	}

	return &rec, nil
}

var _ metapager.Scanner[*Record] = (*Store)(nil)
