// Package tracker keeps the ledger of executed seeds.
//
// The ledger is a single table keyed uniquely by seed name:
//
//	id | seed_name (unique) | executed_at (default now)
//
// Its rows are the only source of truth for which seeds count as applied.
package tracker

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/seedkit/pkg/database"
	"github.com/shashiranjanraj/seedkit/pkg/seederr"
)

// DefaultTable is used when New is given an empty table name.
const DefaultTable = "seed_executions"

// Record is one row of the ledger.
type Record struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	SeedName   string    `gorm:"column:seed_name;uniqueIndex;size:255;not null"`
	ExecutedAt time.Time `gorm:"column:executed_at;not null;default:CURRENT_TIMESTAMP"`
}

func (Record) TableName() string { return DefaultTable }

// Tracker reads and writes the ledger through a gorm handle.
type Tracker struct {
	db    *gorm.DB
	table string

	// Now stamps executed_at on insert.
	Now func() time.Time
}

// New creates a Tracker over table. The handle is not owned by the Tracker.
func New(db *gorm.DB, table string) *Tracker {
	if table == "" {
		table = DefaultTable
	}
	return &Tracker{db: db, table: table, Now: time.Now}
}

// Table returns the ledger table name.
func (t *Tracker) Table() string { return t.table }

// WithDB returns a copy of t bound to db, typically a transaction.
func (t *Tracker) WithDB(db *gorm.DB) *Tracker {
	cp := *t
	cp.db = db
	return &cp
}

func (t *Tracker) query(ctx context.Context) *gorm.DB {
	return t.db.WithContext(ctx).Table(t.table)
}

// EnsureStorage probes for the ledger table. When it is missing the table is
// created and false is returned so the caller can offer schema migrations.
// Any probe failure other than a missing table is fatal.
func (t *Tracker) EnsureStorage(ctx context.Context) (bool, error) {
	var ids []uint
	err := t.query(ctx).Limit(1).Pluck("id", &ids).Error
	if err == nil {
		return true, nil
	}
	if !database.IsMissingTable(err) {
		return false, seederr.Wrap(seederr.Storage, "probe table "+t.table, err)
	}

	if err := t.query(ctx).Migrator().CreateTable(&Record{}); err != nil {
		return false, seederr.Wrap(seederr.Storage, "create table "+t.table, err)
	}
	return false, nil
}

// IsApplied reports whether a ledger row exists for name.
func (t *Tracker) IsApplied(ctx context.Context, name string) (bool, error) {
	var n int64
	if err := t.query(ctx).Where("seed_name = ?", name).Count(&n).Error; err != nil {
		return false, seederr.Wrap(seederr.Storage, "lookup "+name, err)
	}
	return n > 0, nil
}

// RecordApplied inserts the ledger row for name.
func (t *Tracker) RecordApplied(ctx context.Context, name string) error {
	rec := Record{SeedName: name, ExecutedAt: t.Now().UTC()}
	if err := t.query(ctx).Create(&rec).Error; err != nil {
		return seederr.Wrap(seederr.Storage, "record "+name, err)
	}
	return nil
}

// RecordReverted deletes the ledger row for name.
func (t *Tracker) RecordReverted(ctx context.Context, name string) error {
	if err := t.query(ctx).Where("seed_name = ?", name).Delete(&Record{}).Error; err != nil {
		return seederr.Wrap(seederr.Storage, "forget "+name, err)
	}
	return nil
}

// ListApplied returns every ledger row ordered by execution time. Rows
// stamped in the same instant keep insertion order via id.
func (t *Tracker) ListApplied(ctx context.Context, newestFirst bool) ([]Record, error) {
	order := "executed_at asc, id asc"
	if newestFirst {
		order = "executed_at desc, id desc"
	}

	var recs []Record
	if err := t.query(ctx).Order(order).Find(&recs).Error; err != nil {
		return nil, seederr.Wrap(seederr.Storage, "list "+t.table, err)
	}
	return recs, nil
}

// Applied returns the ledger keyed by seed name.
func (t *Tracker) Applied(ctx context.Context) (map[string]Record, error) {
	recs, err := t.ListApplied(ctx, false)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Record, len(recs))
	for _, r := range recs {
		out[r.SeedName] = r
	}
	return out, nil
}
