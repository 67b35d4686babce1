// Package migration runs registered schema migrations in batches and
// records them in the schema_migrations table.
//
//	func init() {
//	    migration.Register("20260101000001_create_products_table", createProducts{})
//	}
package migration

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/shashiranjanraj/shopfront/pkg/logger"
	"gorm.io/gorm"
)

type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

type record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (record) TableName() string { return "schema_migrations" }

type registered struct {
	name string
	m    Migration
}

var registry []registered

// Register adds a migration. Names sort chronologically, so prefix them
// with a timestamp.
func Register(name string, m Migration) {
	registry = append(registry, registered{name: name, m: m})
}

// Status is one row of Runner.Status.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

// Runner applies and reverts the registered migrations.
type Runner struct {
	db  *gorm.DB
	out io.Writer
}

// New returns a runner that reports progress to out (may be io.Discard).
func New(db *gorm.DB, out io.Writer) *Runner {
	return &Runner{db: db, out: out}
}

func sorted() []registered {
	all := append([]registered(nil), registry...)
	sort.Slice(all, func(i, j int) bool { return all[i].name < all[j].name })
	return all
}

func (r *Runner) ran(ctx context.Context) (map[string]record, error) {
	if err := r.db.WithContext(ctx).AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}
	var rows []record
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("migration: read table: %w", err)
	}
	out := make(map[string]record, len(rows))
	for _, row := range rows {
		out[row.Name] = row
	}
	return out, nil
}

func (r *Runner) lastBatch(ctx context.Context) (int, error) {
	var max struct{ Max int }
	err := r.db.WithContext(ctx).Model(&record{}).Select("COALESCE(MAX(batch), 0) AS max").Scan(&max).Error
	return max.Max, err
}

// Up runs every pending migration as one new batch. Each migration and its
// record commit together.
func (r *Runner) Up(ctx context.Context) (int, error) {
	done, err := r.ran(ctx)
	if err != nil {
		return 0, err
	}
	batch, err := r.lastBatch(ctx)
	if err != nil {
		return 0, err
	}
	batch++

	n := 0
	for _, reg := range sorted() {
		if _, ok := done[reg.name]; ok {
			continue
		}
		fmt.Fprintf(r.out, "Migrating: %s\n", reg.name)
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := reg.m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&record{Name: reg.name, Batch: batch}).Error
		})
		if err != nil {
			return n, fmt.Errorf("migration: %s up: %w", reg.name, err)
		}
		n++
	}
	if n == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
	}
	logger.WithCtx(ctx).Info("migration: done", "ran", n, "batch", batch)
	return n, nil
}

// Rollback reverts the most recent batch, newest first.
func (r *Runner) Rollback(ctx context.Context) (int, error) {
	if _, err := r.ran(ctx); err != nil {
		return 0, err
	}
	batch, err := r.lastBatch(ctx)
	if err != nil {
		return 0, err
	}
	if batch == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return 0, nil
	}

	var rows []record
	if err := r.db.WithContext(ctx).Where("batch = ?", batch).Order("name desc").Find(&rows).Error; err != nil {
		return 0, err
	}

	known := make(map[string]Migration, len(registry))
	for _, reg := range registry {
		known[reg.name] = reg.m
	}

	n := 0
	for _, row := range rows {
		m, ok := known[row.Name]
		if !ok {
			return n, fmt.Errorf("migration: cannot roll back %s: not registered", row.Name)
		}
		fmt.Fprintf(r.out, "Rolling back: %s\n", row.Name)
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&record{}, row.ID).Error
		})
		if err != nil {
			return n, fmt.Errorf("migration: %s down: %w", row.Name, err)
		}
		n++
	}
	return n, nil
}

// Status lists every registered migration in order.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	done, err := r.ran(ctx)
	if err != nil {
		return nil, err
	}
	var out []Status
	for _, reg := range sorted() {
		row, ok := done[reg.name]
		out = append(out, Status{Name: reg.name, Ran: ok, Batch: row.Batch})
	}
	return out, nil
}
