// Package runner applies and reverts seeds, keeping the ledger in step.
//
// Run walks the seed directory in ascending file-name order and applies
// every seed the ledger does not know about. Rollback walks the ledger
// newest-first and reverts each seed. Each entry point runs in its own
// transaction together with the ledger update, so a failed seed leaves no
// record; seeds recorded earlier in the same pass stay recorded.
//
// Soft problems (already applied, missing entry point, missing file) are
// logged and skipped. Anything else aborts the pass and is returned.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/seedkit/pkg/database"
	"github.com/shashiranjanraj/seedkit/pkg/metrics"
	"github.com/shashiranjanraj/seedkit/pkg/prompt"
	"github.com/shashiranjanraj/seedkit/pkg/seeder"
	"github.com/shashiranjanraj/seedkit/pkg/seederr"
	"github.com/shashiranjanraj/seedkit/pkg/tracker"
)

// Runner executes and tracks seeds. DB, Tracker, Loader and Dir are required.
type Runner struct {
	DB      *gorm.DB
	Tracker *tracker.Tracker
	Loader  *seeder.Loader
	Dir     string

	Prompt   prompt.Prompter // nil skips the migration offer
	Migrator Migrator        // nil skips the migration offer
	Log      *slog.Logger
	Metrics  *metrics.Metrics
}

// New creates a Runner over db with the ledger in table.
func New(db *gorm.DB, table, dir string, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		DB:      db,
		Tracker: tracker.New(db, table),
		Loader:  seeder.NewLoader(nil),
		Dir:     dir,
		Log:     log,
	}
}

// Skip is a seed passed over without running.
type Skip struct {
	Name   string
	Reason string
}

// Summary reports what a pass did, in order.
type Summary struct {
	Applied  []string
	Reverted []string
	Skipped  []Skip
}

func (s *Summary) skip(name, reason string) {
	s.Skipped = append(s.Skipped, Skip{Name: name, Reason: reason})
}

// Run applies every pending seed in ascending file-name order.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	existed, err := r.Tracker.EnsureStorage(ctx)
	if err != nil {
		return sum, err
	}
	if !existed {
		r.Log.Info("ledger table created", "table", r.Tracker.Table())
		if err := r.offerMigrations(ctx); err != nil {
			return sum, err
		}
	}

	files, err := seeder.Discover(r.Dir)
	if err != nil {
		return sum, err
	}
	r.Log.Debug("seed files discovered", "dir", r.Dir, "count", len(files))

	for _, f := range files {
		applied, err := r.Tracker.IsApplied(ctx, f.Name)
		if err != nil {
			return sum, err
		}
		if applied {
			r.Log.Debug("seed already applied, skipping", "seed", f.Name)
			sum.skip(f.Name, metrics.SkipAlreadyApplied)
			r.Metrics.Skipped(metrics.SkipAlreadyApplied)
			continue
		}

		s, err := r.Loader.Load(f.Path)
		if err != nil {
			return sum, err
		}
		if s.Apply == nil {
			r.Log.Warn("seed has no Apply entry point, skipping", "seed", f.Name, "file", filepath.Base(f.Path))
			sum.skip(f.Name, metrics.SkipNoEntryPoint)
			r.Metrics.Skipped(metrics.SkipNoEntryPoint)
			continue
		}

		r.Log.Info("applying seed", "seed", f.Name)
		start := time.Now()
		err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.Apply(ctx, tx); err != nil {
				return seederr.Wrap(seederr.SeedExecution, fmt.Sprintf("apply %q", f.Name), err)
			}
			return r.Tracker.WithDB(tx).RecordApplied(ctx, f.Name)
		})
		if err != nil {
			r.Log.Error("seed failed, aborting run", "seed", f.Name, "error", err)
			return sum, err
		}

		r.Metrics.Applied(time.Since(start))
		sum.Applied = append(sum.Applied, f.Name)
		r.Log.Info("seed applied", "seed", f.Name, "duration", time.Since(start).Round(time.Millisecond))
	}

	return sum, nil
}

func (r *Runner) offerMigrations(ctx context.Context) error {
	if r.Prompt == nil || r.Migrator == nil {
		return nil
	}
	ok, err := r.Prompt.Confirm(
		fmt.Sprintf("The table %q did not exist. Run migrations before running seeds?", r.Tracker.Table()), true)
	if err != nil {
		return err
	}
	if !ok {
		r.Log.Info("migrations declined, seeding anyway")
		return nil
	}
	if err := r.Migrator.Migrate(ctx); err != nil {
		return seederr.Wrap(seederr.Migration, "run migrations", err)
	}
	return nil
}

// Rollback reverts every applied seed, newest execution first. A record
// whose file no longer exists is skipped and kept in the ledger.
func (r *Runner) Rollback(ctx context.Context) (Summary, error) {
	var sum Summary

	recs, err := r.Tracker.ListApplied(ctx, true)
	if err != nil {
		if !database.IsMissingTable(err) {
			return sum, err
		}
		recs = nil
	}
	if len(recs) == 0 {
		r.Log.Info("there are no seeds to revert")
		return sum, nil
	}

	for _, rec := range recs {
		path, ok := seeder.Locate(r.Dir, rec.SeedName)
		if !ok {
			r.Log.Warn("seed file not found, keeping its record", "seed", rec.SeedName, "dir", r.Dir)
			sum.skip(rec.SeedName, metrics.SkipFileMissing)
			r.Metrics.Skipped(metrics.SkipFileMissing)
			continue
		}

		s, err := r.Loader.Load(path)
		if err != nil {
			return sum, err
		}
		if s.Revert == nil {
			r.Log.Warn("seed has no Revert entry point, skipping", "seed", rec.SeedName, "file", filepath.Base(path))
			sum.skip(rec.SeedName, metrics.SkipNoEntryPoint)
			r.Metrics.Skipped(metrics.SkipNoEntryPoint)
			continue
		}

		r.Log.Info("reverting seed", "seed", rec.SeedName)
		start := time.Now()
		err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.Revert(ctx, tx); err != nil {
				return seederr.Wrap(seederr.SeedExecution, fmt.Sprintf("revert %q", rec.SeedName), err)
			}
			return r.Tracker.WithDB(tx).RecordReverted(ctx, rec.SeedName)
		})
		if err != nil {
			r.Log.Error("revert failed, aborting rollback", "seed", rec.SeedName, "error", err)
			return sum, err
		}

		r.Metrics.Reverted(time.Since(start))
		sum.Reverted = append(sum.Reverted, rec.SeedName)
		r.Log.Info("seed reverted", "seed", rec.SeedName)
	}

	return sum, nil
}

// Entry is one line of Status output.
type Entry struct {
	Name       string
	Applied    bool
	ExecutedAt time.Time
	Orphaned   bool // recorded in the ledger but the file is gone
}

// Status lists every discovered seed followed by orphaned ledger records.
func (r *Runner) Status(ctx context.Context) ([]Entry, error) {
	files, err := seeder.Discover(r.Dir)
	if err != nil {
		return nil, err
	}

	recs, err := r.Tracker.ListApplied(ctx, false)
	if err != nil && !database.IsMissingTable(err) {
		return nil, err
	}
	applied := make(map[string]tracker.Record, len(recs))
	for _, rec := range recs {
		applied[rec.SeedName] = rec
	}

	entries := make([]Entry, 0, len(files))
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		seen[f.Name] = true
		e := Entry{Name: f.Name}
		if rec, ok := applied[f.Name]; ok {
			e.Applied = true
			e.ExecutedAt = rec.ExecutedAt
		}
		entries = append(entries, e)
	}

	for _, rec := range recs {
		if seen[rec.SeedName] {
			continue
		}
		entries = append(entries, Entry{Name: rec.SeedName, Applied: true, ExecutedAt: rec.ExecutedAt, Orphaned: true})
	}
	return entries, nil
}
