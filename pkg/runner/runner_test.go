package runner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/seedkit/pkg/logger"
	"github.com/shashiranjanraj/seedkit/pkg/metrics"
	"github.com/shashiranjanraj/seedkit/pkg/prompt"
	"github.com/shashiranjanraj/seedkit/pkg/runner"
	"github.com/shashiranjanraj/seedkit/pkg/seeder"
	"github.com/shashiranjanraj/seedkit/pkg/seederr"
	"github.com/shashiranjanraj/seedkit/pkg/testkit"
)

// ─── Fixture ──────────────────────────────────────────────────────────────────

type fixture struct {
	t     *testing.T
	db    *gorm.DB
	dir   string
	reg   *seeder.Registry
	r     *runner.Runner
	calls []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testkit.OpenDB(t)
	f := &fixture{t: t, db: db, dir: t.TempDir(), reg: seeder.NewRegistry()}
	f.r = runner.New(db, "", f.dir, logger.Discard())
	f.r.Loader = seeder.NewLoader(f.reg)
	f.r.Metrics = metrics.New()
	return f
}

// seed writes an empty Go seed file and registers entry points that log
// their calls. A non-nil fail makes the corresponding entry point fail.
func (f *fixture) seed(name string, applyErr, revertErr error) {
	f.t.Helper()
	require.NoError(f.t, os.WriteFile(filepath.Join(f.dir, name+".go"), []byte("package seeders\n"), 0o644))
	f.reg.Add(name, "",
		func(context.Context, *gorm.DB) error {
			f.calls = append(f.calls, "apply:"+name)
			return applyErr
		},
		func(context.Context, *gorm.DB) error {
			f.calls = append(f.calls, "revert:"+name)
			return revertErr
		},
	)
}

func (f *fixture) recorded() []string {
	f.t.Helper()
	recs, err := f.r.Tracker.ListApplied(context.Background(), false)
	require.NoError(f.t, err)
	out := []string{}
	for _, r := range recs {
		out = append(out, r.SeedName)
	}
	return out
}

func (f *fixture) recordAt(name string, at time.Time) {
	f.t.Helper()
	ctx := context.Background()
	_, err := f.r.Tracker.EnsureStorage(ctx)
	require.NoError(f.t, err)
	f.r.Tracker.Now = func() time.Time { return at }
	require.NoError(f.t, f.r.Tracker.RecordApplied(ctx, name))
}

// ─── Run ──────────────────────────────────────────────────────────────────────

func TestRunAppliesInAscendingOrder(t *testing.T) {
	f := newFixture(t)
	f.seed("00003_c", nil, nil)
	f.seed("00001_a", nil, nil)
	f.seed("00002_b", nil, nil)

	sum, err := f.r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"apply:00001_a", "apply:00002_b", "apply:00003_c"}, f.calls)
	assert.Equal(t, []string{"00001_a", "00002_b", "00003_c"}, sum.Applied)
	assert.ElementsMatch(t, []string{"00001_a", "00002_b", "00003_c"}, f.recorded())
}

func TestRunTwiceAppliesNothingNew(t *testing.T) {
	f := newFixture(t)
	f.seed("00001_a", nil, nil)
	f.seed("00002_b", nil, nil)

	_, err := f.r.Run(context.Background())
	require.NoError(t, err)
	f.calls = nil

	sum, err := f.r.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, f.calls)
	assert.Empty(t, sum.Applied)
	require.Len(t, sum.Skipped, 2)
	assert.Equal(t, metrics.SkipAlreadyApplied, sum.Skipped[0].Reason)
	assert.Len(t, f.recorded(), 2)
}

func TestRunAbortsOnFailingSeed(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("duplicate key")
	f.seed("00001_a", nil, nil)
	f.seed("00002_b", boom, nil)
	f.seed("00003_c", nil, nil)

	sum, err := f.r.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, seederr.SeedExecution, seederr.KindOf(err))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "00002_b")

	assert.Equal(t, []string{"apply:00001_a", "apply:00002_b"}, f.calls, "C never runs")
	assert.Equal(t, []string{"00001_a"}, sum.Applied)
	assert.Equal(t, []string{"00001_a"}, f.recorded())
}

func TestRunFailedSeedWritesAreRolledBack(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Exec("CREATE TABLE users (email TEXT PRIMARY KEY)").Error)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "00001_users.sql"), []byte(`-- +seed Apply
INSERT INTO users (email) VALUES ('example@example.com');
INSERT INTO missing_table (x) VALUES (1);
`), 0o644))

	_, err := f.r.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, seederr.SeedExecution, seederr.KindOf(err))

	assert.Zero(t, testkit.Count(t, f.db, "users"), "the seed's own writes share the ledger transaction")
	assert.Empty(t, f.recorded())
}

func TestRunSkipsSeedWithoutApply(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "00001_only_revert.sql"),
		[]byte("-- +seed Revert\nSELECT 1;\n"), 0o644))
	f.seed("00002_b", nil, nil)

	sum, err := f.r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"00002_b"}, sum.Applied)
	require.Len(t, sum.Skipped, 1)
	assert.Equal(t, runner.Skip{Name: "00001_only_revert", Reason: metrics.SkipNoEntryPoint}, sum.Skipped[0])
	assert.Equal(t, []string{"00002_b"}, f.recorded())
}

func TestRunLoadErrorIsFatal(t *testing.T) {
	f := newFixture(t)
	f.seed("00001_a", nil, nil)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "00002_unregistered.go"), []byte("package seeders\n"), 0o644))
	f.seed("00003_c", nil, nil)

	_, err := f.r.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, seederr.SeedLoad, seederr.KindOf(err))
	assert.Equal(t, []string{"apply:00001_a"}, f.calls)
}

func TestRunOffersMigrationsWhenLedgerIsNew(t *testing.T) {
	f := newFixture(t)
	p := &prompt.Static{Answer: true}
	m := testkit.NewMockMigrator()
	f.r.Prompt, f.r.Migrator = p, m

	_, err := f.r.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, p.Asked, 1)
	m.AssertNumberOfCalls(t, "Migrate", 1)

	_, err = f.r.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, p.Asked, 1, "no prompt once the ledger exists")
	m.AssertNumberOfCalls(t, "Migrate", 1)
}

func TestRunDeclinedMigrationsStillSeeds(t *testing.T) {
	f := newFixture(t)
	f.seed("00001_a", nil, nil)
	m := testkit.NewMockMigrator()
	f.r.Prompt, f.r.Migrator = &prompt.Static{Answer: false}, m

	sum, err := f.r.Run(context.Background())
	require.NoError(t, err)
	m.AssertNotCalled(t, "Migrate", mock.Anything)
	assert.Equal(t, []string{"00001_a"}, sum.Applied)
}

func TestRunMigrationFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.seed("00001_a", nil, nil)
	f.r.Prompt = &prompt.Static{Answer: true}
	f.r.Migrator = testkit.Failing(errors.New("exit status 1"))

	_, err := f.r.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, seederr.Migration, seederr.KindOf(err))
	assert.Empty(t, f.calls)
}

func TestRunEmptyOrMissingDirectory(t *testing.T) {
	f := newFixture(t)
	f.r.Dir = filepath.Join(f.dir, "does-not-exist")

	sum, err := f.r.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sum.Applied)
}

// ─── Rollback ─────────────────────────────────────────────────────────────────

func TestRollbackRevertsNewestExecutionFirst(t *testing.T) {
	f := newFixture(t)
	// File order is the opposite of execution order.
	f.seed("00001_b", nil, nil)
	f.seed("00002_a", nil, nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f.recordAt("00002_a", base)
	f.recordAt("00001_b", base.Add(time.Minute))

	sum, err := f.r.Rollback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"revert:00001_b", "revert:00002_a"}, f.calls)
	assert.Equal(t, []string{"00001_b", "00002_a"}, sum.Reverted)
	assert.Empty(t, f.recorded())
}

func TestRollbackEmptyLedgerTouchesNoFiles(t *testing.T) {
	f := newFixture(t)
	f.r.Dir = filepath.Join(f.dir, "does-not-exist")

	sum, err := f.r.Rollback(context.Background())
	require.NoError(t, err, "missing ledger table counts as empty")
	assert.Empty(t, sum.Reverted)

	_, err = f.r.Tracker.EnsureStorage(context.Background())
	require.NoError(t, err)
	sum, err = f.r.Rollback(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sum.Reverted)
	assert.Empty(t, f.calls)
}

func TestRollbackSkipsMissingFileAndKeepsRecord(t *testing.T) {
	f := newFixture(t)
	f.seed("00001_a", nil, nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f.recordAt("00001_a", base)
	f.recordAt("00002_deleted", base.Add(time.Minute))

	sum, err := f.r.Rollback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"revert:00001_a"}, f.calls)
	assert.Equal(t, []runner.Skip{{Name: "00002_deleted", Reason: metrics.SkipFileMissing}}, sum.Skipped)
	assert.Equal(t, []string{"00002_deleted"}, f.recorded())
}

func TestRollbackAbortsOnFailure(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("fk violation")
	f.seed("00001_a", nil, nil)
	f.seed("00002_b", nil, boom)
	f.seed("00003_c", nil, nil)

	_, err := f.r.Run(context.Background())
	require.NoError(t, err)
	f.calls = nil

	sum, err := f.r.Rollback(context.Background())
	require.Error(t, err)
	assert.Equal(t, seederr.SeedExecution, seederr.KindOf(err))
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"revert:00003_c", "revert:00002_b"}, f.calls, "A is never reverted")
	assert.Equal(t, []string{"00003_c"}, sum.Reverted)
	assert.Equal(t, []string{"00001_a", "00002_b"}, f.recorded())
}

func TestRollbackSkipsSeedWithoutRevert(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "00001_forward_only.sql"),
		[]byte("-- +seed Apply\nSELECT 1;\n"), 0o644))

	_, err := f.r.Run(context.Background())
	require.NoError(t, err)

	sum, err := f.r.Rollback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, metrics.SkipNoEntryPoint, sum.Skipped[0].Reason)
	assert.Equal(t, []string{"00001_forward_only"}, f.recorded())
}

func TestRunThenRollbackSQLSeed(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Exec("CREATE TABLE users (name TEXT, email TEXT PRIMARY KEY)").Error)
	require.NoError(t, f.db.Exec("INSERT INTO users VALUES ('Real', 'real@example.com')").Error)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "20260101000000_users.sql"), []byte(`-- +seed Apply
INSERT INTO users (name, email)
VALUES ('Example Name', 'example@example.com')
ON CONFLICT (email) DO NOTHING;

-- +seed Revert
DELETE FROM users WHERE email = 'example@example.com';
`), 0o644))

	ctx := context.Background()
	_, err := f.r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), testkit.Count(t, f.db, "users"))

	_, err = f.r.Rollback(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), testkit.Count(t, f.db, "users"), "rows not created by the seed survive")
	assert.Empty(t, f.recorded())
}

// ─── Status ───────────────────────────────────────────────────────────────────

func TestStatusReportsPendingAppliedAndOrphaned(t *testing.T) {
	f := newFixture(t)
	f.seed("00001_a", nil, nil)
	f.seed("00002_b", nil, nil)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f.recordAt("00001_a", at)
	f.recordAt("00000_gone", at)

	entries, err := f.r.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "00001_a", entries[0].Name)
	assert.True(t, entries[0].Applied)
	assert.True(t, entries[0].ExecutedAt.Equal(at))
	assert.Equal(t, runner.Entry{Name: "00002_b"}, entries[1])
	assert.Equal(t, "00000_gone", entries[2].Name)
	assert.True(t, entries[2].Orphaned)
}

func TestStatusWithoutLedger(t *testing.T) {
	f := newFixture(t)
	f.seed("00001_a", nil, nil)

	entries, err := f.r.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []runner.Entry{{Name: "00001_a"}}, entries)
}
