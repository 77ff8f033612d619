package metrics_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/seedkit/pkg/metrics"
)

func TestCountersAndTextfile(t *testing.T) {
	m := metrics.New()
	m.Applied(20 * time.Millisecond)
	m.Applied(30 * time.Millisecond)
	m.Reverted(time.Millisecond)
	m.Skipped(metrics.SkipAlreadyApplied)
	m.Finished("run", nil, time.Unix(1_700_000_000, 0))
	m.Finished("rollback", errors.New("boom"), time.Unix(1_700_000_000, 0))

	n, err := testutil.GatherAndCount(m.Registry, "seedkit_seeds_applied_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	path := filepath.Join(t.TempDir(), "seedkit.prom")
	require.NoError(t, m.WriteFile(path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "seedkit_seeds_applied_total 2")
	assert.Contains(t, text, "seedkit_seeds_reverted_total 1")
	assert.Contains(t, text, `seedkit_seeds_skipped_total{reason="already_applied"} 1`)
	assert.Contains(t, text, `seedkit_last_run_success{command="run"} 1`)
	assert.Contains(t, text, `seedkit_last_run_success{command="rollback"} 0`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.Applied(time.Second)
	m.Skipped(metrics.SkipFileMissing)
	m.Finished("run", nil, time.Now())
	assert.NoError(t, m.WriteFile(filepath.Join(t.TempDir(), "x.prom")))
	assert.NoError(t, metrics.New().WriteFile(""))
}
