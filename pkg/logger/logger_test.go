package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log, closeLog, err := New(Options{Env: "production", Writer: &buf})
	require.NoError(t, err)
	defer closeLog()

	log.Info("seed applied", "seed", "00001_users")
	log.Debug("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "seed applied", line["msg"])
	assert.Equal(t, "00001_users", line["seed"])
}

func TestVerboseIncludesDebug(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Options{Env: "prod", Verbose: true, Writer: &buf})
	require.NoError(t, err)

	log.Debug("probe", "table", "seed_executions")
	assert.Contains(t, buf.String(), `"level":"DEBUG"`)
}

func TestLocalUsesPterm(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Options{Env: "local", Writer: &buf})
	require.NoError(t, err)

	log.Warn("seed file not found", "file", "00002_b.sql")
	assert.Contains(t, buf.String(), "seed file not found")
	assert.Contains(t, buf.String(), "00002_b.sql")
}

func TestToDocumentLiftsSeedAndCommand(t *testing.T) {
	r := slog.NewRecord(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), slog.LevelInfo, "seed applied", 0)
	r.AddAttrs(slog.String("seed", "00001_users"), slog.Int("statements", 2))

	doc := toDocument(r, []slog.Attr{slog.String("command", "run")}, []string{"runner"})

	assert.Equal(t, "INFO", doc.Level)
	assert.Equal(t, "seed applied", doc.Msg)
	assert.Equal(t, "run", doc.Command)
	assert.Equal(t, "00001_users", doc.Seed)
	assert.Equal(t, int64(2), doc.Attrs["runner.statements"])
}

type countingHandler struct {
	slog.Handler
	n *int
}

func (c countingHandler) Handle(_ context.Context, _ slog.Record) error {
	*c.n++
	return nil
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b int
	base := slog.NewTextHandler(&bytes.Buffer{}, nil)
	m := NewMultiHandler(countingHandler{base, &a}, countingHandler{base, &b})

	slog.New(m).Info("hello")
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}
