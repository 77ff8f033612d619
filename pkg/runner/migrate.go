package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"gorm.io/gorm"
)

// Migrator brings the schema up to date before seeds run.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// CommandMigrator shells out to the project's migration command, e.g.
// "go run . migrate". When the primary command fails because the
// environment is non-interactive and Fallback is set, Fallback runs instead.
type CommandMigrator struct {
	Command  string
	Fallback string
	Dir      string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Log    *slog.Logger
}

// NewCommandMigrator runs commands in dir with the process's stdio.
func NewCommandMigrator(command, fallback, dir string, log *slog.Logger) *CommandMigrator {
	return &CommandMigrator{
		Command:  command,
		Fallback: fallback,
		Dir:      dir,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Log:      log,
	}
}

func (m *CommandMigrator) Migrate(ctx context.Context) error {
	m.Log.Info("running migrations", "command", m.Command)
	out, err := m.exec(ctx, m.Command)
	if err == nil {
		return nil
	}
	if m.Fallback == "" || !strings.Contains(strings.ToLower(out), "non-interactive") {
		return fmt.Errorf("%s: %w", m.Command, err)
	}

	m.Log.Warn("environment is non-interactive, applying existing migrations", "command", m.Fallback)
	if _, err := m.exec(ctx, m.Fallback); err != nil {
		return fmt.Errorf("%s: %w", m.Fallback, err)
	}
	return nil
}

// exec runs command with inherited stdio and returns what it wrote to
// stdout and stderr.
func (m *CommandMigrator) exec(ctx context.Context, command string) (string, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return "", errors.New("empty migration command")
	}

	var captured bytes.Buffer
	c := exec.CommandContext(ctx, args[0], args[1:]...)
	c.Dir = m.Dir
	c.Stdin = m.Stdin
	c.Stdout = io.MultiWriter(m.Stdout, &captured)
	c.Stderr = io.MultiWriter(m.Stderr, &captured)
	c.Env = os.Environ()
	err := c.Run()
	return captured.String(), err
}

// AutoMigrator migrates gorm models in-process, for projects that declare
// their schema as structs rather than through a migration tool.
type AutoMigrator struct {
	DB     *gorm.DB
	Models []any
	Log    *slog.Logger
}

func (m *AutoMigrator) Migrate(ctx context.Context) error {
	if m.Log != nil {
		m.Log.Info("auto-migrating models", "count", len(m.Models))
	}
	return m.DB.WithContext(ctx).AutoMigrate(m.Models...)
}
