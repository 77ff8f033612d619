// Package app provides the seedkit command line.
//
// # Stock binary (SQL seeds)
//
//	go install github.com/shashiranjanraj/seedkit/cmd/seedkit@latest
//	seedkit generate users
//	seedkit run
//
// # Embedded in your project (Go seeds)
//
// Go seeds register themselves from init(), so they must be compiled into
// the binary that runs them. Add a command to your project:
//
//	package main
//
//	import (
//	    "github.com/shashiranjanraj/seedkit/pkg/app"
//	    _ "yourproject/database/seeders"
//	)
//
//	func main() { app.New().Run() }
//
// and invoke it with:
//
//	go run ./cmd/seed run
//	go run ./cmd/seed rollback
package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/seedkit/pkg/prompt"
	"github.com/shashiranjanraj/seedkit/pkg/runner"
	"github.com/shashiranjanraj/seedkit/pkg/seeder"
	"github.com/shashiranjanraj/seedkit/pkg/seederr"
)

// Application wires configuration, database and console into the seedkit
// commands. Zero fields fall back to the process defaults.
type Application struct {
	Registry *seeder.Registry
	Prompt   prompt.Prompter
	Migrator runner.Migrator // nil uses SEED_MIGRATE_CMD
	Root     string          // project root; "" means the working directory

	Stdout io.Writer
	Stderr io.Writer

	models  []any
	verbose bool
	dir     string
}

// New creates an Application using the default seed registry, the terminal
// prompter and the process's stdio.
func New() *Application {
	return &Application{
		Registry: seeder.DefaultRegistry,
		Prompt:   prompt.NewTerminal(),
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

// AutoMigrate registers gorm models. With models registered the CLI gains a
// "migrate" command, and the migration offer on a fresh ledger migrates them
// in-process instead of shelling out to SEED_MIGRATE_CMD.
//
//	app.New().AutoMigrate(&models.User{}, &models.Role{}).Run()
func (a *Application) AutoMigrate(models ...any) *Application {
	a.models = append(a.models, models...)
	return a
}

// Command builds the cobra command tree.
func (a *Application) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "seedkit",
		Short:         "seedkit — versioned database seeds",
		Long:          "seedkit generates, applies and reverts database seed files, recording each applied seed in a ledger table.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError(fmt.Errorf("unknown command %q", args[0]))
			}
			return usageError(errors.New("a command is required"))
		},
	}
	root.Args = cobra.ArbitraryArgs
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError(err) })

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output")
	root.PersistentFlags().StringVar(&a.dir, "dir", "", "seed directory (overrides SEED_DIR)")

	root.AddCommand(a.generateCmd())
	root.AddCommand(a.runCmd())
	root.AddCommand(a.rollbackCmd())
	root.AddCommand(a.statusCmd())
	if len(a.models) > 0 {
		root.AddCommand(a.migrateCmd())
	}
	return root
}

// Execute runs the command tree against args. Usage errors print the usage
// text to stderr; every error is returned for the caller to turn into an
// exit status.
func (a *Application) Execute(args []string) error {
	if a.Stdout == nil {
		a.Stdout = os.Stdout
	}
	if a.Stderr == nil {
		a.Stderr = os.Stderr
	}

	if args == nil {
		args = []string{} // cobra reads os.Args on nil
	}
	root := a.Command()
	root.SetArgs(args)
	cmd, err := root.ExecuteC()
	if err == nil {
		return nil
	}

	fmt.Fprintln(a.Stderr, "Error:", err)
	var ue *usageErr
	if errors.As(err, &ue) || isArgsError(err) {
		if cmd == nil {
			cmd = root
		}
		fmt.Fprint(a.Stderr, cmd.UsageString())
	}
	return err
}

// Run executes os.Args and exits 1 on failure. This is the only call a
// project's main needs.
func (a *Application) Run() {
	if err := a.Execute(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

type usageErr struct{ err error }

func (e *usageErr) Error() string { return e.err.Error() }
func (e *usageErr) Unwrap() error { return e.err }

func usageError(err error) error { return &usageErr{err: err} }

// isArgsError matches the messages cobra's positional-argument validators
// produce.
func isArgsError(err error) bool {
	if seederr.KindOf(err) != "" {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "accepts ") || strings.HasPrefix(msg, "unknown command")
}
