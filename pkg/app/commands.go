package app

// commands.go — the seedkit sub-commands. Each one builds its collaborators
// from config, runs, and releases the database before returning.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/seedkit/config"
	"github.com/shashiranjanraj/seedkit/pkg/database"
	"github.com/shashiranjanraj/seedkit/pkg/generator"
	"github.com/shashiranjanraj/seedkit/pkg/logger"
	"github.com/shashiranjanraj/seedkit/pkg/metrics"
	"github.com/shashiranjanraj/seedkit/pkg/runner"
	"github.com/shashiranjanraj/seedkit/pkg/seeder"
)

// seedkit generate [name]
func (a *Application) generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate [name]",
		Short: "Create a new seed file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog, err := a.boot()
			if err != nil {
				return err
			}
			defer closeLog()

			var name string
			if len(args) == 1 {
				name = args[0]
			} else if name, err = a.Prompt.Input("Seed name"); err != nil {
				return err
			}

			root, err := a.root()
			if err != nil {
				return err
			}
			g := generator.New(root, a.seedDir(), config.SeedNumbering(), log)
			g.Template = config.SeedTemplate()

			res, err := g.Generate(name)
			if err != nil {
				return err
			}
			if res.Created {
				pterm.Success.WithWriter(a.Stdout).Printfln("Created %s", a.rel(root, res.Path))
			} else {
				pterm.Warning.WithWriter(a.Stdout).Printfln("%s already exists", a.rel(root, res.Path))
			}
			return nil
		},
	}
}

// seedkit run
func (a *Application) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Apply every pending seed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRunner(cmd.Context(), "run", func(ctx context.Context, r *runner.Runner) error {
				sum, err := r.Run(ctx)
				a.printSummary(sum)
				return err
			})
		},
	}
}

// seedkit rollback
func (a *Application) rollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Revert every applied seed, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRunner(cmd.Context(), "rollback", func(ctx context.Context, r *runner.Runner) error {
				sum, err := r.Rollback(ctx)
				a.printSummary(sum)
				return err
			})
		},
	}
}

// seedkit status
func (a *Application) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which seeds have been applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRunner(cmd.Context(), "status", func(ctx context.Context, r *runner.Runner) error {
				entries, err := r.Status(ctx)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					pterm.Info.WithWriter(a.Stdout).Printfln("No seeds found in %s", r.Dir)
					return nil
				}

				data := pterm.TableData{{"Seed", "Status", "Executed at"}}
				for _, e := range entries {
					state, at := "pending", ""
					if e.Applied {
						state, at = "applied", e.ExecutedAt.Local().Format(time.DateTime)
					}
					if e.Orphaned {
						state = "applied (file missing)"
					}
					data = append(data, []string{e.Name, state, at})
				}
				return pterm.DefaultTable.WithHasHeader().WithWriter(a.Stdout).WithData(data).Render()
			})
		},
	}
}

// seedkit migrate (only with AutoMigrate models)
func (a *Application) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Auto-migrate the registered models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRunner(cmd.Context(), "migrate", func(ctx context.Context, r *runner.Runner) error {
				m := &runner.AutoMigrator{DB: r.DB, Models: a.models, Log: r.Log}
				if err := m.Migrate(ctx); err != nil {
					return err
				}
				pterm.Success.WithWriter(a.Stdout).Printfln("Migrated %d models", len(a.models))
				return nil
			})
		},
	}
}

func (a *Application) migrator(db *gorm.DB, root string, log *slog.Logger) runner.Migrator {
	switch {
	case a.Migrator != nil:
		return a.Migrator
	case len(a.models) > 0:
		return &runner.AutoMigrator{DB: db, Models: a.models, Log: log}
	default:
		return runner.NewCommandMigrator(config.MigrateCommand(), config.MigrateFallbackCommand(), root, log)
	}
}

// withRunner opens the database, builds a Runner and always releases the
// connection. Metrics are written after the pass when SEED_METRICS_FILE is
// set.
func (a *Application) withRunner(ctx context.Context, command string, fn func(context.Context, *runner.Runner) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log, closeLog, err := a.boot()
	if err != nil {
		return err
	}
	defer closeLog()
	log = log.With("command", command)

	db, err := a.bootDB(ctx, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	root, err := a.root()
	if err != nil {
		return err
	}

	r := runner.New(db, config.SeedTable(), filepath.Join(root, a.seedDir()), log)
	r.Loader = seeder.NewLoader(a.Registry)
	r.Prompt = a.Prompt
	r.Migrator = a.migrator(db, root, log)
	r.Metrics = metrics.New()

	err = fn(ctx, r)
	r.Metrics.Finished(command, err, time.Now())
	if werr := r.Metrics.WriteFile(config.MetricsFile()); werr != nil {
		log.Warn("could not write metrics file", "path", config.MetricsFile(), "error", werr)
	}
	return err
}

// boot loads config and builds the logger.
func (a *Application) boot() (*slog.Logger, func(), error) {
	if err := config.Load(); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	log, closeLog, err := logger.New(logger.Options{
		Env:             config.AppEnv(),
		Verbose:         a.verbose,
		Writer:          a.Stderr,
		MongoURI:        config.LogMongoURI(),
		MongoDB:         config.LogMongoDB(),
		MongoCollection: config.LogMongoCollection(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return log, closeLog, nil
}

func (a *Application) bootDB(ctx context.Context, log *slog.Logger) (*gorm.DB, error) {
	driver, dsn := config.DatabaseDriver(), config.DatabaseDSN()
	log.Debug("connecting to database", "driver", driver, "dsn", database.MaskDSN(dsn))
	return database.Open(ctx, driver, dsn)
}

func (a *Application) root() (string, error) {
	if a.Root != "" {
		return a.Root, nil
	}
	return os.Getwd()
}

func (a *Application) seedDir() string {
	if a.dir != "" {
		return a.dir
	}
	return config.SeedDir()
}

func (a *Application) rel(root, path string) string {
	if r, err := filepath.Rel(root, path); err == nil {
		return r
	}
	return path
}

func (a *Application) printSummary(sum runner.Summary) {
	out := a.Stdout
	for _, name := range sum.Applied {
		pterm.Success.WithWriter(out).Printfln("Applied %s", name)
	}
	for _, name := range sum.Reverted {
		pterm.Success.WithWriter(out).Printfln("Reverted %s", name)
	}
	for _, s := range sum.Skipped {
		pterm.Info.WithWriter(out).Printfln("Skipped %s (%s)", s.Name, s.Reason)
	}
}
