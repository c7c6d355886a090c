package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fulfillment-backend/internal/config"
	"fulfillment-backend/internal/infrastructure/database"
	"fulfillment-backend/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dir, dsn string

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the fulfillment database schema",
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger.Init(os.Getenv("APP_ENV"))
		},
	}
	root.PersistentFlags().StringVar(&dir, "dir", "migrations", "directory containing the migration files")
	root.PersistentFlags().StringVar(&dsn, "database-url", os.Getenv("DATABASE_URL"), "postgres DSN; built from DB_* variables when empty")

	withMigrator := func(fn func(m *database.Migrator, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			url := dsn
			if url == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				url = cfg.Database.URL()
			}
			m, err := database.NewMigrator(url, dir)
			if err != nil {
				return err
			}
			defer m.Close()
			return fn(m, args)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *database.Migrator, _ []string) error {
				if err := m.Up(); err != nil {
					return fmt.Errorf("migrate up: %w", err)
				}
				return printVersion(m)
			}),
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations, all of them when steps is omitted",
			Args:  cobra.MaximumNArgs(1),
			RunE: withMigrator(func(m *database.Migrator, args []string) error {
				steps := 0
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n <= 0 {
						return fmt.Errorf("steps must be a positive integer, got %q", args[0])
					}
					steps = n
				}
				if err := m.Down(steps); err != nil {
					return fmt.Errorf("migrate down: %w", err)
				}
				return printVersion(m)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *database.Migrator, _ []string) error {
				return printVersion(m)
			}),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the schema version without running migrations, clearing the dirty flag",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(m *database.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(v)
			}),
		},
	)
	return root
}

func printVersion(m *database.Migrator) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	fmt.Printf("schema version %d (dirty: %t)\n", v, dirty)
	return nil
}
