package ctl

import (
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/kidsgram/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
)

type dbFlags struct {
	driver string
	dsn    string
}

func (f *dbFlags) bind(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.driver, "driver", "", "database driver (pgx or sqlite)")
	cmd.PersistentFlags().StringVar(&f.dsn, "dsn", "", "database connection string")
}

// open resolves the driver and DSN, flags first, and connects.
func (f *dbFlags) open() (repomanager.RepositoryManager, *sql.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	driver, dsn := cfg.DatabaseDriver, cfg.DatabaseDSN
	if f.driver != "" {
		driver = f.driver
	}
	if f.dsn != "" {
		dsn = f.dsn
	}

	rm, err := repomanager.New(driver)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open(rm.Driver(), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return rm, db, nil
}

func newMigrateCmd() *cobra.Command {
	var flags dbFlags

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the entries schema",
	}
	flags.bind(cmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rm, db, err := flags.open()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := rm.RunMigrations(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			v, err := rm.MigrationVersion(cmd.Context(), db)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rm, db, err := flags.open()
			if err != nil {
				return err
			}
			defer db.Close()

			v, err := rm.MigrationVersion(cmd.Context(), db)
			if err != nil {
				return fmt.Errorf("migrate version: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	})

	return cmd
}
