package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/migrations"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE:  runMigrate(true),
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest migration",
	RunE:  runMigrate(false),
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and whether they're applied",
	RunE:  runMigrateStatus,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
}

// runMigrate changes the schema, then drops the row cache since cached rows may no longer match it
func runMigrate(up bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		log := logrus.NewEntry(logrus.StandardLogger())

		c, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		m, err := migrations.New(c.write.DB)
		if err != nil {
			return err
		}

		if up {
			n, err := m.Up(ctx)
			if err != nil {
				return err
			}
			log.WithField("applied", n).Info("migrations applied")
		} else {
			if err := m.Down(ctx); err != nil {
				return err
			}
			log.Info("rolled back one migration")
		}

		st, err := newStore(cfg, c, log)
		if err != nil {
			return err
		}
		return st.ClearCache(ctx)
	}
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := sqlx.ConnectContext(cmd.Context(), "postgres", cfg.Database.WriteDSN)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	m, err := migrations.New(db.DB)
	if err != nil {
		return err
	}
	statuses, err := m.Status(cmd.Context())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tFILE\tAPPLIED")
	for _, s := range statuses {
		fmt.Fprintf(tw, "%d\t%s\t%t\n", s.Version, s.File, s.Applied)
	}
	return tw.Flush()
}
