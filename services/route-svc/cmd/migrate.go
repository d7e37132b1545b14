package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"routefinder/migrations"
	"routefinder/pkg/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Manage the audit_logs schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE:      runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	action := "up"
	if len(args) == 1 {
		action = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initLogger(cfg, cfg.Log.Output)

	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db.Pool, migrations.Postgres())
	if err != nil {
		return err
	}
	defer migrator.Close()

	switch action {
	case "down":
		return migrator.Down(ctx)
	case "status":
		states, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range states {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%05d %-8s %s\n", s.Version, state, s.Path)
		}
		return nil
	default:
		return migrator.Up(ctx)
	}
}
