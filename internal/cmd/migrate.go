package cmd

import (
	"log/slog"

	"github.com/gltp/captrack/internal/config"
	"github.com/gltp/captrack/internal/database"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var downAll bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(_ *cobra.Command, _ []string) error {
			conf, errConfig := config.Read(cfgFile)
			if errConfig != nil {
				return errConfig
			}

			action := database.MigrateUp
			if downAll {
				action = database.MigrateDn
			}

			if errMigrate := database.Migrate(conf.DB.DSN, action); errMigrate != nil {
				return errMigrate
			}

			slog.Info("Migration complete")

			return nil
		},
	}

	cmd.Flags().BoolVarP(&downAll, "down", "d", false, "Fully reverts all migrations")

	return cmd
}
