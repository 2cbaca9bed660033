package cmd

import (
	"log/slog"

	"github.com/gltp/captrack/internal/app"
	"github.com/gltp/captrack/internal/config"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Starts the captrack service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			conf, errConfig := config.Read(cfgFile)
			if errConfig != nil {
				return errConfig
			}

			application := app.New(conf)

			defer func() {
				if errClose := application.Close(); errClose != nil {
					slog.Error("Error closing", slog.String("error", errClose.Error()))
				}
			}()

			if errInit := application.Init(ctx); errInit != nil {
				return errInit
			}

			return application.Serve(ctx)
		},
	}
}
