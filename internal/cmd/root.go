// Package cmd implements the CLI of the application.
//
// serve   - The main application service entry point
// parse   - Parse a single replay and print the capture record
// migrate - Initiate a database migration manually
package cmd

import (
	"os"

	"github.com/gltp/captrack/internal/app"
	"github.com/spf13/cobra"
)

var cfgFile string //nolint:gochecknoglobals

//nolint:gochecknoglobals
var rootCmd = &cobra.Command{
	Use:   "captrack",
	Short: "Capture record tracking service",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	setupCLI()

	if errExecute := rootCmd.Execute(); errExecute != nil {
		os.Exit(1)
	}
}

func setupCLI() {
	if app.BuildVersion == "" {
		app.BuildVersion = "master"
	}

	rootCmd.Version = app.BuildVersion
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./captrack.yaml)")
}
