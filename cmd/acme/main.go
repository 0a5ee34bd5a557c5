package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/config"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/logging"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "acme",
	Short:         "Acme Motors dealership API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "acme.yaml", "path to the YAML config file")

	rootCmd.AddCommand(serveCmd, migrateCmd, usersCmd, vapidCmd)
}

// loadConfig reads the config and sets up logging from it
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
