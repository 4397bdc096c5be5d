package main

import (
	"os"

	"github.com/jmylchreest/lumend/cmd/lumenctl/commands"
	"github.com/jmylchreest/lumend/internal/config"
	"github.com/jmylchreest/lumend/internal/utils"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// Load configuration; a missing client config file just means defaults.
	cfg, err := config.Load(config.ClientConfigFilename, "")
	if err != nil {
		logger := utils.SetupErrorLogger()
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logging with the configured level and format
	logger := utils.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	utils.SetAsDefaultLogger(logger)
	if _, err := os.Stat(config.GetClientConfigPath()); os.IsNotExist(err) {
		logger.Debug("no client configuration found, using defaults", "path", config.GetClientConfigPath())
	}

	rootCmd := commands.NewRootCommand(logger, version, commit, buildDate)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
