package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jmylchreest/lumend/internal/config"
	"github.com/jmylchreest/lumend/internal/driver/sim"
	"github.com/jmylchreest/lumend/internal/events"
	"github.com/jmylchreest/lumend/internal/lightmgr"
	"github.com/jmylchreest/lumend/internal/utils"
	"github.com/jmylchreest/lumend/pkg/fader"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// Set up Viper for configuration
	v := viper.New()
	v.SetEnvPrefix("LUMEND")
	v.AutomaticEnv()

	// Set up command line flags
	pflag.String("log-level", "info", "Log level (debug, info, warn, error)")
	pflag.String("log-format", "text", "Log format (text, json)")
	pflag.String("config", "", "Path to config file")
	pflag.String("fixtures", "", "Path to fixtures file")
	pflag.Parse()

	// Bind flags to Viper - this ensures flags take precedence
	v.BindPFlag("logging.level", pflag.Lookup("log-level"))
	v.BindPFlag("logging.format", pflag.Lookup("log-format"))
	v.BindPFlag("fixtures.file", pflag.Lookup("fixtures"))

	// Load configuration
	cfg, err := config.Load(config.DaemonConfigFilename, v.GetString("config"))
	if err != nil {
		logger := utils.SetupErrorLogger()
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if f := v.GetString("fixtures.file"); f != "" {
		cfg.Fixtures.File = f
	}

	// Set up logging with configured level - Viper will use flag value if set
	logger := utils.SetupLogger(v.GetString("logging.level"), v.GetString("logging.format"))
	utils.SetAsDefaultLogger(logger)

	logger.Info("Starting lumend",
		"version", version,
		"commit", commit,
		"buildDate", buildDate,
	)

	// First run without an explicit config file: persist the defaults so the
	// operator has a file to edit.
	if v.GetString("config") == "" {
		if _, err := os.Stat(config.GetDaemonConfigPath()); os.IsNotExist(err) {
			if err := cfg.Save(config.DaemonConfigFilename); err != nil {
				logger.Warn("failed to write default configuration", "error", err)
			}
		}
	}

	if cfg.Hardware.Driver != "sim" {
		logger.Error("unknown hardware driver", "driver", cfg.Hardware.Driver)
		os.Exit(1)
	}
	pwm := sim.NewPWM(logger)
	gpio := sim.NewGPIO(logger)
	defer pwm.Close()

	fc := fader.NewCoordinator(logger, pwm)
	defer fc.Stop()

	bus := events.NewBus()
	manager := lightmgr.NewManager(logger, bus)
	defer manager.Close()

	fixtures, err := config.LoadFixtures(cfg.Fixtures.File)
	if err != nil {
		logger.Error("failed to load fixtures", "error", err)
		os.Exit(1)
	}
	if err := buildLights(logger, cfg, fixtures, pwm, gpio, fc, manager); err != nil {
		logger.Error("failed to build lights", "error", err)
		os.Exit(1)
	}
	logger.Info("lights ready", "count", len(manager.LightIDs()))

	// Runtime log level follows the config file.
	cfg.Watch(func(c *config.Config) {
		logger.Info("configuration reloaded", "level", c.Logging.Level)
		utils.SetLevel(c.Logging.Level)
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down...")
}
