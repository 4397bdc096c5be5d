package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Logging  LoggingConfig
	Hardware HardwareConfig
	Fixtures FixturesConfig

	// Internal viper instance
	v *viper.Viper
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// HardwareConfig selects and parameterizes the hardware backend
type HardwareConfig struct {
	// Driver names the backend; "sim" is the in-memory simulator.
	Driver string
	// Bits is the duty resolution applied to channels at startup.
	Bits int
	// FreqHz is the PWM frequency applied to channels at startup.
	FreqHz int `mapstructure:"freq_hz"`
}

// FixturesConfig points at the light fixture definitions
type FixturesConfig struct {
	File string
}

// Load loads configuration from a file and environment variables
func Load(configName, configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")

	// Set default values
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("logging.format", LogFormatText)
	v.SetDefault("hardware.driver", "sim")
	v.SetDefault("hardware.bits", DefaultPWMBits)
	v.SetDefault("hardware.freq_hz", DefaultPWMFreqHz)
	v.SetDefault("fixtures.file", GetConfigPath(FixturesFilename))

	// Add config paths
	if configFile != "" {
		v.SetConfigFile(configFile)
		slog.Info("Using config file from command line", "path", configFile)
	} else {
		configPath := GetConfigPath(configName)
		v.SetConfigFile(configPath)

		// Create config directory if it doesn't exist
		if err := os.MkdirAll(GetConfigBaseDir(), 0755); err != nil {
			return nil, fmt.Errorf("error creating config directory: %w", err)
		}

		// Only log if config file exists
		if _, err := os.Stat(configPath); err == nil {
			slog.Info("Using default config file", "path", configPath)
		}
	}

	// Read config file - Viper will use defaults if file not found
	v.ReadInConfig()

	// Bind environment variables
	v.SetEnvPrefix("LUMEND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{v: v}
	cfg.reload()
	return cfg, nil
}

// reload copies the current viper values into the typed fields.
func (c *Config) reload() {
	c.Logging = LoggingConfig{
		Level:  c.v.GetString("logging.level"),
		Format: c.v.GetString("logging.format"),
	}
	c.Hardware = HardwareConfig{
		Driver: c.v.GetString("hardware.driver"),
		Bits:   c.v.GetInt("hardware.bits"),
		FreqHz: c.v.GetInt("hardware.freq_hz"),
	}
	c.Fixtures = FixturesConfig{
		File: c.v.GetString("fixtures.file"),
	}
}

// Watch re-reads the config file whenever it changes on disk and invokes
// onChange with the refreshed configuration. The callback runs on the
// watcher's goroutine.
func (c *Config) Watch(onChange func(*Config)) {
	c.v.OnConfigChange(func(e fsnotify.Event) {
		slog.Debug("config file changed", "path", e.Name, "op", e.Op.String())
		c.reload()
		if onChange != nil {
			onChange(c)
		}
	})
	c.v.WatchConfig()
}

// Save saves the configuration to file
func (c *Config) Save(filename string) error {
	logger := slog.Default()
	configPath := GetConfigPath(filename)

	logger.Info("Saving configuration", "path", configPath)

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(GetConfigBaseDir(), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Set config file path
	c.v.SetConfigFile(configPath)

	// Update viper with current values
	c.v.Set("logging", c.Logging)
	c.v.Set("hardware", c.Hardware)
	c.v.Set("fixtures", c.Fixtures)

	// Write config - Viper will create the file if it doesn't exist
	if err := c.v.WriteConfig(); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	logger.Info("Configuration saved successfully", "path", configPath)
	return nil
}

// Get retrieves a value from the configuration
func (c *Config) Get(key string) interface{} {
	if c.v == nil {
		return nil
	}
	return c.v.Get(key)
}

// Set sets a value in the configuration
func (c *Config) Set(key string, value interface{}) {
	if c.v == nil {
		return
	}
	c.v.Set(key, value)
}
