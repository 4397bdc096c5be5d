package config

// Common constants shared between daemon and client
const (
	// ConfigDirName is the name of the config directory within XDG_CONFIG_HOME
	ConfigDirName = "lumend"

	// DaemonConfigFilename is the base filename for daemon config
	DaemonConfigFilename = "lumend.yaml"

	// ClientConfigFilename is the base filename for client config
	ClientConfigFilename = "lumenctl.yaml"

	// FixturesFilename is the base filename for the light fixture definitions
	FixturesFilename = "fixtures.yaml"
)

// Hardware defaults
const (
	// DefaultPWMBits is the default duty resolution for PWM channels
	DefaultPWMBits = 10

	// DefaultPWMFreqHz is the default PWM frequency
	DefaultPWMFreqHz = 2000

	// DefaultFadeMs is the default fade duration applied to fixtures that
	// don't set one
	DefaultFadeMs = 1000
)

// Logging constants
const (
	// LogLevelDebug represents debug log level
	LogLevelDebug = "debug"

	// LogLevelInfo represents info log level
	LogLevelInfo = "info"

	// LogLevelWarn represents warning log level
	LogLevelWarn = "warn"

	// LogLevelError represents error log level
	LogLevelError = "error"

	// LogFormatText represents text log format
	LogFormatText = "text"

	// LogFormatJSON represents JSON log format
	LogFormatJSON = "json"
)
