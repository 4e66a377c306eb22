package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/achievesync/pkg/logging"
)

// NewLogger creates a configured logger based on the application configuration.
// Log level precedence (highest to lowest):
//  1. --log-level flag (explicit always wins)
//  2. -v/--verbose flag (shortcut for debug)
//  3. -q/--quiet flag (shortcut for warn)
//  4. log_level from the config file or ACHIEVESYNC_LOG_LEVEL
//  5. Default (info)
func NewLogger(cfg *Config) zerolog.Logger {
	level := determineLogLevel(cfg)

	logConfig := logging.DefaultConfig()
	logConfig.Level = level
	logConfig.NoColor = logConfig.NoColor || cfg.NoColor
	logConfig.AddCaller = level == "debug" || level == "trace"
	if cfg.Settings != nil {
		logConfig.Format = cfg.Settings.LogFormat
		logConfig.Output = cfg.Settings.LogOutput
	}

	return logging.NewLoggerFromConfig(logConfig)
}

// determineLogLevel determines the log level using clear precedence rules.
func determineLogLevel(cfg *Config) string {
	if cfg.LogLevel != "" {
		validated := validateLogLevel(cfg.LogLevel)
		if validated != cfg.LogLevel {
			fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using %q\n", cfg.LogLevel, validated)
		}
		return validated
	}

	if cfg.Verbose && cfg.Quiet {
		fmt.Fprintf(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet\n")
		return "warn"
	}
	if cfg.Verbose {
		return "debug"
	}
	if cfg.Quiet {
		return "warn"
	}

	if cfg.Settings != nil && cfg.Settings.LogLevel != "" {
		return validateLogLevel(cfg.Settings.LogLevel)
	}
	return "info"
}

// validateLogLevel returns level when it is known, otherwise "info".
func validateLogLevel(level string) string {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return level
	default:
		return "info"
	}
}
