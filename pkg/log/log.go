package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var (
	// Logger is the global logger instance
	Logger zerolog.Logger
)

// Level represents log level
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// toZerolog maps a Level onto the zerolog scale, falling back to Info for
// anything unrecognized — including a config file's log_level being
// left blank or misspelled.
func (l Level) toZerolog() zerolog.Level {
	switch l {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// LevelFromString converts a config/flag string (config.Config.LogLevel)
// into a Level, defaulting to InfoLevel for anything else.
func LevelFromString(s string) Level {
	switch Level(s) {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel:
		return Level(s)
	default:
		return InfoLevel
	}
}

// Config holds logging configuration. FromAppConfig builds one from the
// process's merged pkg/config.Config rather than constructing it by hand
// at each call site.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// FromAppConfig maps the process-wide configuration's log_level/log_json
// fields onto a logging Config, writing to Stdout. The server and agent
// commands both call this instead of hardcoding a level.
func FromAppConfig(logLevel string, jsonOutput bool) Config {
	return Config{Level: LevelFromString(logLevel), JSONOutput: jsonOutput, Output: os.Stdout}
}

// Init initializes the global logger
func Init(cfg Config) {
	zerolog.SetGlobalLevel(cfg.Level.toZerolog())

	// Configure output
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	// Use JSON or console output
	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

// WithComponent creates a child logger with component field
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithNodeID creates a child logger with node_name field
func WithNodeID(nodeID string) zerolog.Logger {
	return Logger.With().Str("node_name", nodeID).Logger()
}

// WithPodID creates a child logger with pod field (namespace/name)
func WithPodID(namespace, name string) zerolog.Logger {
	return Logger.With().Str("pod", namespace+"/"+name).Logger()
}

// WithNamespace creates a child logger with namespace field
func WithNamespace(namespace string) zerolog.Logger {
	return Logger.With().Str("namespace", namespace).Logger()
}

// Helper functions for common logging patterns
func Info(msg string) {
	Logger.Info().Msg(msg)
}

func Debug(msg string) {
	Logger.Debug().Msg(msg)
}

func Warn(msg string) {
	Logger.Warn().Msg(msg)
}

func Error(msg string) {
	Logger.Error().Msg(msg)
}

func Errorf(format string, err error) {
	Logger.Error().Err(err).Msg(format)
}

func Fatal(msg string) {
	Logger.Fatal().Msg(msg)
}
