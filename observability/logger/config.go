// Package logger provides a structured logging interface for applications.
package logger

import (
	"github.com/code19m/errx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	messageKey = "msg"
	levelKey   = "level"
	nameKey    = "logger"
	timeKey    = "time"

	// EncodingConsole selects colored, human-readable output.
	EncodingConsole = "console"
	// EncodingJSON selects compact JSON output.
	EncodingJSON = "json"

	levelDebug = "debug"
)

// Config defines configuration options for the logger.
type Config struct {
	// Level specifies the minimum log level to emit.
	// Valid values are: "debug", "info", "warn", "error"
	// Default is "info".
	Level string `yaml:"level" validate:"oneof=debug info warn error" default:"info"`

	// Encoding specifies the log format.
	// Valid values are: "json", "console"
	// Default is "json".
	//
	// When set to "console", log levels are colored and structured fields
	// are printed as indented JSON below the message line.
	Encoding string `yaml:"encoding" validate:"oneof=json console" default:"json"`

	// Disable creates no-op logger. Useful in testing environments. Default is false.
	Disable bool `yaml:"disable" default:"false"`
}

func (c Config) encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:     messageKey,
		LevelKey:       levelKey,
		NameKey:        nameKey,
		TimeKey:        timeKey,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
}

// getZapConfig converts the logger Config to a zap.Config.
func (c Config) getZapConfig() (*zap.Config, error) {
	zapLevel := zap.NewAtomicLevel()

	err := zapLevel.UnmarshalText([]byte(c.Level))
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &zap.Config{
		Level:            zapLevel,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		Encoding:         EncodingJSON,
		EncoderConfig:    c.encoderConfig(),
	}, nil
}
