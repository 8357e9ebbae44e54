package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarningStringConstant        = "warning"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logLevelCriticalStringConstant       = "critical"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	timestampFieldKeyConstant            = "ts"
	levelFieldKeyConstant                = "level"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug    LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo     LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarning  LogLevel = LogLevel(logLevelWarningStringConstant)
	LogLevelWarn     LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError    LogLevel = LogLevel(logLevelErrorStringConstant)
	LogLevelCritical LogLevel = LogLevel(logLevelCriticalStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug:    zapcore.DebugLevel,
	LogLevelInfo:     zapcore.InfoLevel,
	LogLevelWarning:  zapcore.WarnLevel,
	LogLevelWarn:     zapcore.WarnLevel,
	LogLevelError:    zapcore.ErrorLevel,
	LogLevelCritical: zapcore.DPanicLevel,
}

// LoggerConfiguration describes how a logger renders its entries.
type LoggerConfiguration struct {
	Level      LogLevel
	Format     LogFormat
	Timestamps bool
	Levels     bool
	// Output defaults to standard error.
	Output io.Writer
}

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct{}

// NewLoggerFactory constructs a new logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// ParseLogLevel maps a level name to a zap level. Names are case-insensitive and unknown names fall back to info.
func ParseLogLevel(requestedLogLevel LogLevel) zapcore.Level {
	normalizedLevel := LogLevel(strings.ToLower(strings.TrimSpace(string(requestedLogLevel))))
	if zapLogLevel, levelExists := logLevelMapping[normalizedLevel]; levelExists {
		return zapLogLevel
	}
	return zapcore.InfoLevel
}

// CreateLogger produces a zap.Logger honoring the requested configuration.
func (factory *LoggerFactory) CreateLogger(configuration LoggerConfiguration) (*zap.Logger, error) {
	encoderConfiguration := zap.NewProductionEncoderConfig()
	encoderConfiguration.CallerKey = zapcore.OmitKey
	encoderConfiguration.StacktraceKey = zapcore.OmitKey
	encoderConfiguration.TimeKey = zapcore.OmitKey
	encoderConfiguration.LevelKey = zapcore.OmitKey
	if configuration.Timestamps {
		encoderConfiguration.TimeKey = timestampFieldKeyConstant
		encoderConfiguration.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	if configuration.Levels {
		encoderConfiguration.LevelKey = levelFieldKeyConstant
	}

	var encoder zapcore.Encoder
	switch configuration.Format {
	case LogFormatStructured:
		encoder = zapcore.NewJSONEncoder(encoderConfiguration)
	case LogFormatConsole, "":
		encoder = zapcore.NewConsoleEncoder(encoderConfiguration)
	default:
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, configuration.Format)
	}

	output := configuration.Output
	if output == nil {
		output = os.Stderr
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(NewFlushingWriter(output)), ParseLogLevel(configuration.Level))
	return zap.New(core), nil
}
