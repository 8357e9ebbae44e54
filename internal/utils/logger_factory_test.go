package utils_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/edk/internal/utils"
)

const (
	testLoggerFactorySubtestTemplateConstant = "%d_%s"
	testInvalidLogFormatConstant             = "invalid"
	testLogMessageConstant                   = "logger_factory_test_message"
	testLogFieldKeyConstant                  = "stdio_stream"
	testLogFieldValueConstant                = "stdout"
)

func TestParseLogLevel(testInstance *testing.T) {
	testCases := []struct {
		name          string
		requested     utils.LogLevel
		expectedLevel zapcore.Level
	}{
		{name: "debug", requested: utils.LogLevelDebug, expectedLevel: zapcore.DebugLevel},
		{name: "info", requested: utils.LogLevelInfo, expectedLevel: zapcore.InfoLevel},
		{name: "warning", requested: utils.LogLevelWarning, expectedLevel: zapcore.WarnLevel},
		{name: "warn", requested: utils.LogLevelWarn, expectedLevel: zapcore.WarnLevel},
		{name: "error", requested: utils.LogLevelError, expectedLevel: zapcore.ErrorLevel},
		{name: "critical", requested: utils.LogLevelCritical, expectedLevel: zapcore.DPanicLevel},
		{name: "uppercase", requested: utils.LogLevel(" DEBUG "), expectedLevel: zapcore.DebugLevel},
		{name: "unknown", requested: utils.LogLevel("verbose"), expectedLevel: zapcore.InfoLevel},
		{name: "empty", requested: utils.LogLevel(""), expectedLevel: zapcore.InfoLevel},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testLoggerFactorySubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedLevel, utils.ParseLogLevel(testCase.requested))
		})
	}
}

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name                string
		configuration       utils.LoggerConfiguration
		expectError         bool
		expectStructuredLog bool
		expectedKeys        []string
		absentKeys          []string
	}{
		{
			name:                "structured_without_metadata",
			configuration:       utils.LoggerConfiguration{Level: utils.LogLevelInfo, Format: utils.LogFormatStructured},
			expectStructuredLog: true,
			expectedKeys:        []string{"msg", testLogFieldKeyConstant},
			absentKeys:          []string{"ts", "level", "caller"},
		},
		{
			name:                "structured_with_metadata",
			configuration:       utils.LoggerConfiguration{Level: utils.LogLevelDebug, Format: utils.LogFormatStructured, Timestamps: true, Levels: true},
			expectStructuredLog: true,
			expectedKeys:        []string{"msg", "ts", "level", testLogFieldKeyConstant},
			absentKeys:          []string{"caller"},
		},
		{
			name:          "console",
			configuration: utils.LoggerConfiguration{Level: utils.LogLevelInfo, Format: utils.LogFormatConsole},
		},
		{
			name:          "default_format_is_console",
			configuration: utils.LoggerConfiguration{Level: utils.LogLevelInfo},
		},
		{
			name:          "unsupported_log_format",
			configuration: utils.LoggerConfiguration{Level: utils.LogLevelInfo, Format: utils.LogFormat(testInvalidLogFormatConstant)},
			expectError:   true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testLoggerFactorySubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			outputBuffer := &bytes.Buffer{}
			configuration := testCase.configuration
			configuration.Output = outputBuffer

			logger, creationError := utils.NewLoggerFactory().CreateLogger(configuration)
			if testCase.expectError {
				require.Error(testInstance, creationError)
				require.Nil(testInstance, logger)
				return
			}
			require.NoError(testInstance, creationError)
			require.NotNil(testInstance, logger)

			logger.Info(testLogMessageConstant, zap.String(testLogFieldKeyConstant, testLogFieldValueConstant))

			trimmedOutput := bytes.TrimSpace(outputBuffer.Bytes())
			require.NotEmpty(testInstance, trimmedOutput)
			require.Contains(testInstance, string(trimmedOutput), testLogMessageConstant)

			if !testCase.expectStructuredLog {
				require.False(testInstance, json.Valid(trimmedOutput))
				return
			}

			decodedEntry := map[string]any{}
			require.NoError(testInstance, json.Unmarshal(trimmedOutput, &decodedEntry))
			for _, expectedKey := range testCase.expectedKeys {
				require.Contains(testInstance, decodedEntry, expectedKey)
			}
			for _, absentKey := range testCase.absentKeys {
				require.NotContains(testInstance, decodedEntry, absentKey)
			}
			require.Equal(testInstance, testLogFieldValueConstant, decodedEntry[testLogFieldKeyConstant])
		})
	}
}

func TestLoggerFactoryFiltersBelowLevel(testInstance *testing.T) {
	outputBuffer := &bytes.Buffer{}
	logger, creationError := utils.NewLoggerFactory().CreateLogger(utils.LoggerConfiguration{
		Level:  utils.LogLevelWarning,
		Format: utils.LogFormatStructured,
		Output: outputBuffer,
	})
	require.NoError(testInstance, creationError)

	logger.Info("suppressed")
	logger.Warn("kept")
	logger.Error("also kept")

	var messages []string
	scanner := bufio.NewScanner(outputBuffer)
	for scanner.Scan() {
		decodedEntry := map[string]any{}
		require.NoError(testInstance, json.Unmarshal(scanner.Bytes(), &decodedEntry))
		messages = append(messages, decodedEntry["msg"].(string))
	}
	require.Equal(testInstance, []string{"kept", "also kept"}, messages)
}

type flushCountingWriter struct {
	bytes.Buffer
	flushCount int
}

func (writer *flushCountingWriter) Flush() error {
	writer.flushCount++
	return nil
}

func TestFlushingWriterFlushesAfterEachWrite(testInstance *testing.T) {
	underlyingWriter := &flushCountingWriter{}
	logger, creationError := utils.NewLoggerFactory().CreateLogger(utils.LoggerConfiguration{
		Level:  utils.LogLevelInfo,
		Format: utils.LogFormatStructured,
		Output: underlyingWriter,
	})
	require.NoError(testInstance, creationError)

	logger.Info("first")
	logger.Info("second")

	require.Equal(testInstance, 2, underlyingWriter.flushCount)

	wrappedWriter := utils.NewFlushingWriter(underlyingWriter)
	require.Same(testInstance, wrappedWriter, utils.NewFlushingWriter(wrappedWriter))
}
