package utils

import (
	"context"

	"go.uber.org/zap"
)

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	loggerContextKeyConstant                = commandContextKey("logger")
)

type commandContextKey string

// CommandContextAccessor manages values stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file path to the provided context.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath extracts the configuration file path from the provided context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	configurationFilePath, configurationFilePathAvailable := executionContext.Value(configurationFilePathContextKeyConstant).(string)
	return configurationFilePath, configurationFilePathAvailable
}

// WithLogger attaches the command logger so subcommands share the root's logging settings.
func (accessor CommandContextAccessor) WithLogger(parentContext context.Context, logger *zap.Logger) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, loggerContextKeyConstant, logger)
}

// Logger returns the attached logger, or a no-op logger when none was attached.
func (accessor CommandContextAccessor) Logger(executionContext context.Context) *zap.Logger {
	if executionContext == nil {
		return zap.NewNop()
	}
	logger, loggerAvailable := executionContext.Value(loggerContextKeyConstant).(*zap.Logger)
	if !loggerAvailable || logger == nil {
		return zap.NewNop()
	}
	return logger
}
