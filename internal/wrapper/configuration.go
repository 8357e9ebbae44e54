package wrapper

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

const (
	executableConfigurationKeyConstant       = "executable"
	commandPrefixConfigurationKeyConstant    = "command_prefix"
	workingDirectoryConfigurationKeyConstant = "working_directory"
	inheritStdinConfigurationKeyConstant     = "inherit_stdin"
	configurationKeySeparatorConstant        = "."
	defaultExecutableConstant                = "dbt"
	defaultCommandPrefixConstant             = "dbt"
	executableParseErrorTemplateConstant     = "unable to parse executable %q: %w"
	environmentEntryErrorTemplateConstant    = "environment entry %q is not in KEY=VALUE form"
	environmentEntrySeparatorConstant        = "="
)

// Configuration describes the wrapped executable and how it is invoked.
// Environment holds KEY=VALUE entries; when present they replace the inherited environment entirely.
type Configuration struct {
	Executable           string   `mapstructure:"executable"`
	CommandPrefix        string   `mapstructure:"command_prefix"`
	WorkingDirectory     string   `mapstructure:"working_directory"`
	Environment          []string `mapstructure:"environment"`
	InheritStandardInput bool     `mapstructure:"inherit_stdin"`
}

// DefaultConfigurationValues returns configuration defaults rooted at the provided key.
func DefaultConfigurationValues(rootKey string) map[string]any {
	return map[string]any{
		qualifyKey(rootKey, executableConfigurationKeyConstant):       defaultExecutableConstant,
		qualifyKey(rootKey, commandPrefixConfigurationKeyConstant):    defaultCommandPrefixConstant,
		qualifyKey(rootKey, workingDirectoryConfigurationKeyConstant): "",
		qualifyKey(rootKey, inheritStdinConfigurationKeyConstant):     false,
	}
}

// ParsedExecutable splits the configured executable into the binary and its fixed leading arguments.
func (configuration Configuration) ParsedExecutable() (string, []string, error) {
	words, splitError := shlex.Split(configuration.Executable)
	if splitError != nil {
		return "", nil, fmt.Errorf(executableParseErrorTemplateConstant, configuration.Executable, splitError)
	}
	if len(words) == 0 {
		return "", nil, ErrExecutableNotConfigured
	}
	return words[0], words[1:], nil
}

// EnvironmentVariables parses the configured KEY=VALUE entries. Later entries win over earlier ones.
func (configuration Configuration) EnvironmentVariables() (map[string]string, error) {
	environment := make(map[string]string, len(configuration.Environment))
	for _, entry := range configuration.Environment {
		key, value, separated := strings.Cut(entry, environmentEntrySeparatorConstant)
		if !separated || len(strings.TrimSpace(key)) == 0 {
			return nil, fmt.Errorf(environmentEntryErrorTemplateConstant, entry)
		}
		environment[key] = value
	}
	return environment, nil
}

// ResolvedCommandPrefix reports the prefix used for described command names.
func (configuration Configuration) ResolvedCommandPrefix(binary string) string {
	trimmedPrefix := strings.TrimSpace(configuration.CommandPrefix)
	if len(trimmedPrefix) > 0 {
		return trimmedPrefix
	}
	return binary
}

func qualifyKey(rootKey string, key string) string {
	trimmedRoot := strings.TrimSpace(rootKey)
	if len(trimmedRoot) == 0 {
		return key
	}
	return trimmedRoot + configurationKeySeparatorConstant + key
}
