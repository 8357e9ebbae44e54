package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/edk/internal/execshell"
	"github.com/temirov/edk/internal/extension"
	"github.com/temirov/edk/internal/utils"
	"github.com/temirov/edk/internal/utils/flags"
	"github.com/temirov/edk/internal/wrapper"
)

const (
	applicationNameConstant                 = "edk"
	applicationShortDescriptionConstant     = "Extension harness around a wrapped command-line tool"
	applicationLongDescriptionConstant      = "edk runs a configured executable as a pass-through extension, relaying its output through structured logging and exiting with the executable's status."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logTimestampsFlagNameConstant           = "log-timestamps"
	logTimestampsFlagUsageConstant          = "Include timestamps in log entries."
	logLevelsFlagNameConstant               = "log-levels"
	logLevelsFlagUsageConstant              = "Include level names in log entries."
	logJSONFlagNameConstant                 = "meltano-log-json"
	logJSONFlagUsageConstant                = "Render log entries as JSON."
	forceFlagNameConstant                   = "force"
	forceFlagUsageConstant                  = "Continue when the wrapped executable cannot be located."
	formatFlagNameConstant                  = "format"
	formatFlagUsageConstant                 = "Rendering of the extension description."
	initializeCommandNameConstant           = "initialize"
	initializeCommandShortConstant          = "Verify that the wrapped executable is available"
	invokeCommandNameConstant               = "invoke"
	invokeCommandUseConstant                = "invoke <command> [arguments...]"
	invokeCommandShortConstant              = "Pass a command and its arguments through to the wrapped executable"
	describeCommandNameConstant             = "describe"
	describeCommandShortConstant            = "Describe the commands this extension provides"
	logLevelConfigKeyConstant               = "log_level"
	logTimestampsConfigKeyConstant          = "log_timestamps"
	logLevelsConfigKeyConstant              = "log_levels"
	logJSONConfigKeyConstant                = "meltano_log_json"
	wrapperConfigurationKeyConstant         = "wrapper"
	environmentPrefixConstant               = ""
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	defaultConfigurationSearchPathConstant  = "."
	configurationInitializedMessageConstant = "configuration initialized"
	lifecyclePreparedMessageConstant        = "extension lifecycle prepared"
	configurationLogLevelFieldConstant      = "log_level"
	configurationFileFieldConstant          = "config_file"
	configurationExecutableFieldConstant    = "executable"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	extensionCreationErrorTemplateConstant  = "unable to configure extension: %w"
	describeFormatErrorTemplateConstant     = "unable to render description: %w"
	passThroughCommandNameConstant          = ""
	lineTerminatorConstant                  = "\n"
)

var logLevelChoices = []string{
	string(utils.LogLevelDebug),
	string(utils.LogLevelInfo),
	string(utils.LogLevelWarning),
	string(utils.LogLevelError),
	string(utils.LogLevelCritical),
}

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
// Top-level keys bind the unprefixed LOG_LEVEL, LOG_TIMESTAMPS, LOG_LEVELS and MELTANO_LOG_JSON variables.
type ApplicationConfiguration struct {
	LogLevel      string                `mapstructure:"log_level"`
	LogTimestamps bool                  `mapstructure:"log_timestamps"`
	LogLevels     bool                  `mapstructure:"log_levels"`
	LogJSON       bool                  `mapstructure:"meltano_log_json"`
	Wrapper       wrapper.Configuration `mapstructure:"wrapper"`
}

// ApplicationOption customizes an Application.
type ApplicationOption func(*Application)

// WithExitFunction replaces the routine that flushes the logger and exits the process when a lifecycle phase fails.
func WithExitFunction(exitFunction extension.ExitFunction) ApplicationOption {
	return func(application *Application) {
		if exitFunction != nil {
			application.exitFunction = exitFunction
		}
	}
}

// WithLogOutput redirects log entries, which go to standard error by default.
func WithLogOutput(output io.Writer) ApplicationOption {
	return func(application *Application) {
		if output != nil {
			application.logOutput = output
		}
	}
}

// WithStandardOutput redirects command output such as descriptions.
func WithStandardOutput(output io.Writer) ApplicationOption {
	return func(application *Application) {
		application.standardOutput = output
	}
}

// WithInvokerOptions appends options to every invoker the application builds.
func WithInvokerOptions(options ...execshell.InvokerOption) ApplicationOption {
	return func(application *Application) {
		application.invokerOptions = append(application.invokerOptions, options...)
	}
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand             *cobra.Command
	configurationLoader     *utils.ConfigurationLoader
	loggerFactory           *utils.LoggerFactory
	logger                  *zap.Logger
	logOutput               io.Writer
	standardOutput          io.Writer
	configuration           ApplicationConfiguration
	configurationMetadata   utils.LoadedConfiguration
	configurationFilePath   string
	logLevelFlagValue       string
	logTimestampsFlagValue  bool
	logLevelsFlagValue      bool
	logJSONFlagValue        bool
	forceFlagValue          bool
	describeFormatFlagValue string
	exitFunction            extension.ExitFunction
	invokerOptions          []execshell.InvokerOption
	commandContextAccessor  utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication(options ...ApplicationOption) *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		logOutput:              os.Stderr,
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}
	application.exitFunction = application.exitProcess
	for _, option := range options {
		if option != nil {
			option(application)
		}
	}

	rootCommand := &cobra.Command{
		Use:              applicationNameConstant,
		Short:            applicationShortDescriptionConstant,
		Long:             applicationLongDescriptionConstant,
		SilenceUsage:     true,
		SilenceErrors:    true,
		TraverseChildren: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	rootCommand.SetContext(context.Background())
	if application.standardOutput != nil {
		rootCommand.SetOut(application.standardOutput)
	}

	persistentFlags := rootCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	flags.AddChoiceFlag(persistentFlags, &application.logLevelFlagValue, logLevelFlagNameConstant, string(utils.LogLevelInfo), logLevelChoices, logLevelFlagUsageConstant)
	flags.AddToggleFlag(persistentFlags, &application.logTimestampsFlagValue, logTimestampsFlagNameConstant, false, logTimestampsFlagUsageConstant)
	flags.AddToggleFlag(persistentFlags, &application.logLevelsFlagValue, logLevelsFlagNameConstant, false, logLevelsFlagUsageConstant)
	flags.AddToggleFlag(persistentFlags, &application.logJSONFlagValue, logJSONFlagNameConstant, false, logJSONFlagUsageConstant)

	rootCommand.AddCommand(
		application.newInitializeCommand(),
		application.newInvokeCommand(),
		application.newDescribeCommand(),
	)

	application.rootCommand = rootCommand
	return application
}

// Execute runs the command hierarchy against arguments and flushes the logger afterwards.
func (application *Application) Execute(executionContext context.Context, arguments []string) error {
	application.rootCommand.SetArgs(normalizeApplicationArguments(arguments))
	executionError := application.rootCommand.ExecuteContext(executionContext)
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// ExecutePassThrough resolves configuration without parsing any flags and forwards every argument to the
// wrapped executable.
func (application *Application) ExecutePassThrough(executionContext context.Context, arguments []string) error {
	if initializationError := application.initializeConfiguration(nil); initializationError != nil {
		return initializationError
	}

	executionContext = application.commandContext(executionContext)
	lifecycle, lifecycleError := application.newLifecycle(executionContext)
	if lifecycleError != nil {
		return lifecycleError
	}

	passThroughError := lifecycle.PassThrough(executionContext, passThroughCommandNameConstant, arguments)
	if syncError := application.flushLogger(); syncError != nil && passThroughError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return passThroughError
}

// Execute builds a fresh application instance and executes it against the process arguments.
func Execute() error {
	return NewApplication().Execute(context.Background(), os.Args[1:])
}

func (application *Application) newInitializeCommand() *cobra.Command {
	initializeCommand := &cobra.Command{
		Use:   initializeCommandNameConstant,
		Short: initializeCommandShortConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			lifecycle, lifecycleError := application.newLifecycle(command.Context())
			if lifecycleError != nil {
				return lifecycleError
			}
			return lifecycle.Initialize(command.Context(), application.forceFlagValue)
		},
	}
	flags.AddToggleFlag(initializeCommand.Flags(), &application.forceFlagValue, forceFlagNameConstant, false, forceFlagUsageConstant)
	return initializeCommand
}

// newInvokeCommand forwards everything after the command name untouched, including flags meant for the
// wrapped executable.
func (application *Application) newInvokeCommand() *cobra.Command {
	return &cobra.Command{
		Use:                invokeCommandUseConstant,
		Short:              invokeCommandShortConstant,
		Args:               cobra.MinimumNArgs(1),
		DisableFlagParsing: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			lifecycle, lifecycleError := application.newLifecycle(command.Context())
			if lifecycleError != nil {
				return lifecycleError
			}
			return lifecycle.PassThrough(command.Context(), arguments[0], arguments[1:])
		},
	}
}

func (application *Application) newDescribeCommand() *cobra.Command {
	formatChoices := make([]string, 0, len(extension.DescribeFormats()))
	for _, format := range extension.DescribeFormats() {
		formatChoices = append(formatChoices, string(format))
	}

	describeCommand := &cobra.Command{
		Use:   describeCommandNameConstant,
		Short: describeCommandShortConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			format, formatError := extension.ParseDescribeFormat(application.describeFormatFlagValue)
			if formatError != nil {
				return fmt.Errorf(describeFormatErrorTemplateConstant, formatError)
			}
			lifecycle, lifecycleError := application.newLifecycle(command.Context())
			if lifecycleError != nil {
				return lifecycleError
			}
			renderedDescription, describeError := lifecycle.DescribeFormatted(format)
			if describeError != nil {
				return describeError
			}
			_, writeError := io.WriteString(command.OutOrStdout(), strings.TrimRight(renderedDescription, lineTerminatorConstant)+lineTerminatorConstant)
			return writeError
		},
	}
	flags.AddChoiceFlag(describeCommand.Flags(), &application.describeFormatFlagValue, formatFlagNameConstant, string(extension.DescribeFormatText), formatChoices, formatFlagUsageConstant)
	return describeCommand
}

func (application *Application) newLifecycle(executionContext context.Context) (*extension.Lifecycle, error) {
	logger := application.commandContextAccessor.Logger(executionContext)
	configurationFilePath, _ := application.commandContextAccessor.ConfigurationFilePath(executionContext)
	logger.Debug(
		lifecyclePreparedMessageConstant,
		zap.String(configurationFileFieldConstant, configurationFilePath),
		zap.String(configurationExecutableFieldConstant, application.configuration.Wrapper.Executable),
	)

	commandObserver, observerError := execshell.NewLoggingCommandEventObserver(logger)
	if observerError != nil {
		return nil, fmt.Errorf(extensionCreationErrorTemplateConstant, observerError)
	}

	invokerOptions := append([]execshell.InvokerOption{execshell.WithCommandEventObserver(commandObserver)}, application.invokerOptions...)
	wrapperExtension, extensionError := wrapper.NewExtension(logger, application.configuration.Wrapper, invokerOptions...)
	if extensionError != nil {
		return nil, fmt.Errorf(extensionCreationErrorTemplateConstant, extensionError)
	}

	return extension.NewLifecycle(logger, wrapperExtension, extension.WithExitFunction(application.exitFunction))
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		logLevelConfigKeyConstant:      string(utils.LogLevelInfo),
		logTimestampsConfigKeyConstant: false,
		logLevelsConfigKeyConstant:     false,
		logJSONConfigKeyConstant:       false,
	}
	for configurationKey, configurationValue := range wrapper.DefaultConfigurationValues(wrapperConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logTimestampsFlagNameConstant) {
		application.configuration.LogTimestamps = application.logTimestampsFlagValue
	}
	if application.persistentFlagChanged(command, logLevelsFlagNameConstant) {
		application.configuration.LogLevels = application.logLevelsFlagValue
	}
	if application.persistentFlagChanged(command, logJSONFlagNameConstant) {
		application.configuration.LogJSON = application.logJSONFlagValue
	}

	logFormat := utils.LogFormatConsole
	if application.configuration.LogJSON {
		logFormat = utils.LogFormatStructured
	}
	logger, loggerCreationError := application.loggerFactory.CreateLogger(utils.LoggerConfiguration{
		Level:      utils.LogLevel(application.configuration.LogLevel),
		Format:     logFormat,
		Timestamps: application.configuration.LogTimestamps,
		Levels:     application.configuration.LogLevels,
		Output:     application.logOutput,
	})
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.LogLevel),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	if command != nil {
		updatedContext := application.commandContext(command.Context())
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

// commandContext carries the resolved configuration path and logger to the lifecycle.
func (application *Application) commandContext(parentContext context.Context) context.Context {
	updatedContext := application.commandContextAccessor.WithConfigurationFilePath(parentContext, application.configurationMetadata.ConfigFileUsed)
	return application.commandContextAccessor.WithLogger(updatedContext, application.logger)
}

func (application *Application) exitProcess(exitCode int) {
	_ = application.flushLogger()
	os.Exit(exitCode)
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}
	return application.logger.Sync()
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}
		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}

// normalizeApplicationArguments joins detached toggle values for the harness's own flags. Arguments after
// the invoke command belong to the wrapped executable and are left as given.
func normalizeApplicationArguments(arguments []string) []string {
	normalized := make([]string, 0, len(arguments))
	for argumentIndex, argument := range arguments {
		if argument == invokeCommandNameConstant {
			normalized = append(normalized, flags.NormalizeToggleArguments(arguments[:argumentIndex])...)
			return append(normalized, arguments[argumentIndex:]...)
		}
	}
	return append(normalized, flags.NormalizeToggleArguments(arguments)...)
}
