// Package utils exposes reusable helpers consumed by the extension commands.
//
// LoggerFactory builds the zap logger that child output is relayed through,
// ConfigurationLoader layers embedded defaults, configuration files and
// environment variables through Viper, and CommandContextAccessor carries the
// resolved logger and configuration path between cobra commands.
package utils
