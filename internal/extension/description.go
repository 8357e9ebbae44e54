package extension

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

const (
	describeFormatTextConstant          = "text"
	describeFormatJSONConstant          = "json"
	describeFormatYAMLConstant          = "yaml"
	unsupportedDescribeFormatTemplate   = "unsupported describe format: %s"
	describeEncodingErrorTemplate       = "unable to encode description as %s: %w"
	extensionCommandDescriptionConstant = "The extension cli"
	invokerCommandDescriptionConstant   = "The pass through invoker cli"
	invokerSplatCommandConstant         = ":splat"
	describeIndentationWidthConstant    = 2
	describeJSONIndentationConstant     = "  "
	textTableHeaderConstant             = "NAME\tPASS THROUGH\tCOMMANDS\tDESCRIPTION"
	textTableRowTemplateConstant        = "%s\t%s\t%s\t%s"
	textTableCommandSeparatorConstant   = ","
	textTablePaddingConstant            = 2
)

var extensionCommandNames = []string{"describe", "invoke", "pre_invoke", "post_invoke", "initialize"}

// DescribeFormat enumerates the renderings of a Description.
type DescribeFormat string

// Supported description formats.
const (
	DescribeFormatText DescribeFormat = DescribeFormat(describeFormatTextConstant)
	DescribeFormatJSON DescribeFormat = DescribeFormat(describeFormatJSONConstant)
	DescribeFormatYAML DescribeFormat = DescribeFormat(describeFormatYAMLConstant)
)

// DescribeFormats lists every supported format in display order.
func DescribeFormats() []DescribeFormat {
	return []DescribeFormat{DescribeFormatText, DescribeFormatJSON, DescribeFormatYAML}
}

// ParseDescribeFormat resolves a user-supplied format name.
func ParseDescribeFormat(value string) (DescribeFormat, error) {
	normalizedValue := DescribeFormat(strings.ToLower(strings.TrimSpace(value)))
	for _, format := range DescribeFormats() {
		if normalizedValue == format {
			return format, nil
		}
	}
	return "", fmt.Errorf(unsupportedDescribeFormatTemplate, value)
}

// Command describes a runnable command exposed by an extension.
type Command struct {
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"description" yaml:"description"`
	Commands       []string `json:"commands" yaml:"commands"`
	PassThroughCLI bool     `json:"pass_through_cli" yaml:"pass_through_cli"`
}

// Description lists the commands and capabilities an extension provides.
type Description struct {
	Commands []Command `json:"commands" yaml:"commands"`
}

// NewExtensionCommand describes the extension's own lifecycle CLI.
func NewExtensionCommand(name string, description string) Command {
	if len(strings.TrimSpace(description)) == 0 {
		description = extensionCommandDescriptionConstant
	}
	return Command{
		Name:        name,
		Description: description,
		Commands:    append([]string{}, extensionCommandNames...),
	}
}

// NewInvokerCommand describes a pass-through CLI that forwards every argument to the wrapped tool.
func NewInvokerCommand(name string, description string) Command {
	if len(strings.TrimSpace(description)) == 0 {
		description = invokerCommandDescriptionConstant
	}
	return Command{
		Name:           name,
		Description:    description,
		Commands:       []string{invokerSplatCommandConstant},
		PassThroughCLI: true,
	}
}

// RenderDescription renders the description in the requested format.
func RenderDescription(description Description, format DescribeFormat) (string, error) {
	normalizedDescription := description
	normalizedDescription.Commands = make([]Command, 0, len(description.Commands))
	for _, command := range description.Commands {
		if command.Commands == nil {
			command.Commands = []string{}
		}
		normalizedDescription.Commands = append(normalizedDescription.Commands, command)
	}

	switch format {
	case DescribeFormatText:
		return renderDescriptionText(normalizedDescription), nil
	case DescribeFormatJSON:
		encoded, encodeError := json.MarshalIndent(normalizedDescription, "", describeJSONIndentationConstant)
		if encodeError != nil {
			return "", fmt.Errorf(describeEncodingErrorTemplate, format, encodeError)
		}
		return string(encoded), nil
	case DescribeFormatYAML:
		var buffer bytes.Buffer
		encoder := yaml.NewEncoder(&buffer)
		encoder.SetIndent(describeIndentationWidthConstant)
		if encodeError := encoder.Encode(normalizedDescription); encodeError != nil {
			return "", fmt.Errorf(describeEncodingErrorTemplate, format, encodeError)
		}
		if closeError := encoder.Close(); closeError != nil {
			return "", fmt.Errorf(describeEncodingErrorTemplate, format, closeError)
		}
		return buffer.String(), nil
	default:
		return "", fmt.Errorf(unsupportedDescribeFormatTemplate, format)
	}
}

func renderDescriptionText(description Description) string {
	var buffer bytes.Buffer
	tableWriter := tabwriter.NewWriter(&buffer, 0, 0, textTablePaddingConstant, ' ', 0)
	fmt.Fprintln(tableWriter, textTableHeaderConstant)
	for _, command := range description.Commands {
		fmt.Fprintf(tableWriter, textTableRowTemplateConstant+"\n",
			command.Name,
			strconv.FormatBool(command.PassThroughCLI),
			strings.Join(command.Commands, textTableCommandSeparatorConstant),
			command.Description,
		)
	}
	_ = tableWriter.Flush()
	return buffer.String()
}
