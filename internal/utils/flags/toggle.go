package flags

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

const (
	longFlagPrefixConstant                 = "--"
	flagTerminatorConstant                 = "--"
	inlineValueSeparatorConstant           = "="
	toggleTrueCanonicalValue               = "true"
	toggleFalseCanonicalValue              = "false"
	toggleFlagTypeConstant                 = "bool"
	toggleParseErrorTemplate               = "invalid toggle value %q"
	toggleArgumentTruePlaceholderConstant  = "<YES|no>"
	toggleArgumentFalsePlaceholderConstant = "<yes|NO>"
)

// toggleLiterals maps every accepted lower-case spelling to its boolean value.
var toggleLiterals = map[string]bool{
	toggleTrueCanonicalValue:  true,
	"yes":                     true,
	"on":                      true,
	"1":                       true,
	"t":                       true,
	"y":                       true,
	toggleFalseCanonicalValue: false,
	"no":                      false,
	"off":                     false,
	"0":                       false,
	"f":                       false,
	"n":                       false,
}

// registeredToggles records long toggle names so NormalizeToggleArguments can tell them apart from
// flags that take arbitrary values.
var registeredToggles sync.Map

// AddToggleFlag registers a long boolean flag that accepts yes/no style values, either inline
// ("--force=no") or detached ("--force no").
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	flagSet.Var(newToggleFlagValue(defaultValue, target), name, usage)
	flag := flagSet.Lookup(name)
	flag.NoOptDefVal = toggleTrueCanonicalValue
	flag.Usage = formatToggleUsage(usage, defaultValue)

	registeredToggles.Store(name, struct{}{})
}

func formatToggleUsage(description string, defaultValue bool) string {
	placeholder := toggleArgumentFalsePlaceholderConstant
	if defaultValue {
		placeholder = toggleArgumentTruePlaceholderConstant
	}
	trimmed := strings.TrimSpace(description)
	if len(trimmed) == 0 {
		return fmt.Sprintf("`%s`", placeholder)
	}
	return fmt.Sprintf("`%s` %s", placeholder, trimmed)
}

// NormalizeToggleArguments rewrites "--toggle value" as "--toggle=value" so pflag, which treats a
// detached value after a no-argument flag as positional, sees the value. Only recognized toggle
// spellings are joined, so "--log-json invoke" keeps "invoke" as a positional argument.
func NormalizeToggleArguments(arguments []string) []string {
	if len(arguments) == 0 {
		return nil
	}

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		current := arguments[index]
		if current == flagTerminatorConstant {
			return append(normalized, arguments[index:]...)
		}

		if index+1 < len(arguments) && takesDetachedToggleValue(current, arguments[index+1]) {
			normalized = append(normalized, current+inlineValueSeparatorConstant+arguments[index+1])
			index++
			continue
		}
		normalized = append(normalized, current)
	}
	return normalized
}

func takesDetachedToggleValue(current string, next string) bool {
	if !strings.HasPrefix(current, longFlagPrefixConstant) || strings.Contains(current, inlineValueSeparatorConstant) {
		return false
	}
	if _, registered := registeredToggles.Load(strings.TrimPrefix(current, longFlagPrefixConstant)); !registered {
		return false
	}
	_, parseError := ParseToggleValue(next)
	return len(next) > 0 && parseError == nil
}

// ParseToggleValue interprets yes/no, on/off, 1/0, t/f and y/n spellings case-insensitively.
// An empty value means true, matching a bare flag.
func ParseToggleValue(rawValue string) (bool, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalizedValue) == 0 {
		return true, nil
	}
	if parsedValue, known := toggleLiterals[normalizedValue]; known {
		return parsedValue, nil
	}
	return false, fmt.Errorf(toggleParseErrorTemplate, rawValue)
}

type toggleFlagValue struct {
	currentValue bool
	target       *bool
}

func newToggleFlagValue(defaultValue bool, target *bool) *toggleFlagValue {
	if target != nil {
		*target = defaultValue
	}
	return &toggleFlagValue{currentValue: defaultValue, target: target}
}

func (value *toggleFlagValue) Set(rawValue string) error {
	parsedValue, parseError := ParseToggleValue(rawValue)
	if parseError != nil {
		return parseError
	}

	value.currentValue = parsedValue
	if value.target != nil {
		*value.target = parsedValue
	}
	return nil
}

func (value *toggleFlagValue) String() string {
	if value != nil && value.currentValue {
		return toggleTrueCanonicalValue
	}
	return toggleFalseCanonicalValue
}

func (value *toggleFlagValue) Type() string {
	return toggleFlagTypeConstant
}
