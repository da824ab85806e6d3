package directive

import (
	"fmt"
	"strconv"
	"strings"
)

// Converter validates and normalises one option value. An empty value means
// the option was given without a body.
type Converter func(value string) (string, error)

// OptionSpec maps option names to their converters.
type OptionSpec map[string]Converter

// Spec describes how a directive block is split into arguments, options and
// content.
type Spec struct {
	RequiredArgs       int
	OptionalArgs       int
	FinalArgWhitespace bool // the last argument may contain spaces
	Options            OptionSpec
	HasContent         bool
}

func (s Spec) takesArguments() bool {
	return s.RequiredArgs+s.OptionalArgs > 0
}

// Flag accepts only an empty value.
func Flag(value string) (string, error) {
	if strings.TrimSpace(value) != "" {
		return "", fmt.Errorf("no argument is allowed; %q supplied", value)
	}
	return "", nil
}

// Unchanged accepts anything, including nothing.
func Unchanged(value string) (string, error) {
	return value, nil
}

// UnchangedRequired accepts any non-empty value.
func UnchangedRequired(value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("argument required but none supplied")
	}
	return value, nil
}

// NonNegativeInt accepts integers >= 0.
func NonNegativeInt(value string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("invalid literal for int(): %q", value)
	}
	if n < 0 {
		return "", fmt.Errorf("negative value; must be positive or zero")
	}
	return strconv.Itoa(n), nil
}

// ClassOption splits a list of class names and joins them with single spaces.
func ClassOption(value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("argument required but none supplied")
	}
	fields := strings.Fields(strings.ToLower(value))
	return strings.Join(fields, " "), nil
}

// Choice builds a converter accepting one of the given values (case-insensitive).
func Choice(values ...string) Converter {
	return func(value string) (string, error) {
		v := strings.ToLower(strings.TrimSpace(value))
		for _, allowed := range values {
			if v == allowed {
				return v, nil
			}
		}
		quoted := make([]string, len(values))
		for i, a := range values {
			quoted[i] = strconv.Quote(a)
		}
		return "", fmt.Errorf("%q unknown; choose from %s", value, strings.Join(quoted, ", "))
	}
}

// Merge returns a new OptionSpec holding the union of the given specs.
func Merge(specs ...OptionSpec) OptionSpec {
	out := make(OptionSpec)
	for _, s := range specs {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}
