package directive

import (
	"fmt"
	"regexp"
	"strings"

	"deprecdoc/internal/source"
)

// MarkupError reports a malformed directive block. The parser renders it as
// `Error in "<name>" directive:` followed by Msg.
type MarkupError struct {
	Msg string
}

func (e *MarkupError) Error() string {
	return e.Msg
}

func markupErrorf(format string, args ...any) *MarkupError {
	return &MarkupError{Msg: fmt.Sprintf(format, args...)}
}

// Invocation is a directive block split according to its Spec.
type Invocation struct {
	Args    []string
	Options map[string]string
	Content []source.Line
}

// HasOption reports whether the option was given, with or without a value.
func (inv Invocation) HasOption(name string) bool {
	_, ok := inv.Options[name]
	return ok
}

// ContentText joins content lines with newlines.
func (inv Invocation) ContentText() string {
	return JoinLines(inv.Content)
}

// ParseBlock splits the indented block that follows `.. name::`. The first
// line holds the text after the marker; following lines are already
// dedented.
func ParseBlock(spec Spec, block []source.Line) (Invocation, error) {
	lines := block
	if len(lines) > 0 && isBlank(lines[0].Text) {
		lines = lines[1:]
	}
	for len(lines) > 0 && isBlank(lines[len(lines)-1].Text) {
		lines = lines[:len(lines)-1]
	}

	var argBlock, content []source.Line
	split := 0
	if len(lines) > 0 && (spec.takesArguments() || len(spec.Options) > 0) {
		split = len(lines)
		for i, l := range lines {
			if isBlank(l.Text) {
				split = i
				break
			}
		}
		argBlock = lines[:split]
		if split+1 < len(lines) {
			content = lines[split+1:]
		}
	} else {
		content = lines
	}

	options := map[string]string{}
	if len(spec.Options) > 0 {
		var err error
		options, argBlock, err = parseOptions(spec.Options, argBlock)
		if err != nil {
			return Invocation{}, err
		}
	}
	if len(argBlock) > 0 && !spec.takesArguments() {
		content = append(append([]source.Line(nil), argBlock...), lines[split:]...)
		argBlock = nil
	}
	for len(content) > 0 && isBlank(content[0].Text) {
		content = content[1:]
	}

	var args []string
	if spec.takesArguments() {
		var err error
		args, err = parseArguments(spec, argBlock)
		if err != nil {
			return Invocation{}, err
		}
	}
	if len(content) > 0 && !spec.HasContent {
		return Invocation{}, markupErrorf("no content permitted")
	}
	return Invocation{Args: args, Options: options, Content: content}, nil
}

func parseArguments(spec Spec, block []source.Line) ([]string, error) {
	required := spec.RequiredArgs
	optional := spec.OptionalArgs
	text := JoinLines(block)
	args := strings.Fields(text)
	if len(args) < required {
		return nil, markupErrorf("%d argument(s) required, %d supplied", required, len(args))
	}
	if len(args) > required+optional {
		if !spec.FinalArgWhitespace {
			return nil, markupErrorf("maximum %d argument(s) allowed, %d supplied", required+optional, len(args))
		}
		args = SplitFields(text, required+optional-1)
	}
	return args, nil
}

var optionMarker = regexp.MustCompile(`^:((?:[^:\\]|\\.|:[^ \x60:])*[^ :\\]?):( +|$)`)

func parseOptions(spec OptionSpec, block []source.Line) (map[string]string, []source.Line, error) {
	options := map[string]string{}
	start := len(block)
	for i, l := range block {
		if strings.HasPrefix(l.Text, ":") {
			start = i
			break
		}
	}
	optBlock := block[start:]
	argBlock := block[:start]
	if len(optBlock) == 0 {
		return options, argBlock, nil
	}

	type field struct {
		name string
		body []string
	}
	var fields []field
	for _, l := range optBlock {
		if m := optionMarker.FindStringSubmatchIndex(l.Text); m != nil {
			name := l.Text[m[2]:m[3]]
			rest := strings.TrimSpace(l.Text[m[1]:])
			f := field{name: name}
			if rest != "" {
				f.body = append(f.body, rest)
			}
			fields = append(fields, f)
			continue
		}
		if len(fields) == 0 || (!isBlank(l.Text) && !startsIndented(l.Text)) {
			return nil, nil, markupErrorf("invalid option block")
		}
		if t := strings.TrimSpace(l.Text); t != "" {
			last := &fields[len(fields)-1]
			last.body = append(last.body, t)
		}
	}

	for _, f := range fields {
		name := strings.ToLower(f.name)
		conv, ok := spec[name]
		if !ok {
			return nil, nil, markupErrorf("unknown option: %q", name)
		}
		if _, dup := options[name]; dup {
			return nil, nil, markupErrorf("invalid option data: duplicate option %q", name)
		}
		value := strings.Join(f.body, "\n")
		converted, err := conv(value)
		if err != nil {
			return nil, nil, markupErrorf("invalid option value: (option: %q; value: %q)\n%s", name, value, err.Error())
		}
		options[name] = converted
	}
	return options, argBlock, nil
}

// SplitFields splits s on runs of whitespace performing at most maxSplit
// splits; the remainder keeps its inner whitespace.
func SplitFields(s string, maxSplit int) []string {
	var out []string
	rest := strings.TrimLeft(s, " \t\n\r\f\v")
	for rest != "" {
		if maxSplit >= 0 && len(out) == maxSplit {
			out = append(out, rest)
			break
		}
		idx := strings.IndexAny(rest, " \t\n\r\f\v")
		if idx < 0 {
			out = append(out, rest)
			break
		}
		out = append(out, rest[:idx])
		rest = strings.TrimLeft(rest[idx:], " \t\n\r\f\v")
	}
	return out
}

// JoinLines concatenates line texts with newlines.
func JoinLines(lines []source.Line) string {
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(l.Text)
	}
	return sb.String()
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func startsIndented(s string) bool {
	return s != "" && (s[0] == ' ' || s[0] == '\t')
}
