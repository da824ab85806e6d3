package directive

import (
	"errors"
	"strings"
	"testing"

	"deprecdoc/internal/source"
)

func mkLines(first int, texts ...string) []source.Line {
	out := make([]source.Line, len(texts))
	for i, t := range texts {
		out[i] = source.Line{Text: t, No: uint32(first + i)}
	}
	return out
}

var versionSpec = Spec{RequiredArgs: 1, OptionalArgs: 1, FinalArgWhitespace: true, HasContent: true}

func TestParseBlock_VersionWithMessage(t *testing.T) {
	inv, err := ParseBlock(versionSpec, mkLines(10, "3.4 Use :func:`bar` instead.", "", "Body text.", "More."))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inv.Args) != 2 || inv.Args[0] != "3.4" || inv.Args[1] != "Use :func:`bar` instead." {
		t.Errorf("args = %q", inv.Args)
	}
	if len(inv.Content) != 2 || inv.Content[0].No != 12 {
		t.Errorf("content = %+v", inv.Content)
	}
	if got := inv.ContentText(); got != "Body text.\nMore." {
		t.Errorf("content text = %q", got)
	}
}

func TestParseBlock_ArgumentContinuesOnNextLine(t *testing.T) {
	inv, err := ParseBlock(versionSpec, mkLines(1, "3.4", "   the rest"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inv.Args) != 2 || inv.Args[1] != "the rest" {
		t.Errorf("args = %q", inv.Args)
	}
}

func TestParseBlock_MissingArgument(t *testing.T) {
	_, err := ParseBlock(versionSpec, mkLines(1, ""))
	var me *MarkupError
	if !errors.As(err, &me) {
		t.Fatalf("want MarkupError, got %v", err)
	}
	if me.Msg != "1 argument(s) required, 0 supplied" {
		t.Errorf("msg = %q", me.Msg)
	}
}

func TestParseBlock_TooManyArguments(t *testing.T) {
	spec := Spec{RequiredArgs: 1}
	_, err := ParseBlock(spec, mkLines(1, "a b"))
	if err == nil || err.Error() != "maximum 1 argument(s) allowed, 2 supplied" {
		t.Errorf("err = %v", err)
	}
}

func TestParseBlock_NoContentPermitted(t *testing.T) {
	spec := Spec{RequiredArgs: 1}
	_, err := ParseBlock(spec, mkLines(1, "arg", "", "content"))
	if err == nil || err.Error() != "no content permitted" {
		t.Errorf("err = %v", err)
	}
}

func TestParseBlock_TextBecomesContentWithoutArguments(t *testing.T) {
	spec := Spec{HasContent: true}
	inv, err := ParseBlock(spec, mkLines(5, "inline start", "second"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inv.Args) != 0 || len(inv.Content) != 2 || inv.Content[0].Text != "inline start" {
		t.Errorf("inv = %+v", inv)
	}
}

func TestParseBlock_Options(t *testing.T) {
	spec := Spec{
		RequiredArgs:       1,
		FinalArgWhitespace: true,
		HasContent:         true,
		Options:            OptionSpec{"module": UnchangedRequired, "noindex": Flag},
	}
	inv, err := ParseBlock(spec, mkLines(1, "frob(x)", ":module: spam.eggs", ":noindex:", "", "Does things."))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Args[0] != "frob(x)" {
		t.Errorf("args = %q", inv.Args)
	}
	if inv.Options["module"] != "spam.eggs" || !inv.HasOption("noindex") {
		t.Errorf("options = %v", inv.Options)
	}
	if len(inv.Content) != 1 {
		t.Errorf("content = %+v", inv.Content)
	}
}

func TestParseBlock_UnknownOption(t *testing.T) {
	spec := Spec{RequiredArgs: 1, Options: OptionSpec{"module": Unchanged}}
	_, err := ParseBlock(spec, mkLines(1, "x", ":bogus: 1"))
	if err == nil || err.Error() != `unknown option: "bogus"` {
		t.Errorf("err = %v", err)
	}
}

func TestParseBlock_InvalidOptionValue(t *testing.T) {
	spec := Spec{Options: OptionSpec{"depth": NonNegativeInt}}
	_, err := ParseBlock(spec, mkLines(1, ":depth: -1"))
	if err == nil || !strings.HasPrefix(err.Error(), "invalid option value:") {
		t.Errorf("err = %v", err)
	}
}

func TestSplitFields(t *testing.T) {
	got := SplitFields("  a b   c  d", 2)
	want := []string{"a", "b", "c  d"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("SplitFields = %q, want %q", got, want)
	}
	if got := SplitFields("one", 0); len(got) != 1 || got[0] != "one" {
		t.Errorf("SplitFields(one, 0) = %q", got)
	}
}

func TestChoice(t *testing.T) {
	conv := Choice("left", "right")
	if v, err := conv("LEFT"); err != nil || v != "left" {
		t.Errorf("Choice(LEFT) = %q, %v", v, err)
	}
	if _, err := conv("up"); err == nil {
		t.Errorf("Choice(up) must fail")
	}
}
