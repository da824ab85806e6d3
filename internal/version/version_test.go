package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestColoredWithoutColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	origVersion := Version
	defer func() { Version = origVersion }()

	tests := map[string]string{
		"0.1.0-dev":           "0.1.0-dev",
		"1.2.3":               "1.2.3",
		"1.0.0-rc.1+build.12": "1.0.0-rc.1+build.12",
		"nightly":             "nightly",
	}
	for in, want := range tests {
		Version = in
		if got := Colored(); got != want {
			t.Errorf("Colored() with Version=%q = %q, want %q", in, got, want)
		}
	}
}

func TestColoredAddsEscapes(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = prev }()

	origVersion := Version
	defer func() { Version = origVersion }()
	Version = "1.2.3"

	if got := Colored(); got == Version {
		t.Errorf("Colored() = %q, expected ANSI sequences", got)
	}
}
