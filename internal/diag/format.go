package diag

import (
	"fmt"
	"sort"
	"strings"

	"deprecdoc/internal/source"
)

type shortDiagnostic struct {
	Severity Severity
	Code     string
	Path     string
	Line     uint32
	Message  string
}

// FormatShort renders diagnostics into a stable, single-line-per-entry
// representation: "path:line: SEVERITY code: message". Multi-line messages are
// cut at the first line break. Returns "" when there is nothing to show.
func FormatShort(diags []Diagnostic, fs *source.FileSet) string {
	if len(diags) == 0 {
		return ""
	}
	rendered := make([]shortDiagnostic, 0, len(diags))
	for _, d := range diags {
		msg := d.Message
		if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
			msg = msg[:idx]
		}
		rendered = append(rendered, shortDiagnostic{
			Severity: d.Severity,
			Code:     d.Code.String(),
			Path:     diagPath(d, fs),
			Line:     d.Line,
			Message:  msg,
		})
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})

	var sb strings.Builder
	for _, d := range rendered {
		fmt.Fprintf(&sb, "%s:%d: %s %s: %s\n", d.Path, d.Line, d.Severity, d.Code, d.Message)
	}
	return sb.String()
}
