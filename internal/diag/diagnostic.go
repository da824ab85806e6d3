package diag

import (
	"deprecdoc/internal/source"
)

// Diagnostic is one system message produced while parsing a document.
// Detail carries the offending source block (for unknown directives) and is
// rendered after a blank line, the way docutils does.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Detail   string
	Primary  source.Span
	Line     uint32 // 1-based, 0 when unknown
}

func New(sev Severity, code Code, primary source.Span, line uint32, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Line:     line,
		Message:  msg,
	}
}

// WithDetail returns a copy carrying the given detail block.
func (d Diagnostic) WithDetail(detail string) Diagnostic {
	d.Detail = detail
	return d
}
