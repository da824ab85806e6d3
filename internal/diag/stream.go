package diag

import (
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"

	"deprecdoc/internal/source"
)

// MessageFilter decides per formatted message whether it reaches the output
// stream. Returning false drops the message.
type MessageFilter func(msg string) bool

// StreamOptions configures a StreamReporter.
type StreamOptions struct {
	Files     *source.FileSet
	Threshold Severity // report_level: anything below is dropped
	Filter    MessageFilter
	Color     bool
}

// StreamReporter renders diagnostics in docutils text form and writes them to
// an io.Writer. The filter sees the uncolored message.
type StreamReporter struct {
	mu         sync.Mutex
	w          io.Writer
	opts       StreamOptions
	written    int
	suppressed int
}

func NewStreamReporter(w io.Writer, opts StreamOptions) *StreamReporter {
	return &StreamReporter{w: w, opts: opts}
}

func (r *StreamReporter) Report(d Diagnostic) {
	if r == nil || r.w == nil || d.Severity < r.opts.Threshold {
		return
	}
	msg := FormatText(d, r.opts.Files)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.opts.Filter != nil && !r.opts.Filter(msg) {
		r.suppressed++
		return
	}
	if r.opts.Color {
		msg = colorize(d, msg)
	}
	if _, err := io.WriteString(r.w, msg+"\n"); err != nil {
		return
	}
	r.written++
}

// Written returns how many messages reached the stream.
func (r *StreamReporter) Written() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Suppressed returns how many messages the filter dropped.
func (r *StreamReporter) Suppressed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.suppressed
}

// FormatText renders a diagnostic the way docutils' reporter does:
//
//	<path>:<line>: (<SEVERITY>/<level>) <message>
//
// followed by a blank line and the detail block, if any.
func FormatText(d Diagnostic, fs *source.FileSet) string {
	var sb strings.Builder
	sb.WriteString(diagPath(d, fs))
	if d.Line > 0 {
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatUint(uint64(d.Line), 10))
	}
	sb.WriteString(": (")
	sb.WriteString(d.Severity.String())
	sb.WriteByte('/')
	sb.WriteString(strconv.Itoa(d.Severity.Level()))
	sb.WriteString(") ")
	sb.WriteString(d.Message)
	if d.Detail != "" {
		sb.WriteString("\n\n")
		sb.WriteString(d.Detail)
	}
	return sb.String()
}

func diagPath(d Diagnostic, fs *source.FileSet) string {
	if fs == nil {
		return "<string>"
	}
	f := fs.Get(d.Primary.File)
	if f == nil {
		return "<string>"
	}
	return f.Path
}

var (
	severeColor  = color.New(color.FgMagenta, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

func colorize(d Diagnostic, msg string) string {
	tag := "(" + d.Severity.String() + "/" + strconv.Itoa(d.Severity.Level()) + ")"
	var c *color.Color
	switch d.Severity {
	case SevSevere:
		c = severeColor
	case SevError:
		c = errorColor
	case SevWarning:
		c = warningColor
	default:
		c = infoColor
	}
	return strings.Replace(msg, tag, c.Sprint(tag), 1)
}
