// Package output renders record batches in the supported formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"deprecdoc/internal/walker"
)

// Format names a batch encoding.
type Format string

const (
	FormatList    Format = "list"
	FormatLines   Format = "lines"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// Formats lists every supported format.
var Formats = []Format{FormatList, FormatLines, FormatJSON, FormatYAML, FormatMsgpack}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return "", fmt.Errorf("unknown format %q (expected: %s)", s, strings.Join(names, "|"))
}

// Writer encodes batches one at a time.
type Writer interface {
	Write(b walker.Batch) error
	// Close finishes the stream. It does not close the underlying writer.
	Close() error
}

type batchDoc struct {
	File    string   `json:"file" yaml:"file" msgpack:"file"`
	Records []string `json:"records" yaml:"records" msgpack:"records"`
}

// NewWriter returns a batch writer for format f.
func NewWriter(w io.Writer, f Format) (Writer, error) {
	switch f {
	case FormatList:
		return &listWriter{w: w}, nil
	case FormatLines:
		return &linesWriter{w: w}, nil
	case FormatJSON:
		return &encoderWriter{enc: json.NewEncoder(w)}, nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return &encoderWriter{enc: enc, close: enc.Close}, nil
	case FormatMsgpack:
		return &encoderWriter{enc: msgpack.NewEncoder(w)}, nil
	}
	return nil, fmt.Errorf("unknown format %q", f)
}

// listWriter prints each batch as a Python list literal, one per line.
type listWriter struct {
	w io.Writer
}

func (l *listWriter) Write(b walker.Batch) error {
	_, err := io.WriteString(l.w, PyList(b.Records)+"\n")
	return err
}

func (l *listWriter) Close() error { return nil }

// linesWriter prints one record per line with a blank line between batches.
type linesWriter struct {
	w       io.Writer
	started bool
}

func (l *linesWriter) Write(b walker.Batch) error {
	var sb strings.Builder
	if l.started {
		sb.WriteByte('\n')
	}
	l.started = true
	for _, r := range b.Records {
		sb.WriteString(r)
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(l.w, sb.String())
	return err
}

func (l *linesWriter) Close() error { return nil }

type encoder interface {
	Encode(v any) error
}

type encoderWriter struct {
	enc   encoder
	close func() error
}

func (e *encoderWriter) Write(b walker.Batch) error {
	return e.enc.Encode(batchDoc{File: b.File, Records: b.Records})
}

func (e *encoderWriter) Close() error {
	if e.close == nil {
		return nil
	}
	return e.close()
}

// PyList formats strings the way Python's repr formats a list of str.
func PyList(items []string) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, s := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(pyRepr(s))
	}
	sb.WriteByte(']')
	return sb.String()
}

func pyRepr(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	var sb strings.Builder
	sb.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			sb.WriteString(`\\`)
		case r == rune(quote):
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, r)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}
