package source

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeError reports content that cannot be decoded with the configured
// input encoding.
type DecodeError struct {
	Encoding string
	Offset   int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode input as %s: invalid byte at offset %d", e.Encoding, e.Offset)
}

// decodeContent converts raw file bytes into UTF-8.
// "utf-8-sig" (the default) strips a leading BOM, "utf-8" keeps it as text,
// anything else is looked up in the IANA registry.
func decodeContent(raw []byte, name string) ([]byte, FileFlags, error) {
	switch canonicalEncoding(name) {
	case "utf-8-sig":
		content, hadBOM := removeBOM(raw)
		if err := validateUTF8(content, "utf-8-sig"); err != nil {
			return nil, 0, err
		}
		if hadBOM {
			return content, FileHadBOM, nil
		}
		return content, 0, nil
	case "utf-8":
		if err := validateUTF8(raw, "utf-8"); err != nil {
			return nil, 0, err
		}
		return raw, 0, nil
	}

	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, 0, err
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", name, err)
	}
	// decoders may leave a BOM in place
	out, hadBOM := removeBOM(out)
	flags := FileTranscoded
	if hadBOM {
		flags |= FileHadBOM
	}
	return out, flags, nil
}

func canonicalEncoding(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	switch n {
	case "", "utf-8-sig", "utf8-sig":
		return "utf-8-sig"
	case "utf-8", "utf8":
		return "utf-8"
	case "latin-1", "latin1", "iso-8859-1", "l1":
		return "iso-8859-1"
	}
	return n
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	canon := canonicalEncoding(name)
	if canon == "iso-8859-1" {
		return charmap.ISO8859_1, nil
	}
	enc, err := ianaindex.IANA.Encoding(canon)
	if err != nil {
		return nil, fmt.Errorf("unknown input encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported input encoding %q", name)
	}
	return enc, nil
}

// ValidEncoding reports whether name is an input encoding Load understands.
func ValidEncoding(name string) bool {
	switch canonicalEncoding(name) {
	case "utf-8-sig", "utf-8":
		return true
	}
	_, err := lookupEncoding(name)
	return err == nil
}

func validateUTF8(content []byte, name string) error {
	if utf8.Valid(content) {
		return nil
	}
	off := 0
	for off < len(content) {
		r, size := utf8.DecodeRune(content[off:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		off += size
	}
	return &DecodeError{Encoding: name, Offset: off}
}

func removeBOM(content []byte) ([]byte, bool) {
	if bytes.HasPrefix(content, utf8BOM) {
		return content[len(utf8BOM):], true
	}
	return content, false
}
