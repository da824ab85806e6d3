package engine

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"deprecdoc/internal/directive"
	"deprecdoc/internal/doctree"
	"deprecdoc/internal/rst"
	"deprecdoc/internal/source"
)

var includeOptions = withBasic(directive.OptionSpec{
	"literal":      directive.Flag,
	"code":         directive.Unchanged,
	"encoding":     directive.UnchangedRequired,
	"parser":       directive.UnchangedRequired,
	"tab-width":    directive.NonNegativeInt,
	"start-line":   directive.Unchanged,
	"end-line":     directive.Unchanged,
	"start-after":  directive.UnchangedRequired,
	"end-before":   directive.UnchangedRequired,
	"number-lines": directive.Unchanged,
})

// relfn2path resolves a directive file argument: absolute names are relative
// to the corpus root, others to the directory of the current document.
func relfn2path(env *rst.Env, filename string) string {
	var rel string
	if strings.HasPrefix(filename, "/") {
		rel = path.Clean(strings.TrimPrefix(filename, "/"))
	} else {
		rel = path.Join(path.Dir(env.Docname), filename)
	}
	return filepath.Join(env.SrcDir, filepath.FromSlash(rel))
}

// include inserts another file's lines at the directive position, or a
// literal block with its text for :literal: and :code:.
func (e *Engine) include(d *rst.Directive) ([]*doctree.Node, error) {
	arg := strings.TrimSpace(d.Args[0])
	if strings.HasPrefix(arg, "<") && strings.HasSuffix(arg, ">") {
		return nil, d.Severef("Problems with %q directive path:\nInputError: standard include files are not available: %q.", d.Name, arg)
	}
	filename := relfn2path(d.Env(), strings.Join(strings.Fields(arg), ""))

	if !d.State.EnterInclude(filename) {
		return nil, d.Warningf("circular inclusion in %q directive:\n%s", d.Name, inclusionChain(d, filename))
	}
	defer d.State.LeaveInclude()

	enc := e.cfg.InputEncoding
	if v := d.Options["encoding"]; v != "" {
		enc = v
	}
	id, err := e.files.LoadEncoded(filename, enc)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, d.Severef("Problems with %q directive path:\nInputError: [Errno 2] No such file or directory: '%s'.", d.Name, filename)
		}
		return nil, d.Severef("Problems with %q directive path:\n%s.", d.Name, err)
	}
	file := e.files.Get(id)

	tabWidth := e.cfg.TabWidth
	if v := d.Options["tab-width"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			tabWidth = n
		}
	}
	lines := file.SourceLines(tabWidth)

	lines, err = sliceLines(d, lines)
	if err != nil {
		return nil, err
	}
	if after, ok := d.Options["start-after"]; ok {
		lines, err = cutText(lines, after, true)
		if err != nil {
			return nil, d.Severef("Problem with \"start-after\" option of %q directive:\n%s", d.Name, err)
		}
	}
	if before, ok := d.Options["end-before"]; ok {
		lines, err = cutText(lines, before, false)
		if err != nil {
			return nil, d.Severef("Problem with \"end-before\" option of %q directive:\n%s", d.Name, err)
		}
	}

	if d.HasOption("literal") || d.HasOption("code") {
		n := newNode("literal_block", d).Set("source", filename)
		if lang := d.Options["code"]; lang != "" {
			n.Set("language", lang)
		}
		n.Append(doctree.NewText(directive.JoinLines(lines)))
		return []*doctree.Node{n}, nil
	}
	return nil, d.State.InsertLines(lines)
}

func inclusionChain(d *rst.Directive, filename string) string {
	stack := d.State.IncludeStack()
	chain := []string{filename}
	for i := len(stack) - 1; i >= 0; i-- {
		chain = append(chain, stack[i])
	}
	chain = append(chain, d.State.File().Path)
	return strings.Join(chain, "\n> ")
}

// sliceLines applies :start-line: and :end-line: with slice semantics.
func sliceLines(d *rst.Directive, lines []source.Line) ([]source.Line, error) {
	start, end := 0, len(lines)
	if v, ok := d.Options["start-line"]; ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, d.Severef("Problem with \"start-line\" option of %q directive:\ninvalid literal for int(): %q", d.Name, v)
		}
		start = pyIndex(n, len(lines))
	}
	if v, ok := d.Options["end-line"]; ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, d.Severef("Problem with \"end-line\" option of %q directive:\ninvalid literal for int(): %q", d.Name, v)
		}
		end = pyIndex(n, len(lines))
	}
	if start >= end {
		return nil, nil
	}
	return lines[start:end], nil
}

func pyIndex(n, length int) int {
	if n < 0 {
		n += length
	}
	if n < 0 {
		return 0
	}
	if n > length {
		return length
	}
	return n
}

const textNotFound = "Text not found."

// cutText keeps what follows (after) or precedes (!after) the first
// occurrence of marker. A line split by the marker keeps its remainder.
func cutText(lines []source.Line, marker string, after bool) ([]source.Line, error) {
	text := directive.JoinLines(lines)
	idx := strings.Index(text, marker)
	if idx < 0 {
		return nil, errors.New(textNotFound)
	}
	if !after {
		return rebuild(lines, text[:idx], 0), nil
	}
	rest := text[idx+len(marker):]
	skipped := strings.Count(text[:idx+len(marker)], "\n")
	return rebuild(lines, rest, skipped), nil
}

// rebuild splits text back into lines, numbering from lines[first].
func rebuild(lines []source.Line, text string, first int) []source.Line {
	if len(lines) == 0 {
		return nil
	}
	parts := strings.Split(text, "\n")
	out := make([]source.Line, 0, len(parts))
	for i, p := range parts {
		src := lines[len(lines)-1]
		if first+i < len(lines) {
			src = lines[first+i]
		}
		out = append(out, source.Line{Text: strings.TrimRight(p, " "), File: src.File, No: src.No})
	}
	return out
}

// literalInclude embeds a file as a literal block. A missing file is a
// warning rather than a parse failure.
func (e *Engine) literalInclude(d *rst.Directive) ([]*doctree.Node, error) {
	filename := relfn2path(d.Env(), strings.TrimSpace(d.Args[0]))
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, d.Warningf("Include file '%s' not found or reading it failed", filename)
	}
	n := newNode("literal_block", d).Set("source", filename)
	if lang := d.Options["language"]; lang != "" {
		n.Set("language", lang)
	}
	n.Append(doctree.NewText(string(data)))
	return []*doctree.Node{n}, nil
}
