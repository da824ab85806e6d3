// Package rst parses reStructuredText into a doctree.
//
// The parser covers the block structure that decides where a directive ends
// up: sections, paragraphs, lists, definition and field lists, block quotes,
// literal and doctest blocks, line blocks, tables (kept opaque), and explicit
// markup (footnotes, citations, targets, substitution definitions, comments
// and directives). Inline markup is scanned only for interpreted-text roles
// so that unknown roles are reported.
//
// Directives are looked up in a Registry; a handler receives a *Directive
// whose State exposes the current parent node, nested parsing and the
// per-document Env. Messages go to a diag.Reporter in docutils form, and a
// message at or above the halt level stops the parse with *HaltError.
package rst
