// Package diag defines the system-message model shared by the markup parser,
// the document engine and the CLI.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – docutils levels DEBUG(0) … SEVERE(4). report_level decides
//     what is shown, halt_level decides what aborts a parse.
//   - Code – compact numeric identifier (codes.go) with a stable string form.
//   - Message – the first line, e.g. `Unknown directive type "doctest".`
//   - Detail – optional source block printed after a blank line.
//   - Primary/Line – location inside a source.FileSet.
//
// # Emitting diagnostics
//
// Producers talk to a Reporter. BagReporter collects into a Bag (bounded,
// sortable, dedupable), StreamReporter writes docutils text to a stream and
// accepts a MessageFilter predicate that sees every formatted message before
// it reaches the stream. DedupReporter, ThresholdReporter and MultiReporter
// compose.
//
// Package diag does no CLI integration; colors are applied only when the
// caller enables them.
package diag
