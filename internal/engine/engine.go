package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"deprecdoc/internal/diag"
	"deprecdoc/internal/doctree"
	"deprecdoc/internal/rst"
	"deprecdoc/internal/source"
	"deprecdoc/internal/trace"
)

// HaltError is returned when a system message reaches halt_level.
type HaltError = rst.HaltError

// ErrClosed is returned by Parse after Close.
var ErrClosed = errors.New("engine: closed")

const doctreeDir = "doctrees"

// Options configures Open.
type Options struct {
	Config        *Config       // nil means DefaultConfig()
	Reporter      diag.Reporter // receives every diagnostic, unfiltered
	Stream        io.Writer     // docutils-style message stream; nil disables it
	Filter        diag.MessageFilter
	Color         bool
	ScratchParent string // directory for the scratch dir; empty means os.TempDir()
	KeepScratch   bool
}

// Engine parses documents of one corpus. Its scratch directory holds the
// generated configuration and a msgpack copy of every parsed doctree.
type Engine struct {
	srcDir  string
	scratch string
	keep    bool
	cfg     Config

	files      *source.FileSet
	directives *rst.Registry
	roles      *rst.RoleSet
	stream     *diag.StreamReporter
	report     diag.Reporter
	def        *Session

	closeMu sync.Mutex
	closed  bool
}

// Open prepares an engine for the corpus rooted at srcDir.
func Open(srcDir string, opts Options) (*Engine, error) {
	absSrc, err := filepath.Abs(srcDir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", srcDir, err)
	}
	info, err := os.Stat(absSrc)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", srcDir)
	}

	cfg := DefaultConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	scratch, err := os.MkdirTemp(opts.ScratchParent, "deprecdoc-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	if err := prepareScratch(scratch, cfg); err != nil {
		_ = os.RemoveAll(scratch) //nolint:errcheck
		return nil, err
	}

	files := source.NewFileSetWithBase(absSrc)
	files.SetSuffix(cfg.SourceSuffix)

	e := &Engine{
		srcDir:     absSrc,
		scratch:    scratch,
		keep:       opts.KeepScratch,
		cfg:        cfg,
		files:      files,
		directives: rst.NewRegistry(),
		roles:      standardRoles(),
	}
	e.registerStandard(e.directives)

	reporters := diag.MultiReporter{}
	if opts.Reporter != nil {
		reporters = append(reporters, opts.Reporter)
	}
	if opts.Stream != nil {
		e.stream = diag.NewStreamReporter(opts.Stream, diag.StreamOptions{
			Files:     files,
			Threshold: cfg.reportSeverity(),
			Filter:    opts.Filter,
			Color:     opts.Color,
		})
		reporters = append(reporters, e.stream)
	}
	e.report = reporters
	e.def = e.NewSession(false)
	return e, nil
}

func prepareScratch(dir string, cfg Config) error {
	if err := WriteConfig(filepath.Join(dir, ConfigFileName), cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dir, doctreeDir), 0o755); err != nil {
		return fmt.Errorf("create doctree dir: %w", err)
	}
	return nil
}

// Close removes the scratch directory unless KeepScratch was set. Calling it
// again is a no-op.
func (e *Engine) Close() error {
	e.closeMu.Lock()
	defer e.closeMu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.keep {
		return nil
	}
	if err := os.RemoveAll(e.scratch); err != nil {
		return fmt.Errorf("remove scratch dir: %w", err)
	}
	return nil
}

func (e *Engine) isClosed() bool {
	e.closeMu.Lock()
	defer e.closeMu.Unlock()
	return e.closed
}

// SrcDir returns the absolute corpus root.
func (e *Engine) SrcDir() string { return e.srcDir }

// ScratchDir returns the scratch directory.
func (e *Engine) ScratchDir() string { return e.scratch }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Files returns the file set holding every loaded document and include.
func (e *Engine) Files() *source.FileSet { return e.files }

// Stream returns the message stream reporter, nil when Options.Stream was nil.
func (e *Engine) Stream() *diag.StreamReporter { return e.stream }

// Directives returns the sorted names of the registered directives.
func (e *Engine) Directives() []string { return e.directives.Names() }

// HandleMarker registers or replaces the handler for the named directive.
func (e *Engine) HandleMarker(name string, h MarkerHandler) {
	e.def.HandleMarker(name, h)
}

// Parse parses one document, reporting diagnostics as they occur.
func (e *Engine) Parse(ctx context.Context, path string) (*doctree.Node, error) {
	return e.def.Parse(ctx, path)
}

// Docname returns the document name of path: its location relative to the
// corpus root without the source suffix.
func (e *Engine) Docname(path string) string {
	rel, err := source.RelativePath(path, e.srcDir)
	if err != nil {
		rel = path
	}
	return source.Docname(rel, e.cfg.SourceSuffix)
}

// LoadDoctree reads back the doctree stored for docname by an earlier Parse.
func (e *Engine) LoadDoctree(docname string) (*doctree.Node, error) {
	f, err := os.Open(e.doctreePath(docname))
	if err != nil {
		return nil, fmt.Errorf("load doctree %s: %w", docname, err)
	}
	defer f.Close()
	return doctree.DecodeMsgpack(f)
}

func (e *Engine) doctreePath(docname string) string {
	rel := filepath.FromSlash(strings.TrimLeft(docname, "/"))
	if !filepath.IsLocal(rel) {
		rel = filepath.Join("_external", filepath.Base(rel))
	}
	return filepath.Join(e.scratch, doctreeDir, rel+".doctree")
}

func (e *Engine) storeDoctree(docname string, doc *doctree.Node) error {
	path := e.doctreePath(docname)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store doctree %s: %w", docname, err)
	}
	data, err := doctree.MarshalMsgpack(doc)
	if err != nil {
		return fmt.Errorf("store doctree %s: %w", docname, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("store doctree %s: %w", docname, err)
	}
	return nil
}

// Session is an independent parsing context sharing the engine's file set
// and standard directives. Marker handlers registered on a session are
// private to it, so sessions may parse concurrently. A buffered session holds
// its diagnostics until Flush.
type Session struct {
	eng        *Engine
	directives *rst.Registry
	buffered   bool

	mu      sync.Mutex
	pending []diag.Diagnostic
}

// NewSession creates a session with a private copy of the directive registry.
func (e *Engine) NewSession(buffered bool) *Session {
	return &Session{
		eng:        e,
		directives: e.directives.Clone(),
		buffered:   buffered,
	}
}

// HandleMarker registers or replaces the handler for the named directive in
// this session only.
func (s *Session) HandleMarker(name string, h MarkerHandler) {
	s.directives.Register(name, markerSpec, markerDirective(h))
}

func (s *Session) Report(d diag.Diagnostic) {
	if !s.buffered {
		s.eng.report.Report(d)
		return
	}
	s.mu.Lock()
	s.pending = append(s.pending, d)
	s.mu.Unlock()
}

// Flush forwards buffered diagnostics to the engine's reporters in the
// order they were produced.
func (s *Session) Flush() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, d := range pending {
		s.eng.report.Report(d)
	}
}

// Parse loads path, parses it and stores the resulting doctree in the
// scratch directory. The reference context starts empty for every document.
func (s *Session) Parse(ctx context.Context, path string) (*doctree.Node, error) {
	e := s.eng
	if e.isClosed() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id, err := e.files.LoadEncoded(path, e.cfg.InputEncoding)
	if err != nil {
		return nil, err
	}
	file := e.files.Get(id)

	ctx, span := trace.Child(ctx, trace.ScopeFile, "parse")
	span.WithExtra("docname", file.Docname)
	defer span.End("")

	env := rst.NewEnv(e.srcDir, file.Docname)
	env.DefaultDomain = e.cfg.PrimaryDomain

	doc, err := rst.Parse(ctx, file, env, rst.Options{
		Directives: s.directives,
		Roles:      e.roles,
		Reporter:   s,
		Files:      e.files,
		HaltLevel:  e.cfg.haltSeverity(),
		TabWidth:   e.cfg.TabWidth,
	})
	if err != nil {
		return nil, err
	}
	doc.Set("docname", file.Docname)
	if err := e.storeDoctree(file.Docname, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
