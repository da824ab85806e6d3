package rst

import "strings"

// Env is the per-document environment shared by directives: the reference
// context (current module, class, program), domain defaults and roles defined
// inside the document.
type Env struct {
	SrcDir        string
	Docname       string
	DefaultDomain string
	DefaultRole   string

	refContext map[string]string
	stacks     map[string][]string
	localRoles map[string]struct{}
}

// NewEnv creates a fresh environment for one document.
func NewEnv(srcDir, docname string) *Env {
	return &Env{
		SrcDir:        srcDir,
		Docname:       docname,
		DefaultDomain: "py",
		refContext:    make(map[string]string),
		stacks:        make(map[string][]string),
		localRoles:    make(map[string]struct{}),
	}
}

// Ref returns a reference-context value such as "py:module".
func (e *Env) Ref(key string) (string, bool) {
	v, ok := e.refContext[key]
	return v, ok
}

// SetRef assigns a reference-context value; an empty value removes the key.
func (e *Env) SetRef(key, value string) {
	if value == "" {
		delete(e.refContext, key)
		return
	}
	e.refContext[key] = value
}

// ClearRef removes a reference-context key.
func (e *Env) ClearRef(key string) {
	delete(e.refContext, key)
}

// Push appends to a named stack (py:classes, py:modules).
func (e *Env) Push(key, value string) {
	e.stacks[key] = append(e.stacks[key], value)
}

// Pop removes the top of a named stack.
func (e *Env) Pop(key string) (string, bool) {
	s := e.stacks[key]
	if len(s) == 0 {
		return "", false
	}
	v := s[len(s)-1]
	e.stacks[key] = s[:len(s)-1]
	return v, true
}

// Top returns the top of a named stack without removing it.
func (e *Env) Top(key string) (string, bool) {
	s := e.stacks[key]
	if len(s) == 0 {
		return "", false
	}
	return s[len(s)-1], true
}

// Depth returns the size of a named stack.
func (e *Env) Depth(key string) int {
	return len(e.stacks[key])
}

// DefineRole registers a role created with the role directive.
func (e *Env) DefineRole(name string) {
	e.localRoles[strings.ToLower(name)] = struct{}{}
}

func (e *Env) hasLocalRole(name string) bool {
	_, ok := e.localRoles[name]
	return ok
}

// candidates lists the registry keys tried for an unqualified name: the
// default domain, the std domain, then the bare name.
func (e *Env) candidates(name string) []string {
	name = strings.ToLower(name)
	if strings.Contains(name, ":") {
		return []string{name}
	}
	out := make([]string, 0, 3)
	if e.DefaultDomain != "" {
		out = append(out, e.DefaultDomain+":"+name)
	}
	out = append(out, "std:"+name, name)
	return out
}
