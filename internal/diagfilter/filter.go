// Package diagfilter suppresses parser messages about roles and directives
// the engine knowingly does not implement.
package diagfilter

import (
	"regexp"
	"strings"

	"deprecdoc/internal/diag"
)

// IgnoredRoles are project roles whose unknown-role errors are expected.
var IgnoredRoles = []string{"source", "issue", "opcode", "pdbcmd"}

// IgnoredDirectives are project and extension directives whose
// unknown-directive errors are expected.
var IgnoredDirectives = []string{
	"2to3fixer",
	"audit-event-table",
	"doctest",
	"availability",
	"awaitablefunction",
	"coroutinefunction",
	"abstractmethod",
	"coroutinemethod",
	"awaitablemethod",
	"audit-event",
	"impl-detail",
	"deprecated-removed",
	"testsetup",
	"testcode",
	"testcleanup",
	"testoutput",
	"opcode",
	"pdbcommand",
}

// Filter matches formatted messages against the allow-lists.
type Filter struct {
	role      *regexp.Regexp
	directive *regexp.Regexp
}

// New builds a filter from the fixed allow-lists plus extra names.
func New(extraRoles, extraDirectives []string) *Filter {
	return &Filter{
		role:      compile(`Unknown interpreted text role "`, IgnoredRoles, extraRoles),
		directive: compile(`Unknown directive type "`, IgnoredDirectives, extraDirectives),
	}
}

func compile(prefix string, fixed, extra []string) *regexp.Regexp {
	names := make([]string, 0, len(fixed)+len(extra))
	for _, n := range append(append([]string(nil), fixed...), extra...) {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, regexp.QuoteMeta(n))
		}
	}
	return regexp.MustCompile(regexp.QuoteMeta(prefix) + `(` + strings.Join(names, "|") + `)"`)
}

// Keep reports whether msg should reach the message stream. Only ERROR
// messages about allow-listed roles or directives are dropped.
func (f *Filter) Keep(msg string) bool {
	if f == nil || !strings.Contains(msg, "ERROR") {
		return true
	}
	return !f.role.MatchString(msg) && !f.directive.MatchString(msg)
}

// MessageFilter adapts f to a diag.StreamReporter filter.
func (f *Filter) MessageFilter() diag.MessageFilter {
	return f.Keep
}
