package ui

import (
	"strings"
	"testing"

	"deprecdoc/internal/walker"
)

func TestProgressModelTracksEvents(t *testing.T) {
	files := []string{"a.rst", "lib/b.rst", "lib/c.rst"}
	m := NewProgressModel("extract", files, nil).(*progressModel)

	m.applyEvent(walker.Event{File: "a.rst", Status: walker.StatusParsing})
	m.applyEvent(walker.Event{File: "a.rst", Status: walker.StatusDone, Records: 2})
	m.applyEvent(walker.Event{File: "lib/b.rst", Status: walker.StatusError})
	m.applyEvent(walker.Event{File: "lib/b.rst", Status: walker.StatusError})
	m.applyEvent(walker.Event{File: "unknown.rst", Status: walker.StatusDone, Records: 9})

	if m.finished != 2 || m.records != 2 {
		t.Fatalf("finished=%d records=%d, want 2 and 2", m.finished, m.records)
	}
	view := m.View()
	for _, want := range []string{"(2/3 files, 2 records)", "a.rst  +2", "lib/b.rst"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "lib/c.rst") {
		t.Errorf("untouched file shown:\n%s", view)
	}
}

func TestRecentListIsBounded(t *testing.T) {
	files := make([]string, 0, maxVisible+5)
	for i := 0; i < maxVisible+5; i++ {
		files = append(files, string(rune('a'+i))+".rst")
	}
	m := NewProgressModel("extract", files, nil).(*progressModel)
	for _, f := range files {
		m.applyEvent(walker.Event{File: f, Status: walker.StatusDone})
	}
	if len(m.recent) != maxVisible {
		t.Fatalf("recent = %d, want %d", len(m.recent), maxVisible)
	}
	if got := m.items[m.recent[len(m.recent)-1]].path; got != files[len(files)-1] {
		t.Errorf("last visible = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("library/email.errors.rst", 10); got != "library..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
}
