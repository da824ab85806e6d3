package diagfilter

import "testing"

func TestKeep(t *testing.T) {
	f := New(nil, nil)
	tests := []struct {
		msg  string
		keep bool
	}{
		{`lib/x.rst:3: (ERROR/3) Unknown directive type "doctest".`, false},
		{`lib/x.rst:3: (ERROR/3) Unknown directive type "deprecated-removed".`, false},
		{`lib/x.rst:9: (ERROR/3) Unknown interpreted text role "source".`, false},
		{`lib/x.rst:3: (ERROR/3) Unknown directive type "doctests".`, true},
		{`lib/x.rst:3: (ERROR/3) Unknown directive type "bogus".`, true},
		{`lib/x.rst:9: (ERROR/3) Unknown interpreted text role "gh".`, true},
		{`lib/x.rst:3: (WARNING/2) Unknown directive type "doctest".`, true},
		{`lib/x.rst:1: (SEVERE/4) Title level inconsistent:`, true},
	}
	for _, tt := range tests {
		if got := f.Keep(tt.msg); got != tt.keep {
			t.Errorf("Keep(%q) = %v, want %v", tt.msg, got, tt.keep)
		}
	}
}

func TestExtrasExtendAllowLists(t *testing.T) {
	f := New([]string{"gh", " "}, []string{"c:macro+x"})
	if f.Keep(`a.rst:1: (ERROR/3) Unknown interpreted text role "gh".`) {
		t.Error("extra role not suppressed")
	}
	if f.Keep(`a.rst:1: (ERROR/3) Unknown directive type "c:macro+x".`) {
		t.Error("extra directive not suppressed")
	}
	if !f.Keep(`a.rst:1: (ERROR/3) Unknown directive type "c:macrox".`) {
		t.Error("metacharacters in extras must match literally")
	}
	if f.Keep(`a.rst:1: (ERROR/3) Unknown directive type "doctest".`) {
		t.Error("fixed list lost when extras are given")
	}
}

func TestNilFilterKeepsEverything(t *testing.T) {
	var f *Filter
	if !f.Keep(`a.rst:1: (ERROR/3) Unknown directive type "doctest".`) {
		t.Error("nil filter dropped a message")
	}
}
