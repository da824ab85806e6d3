package directive

import "testing"

func TestRegistry_RegisterLookup(t *testing.T) {
	r := NewRegistry[string]()
	r.Register("Note", Spec{HasContent: true}, "note-handler")

	e, ok := r.Lookup("note")
	if !ok {
		t.Fatalf("lookup failed")
	}
	if e.Handler != "note-handler" || e.Name != "note" || !e.Spec.HasContent {
		t.Errorf("entry = %+v", e)
	}
	if _, ok := r.Lookup("warning"); ok {
		t.Errorf("unexpected entry for warning")
	}
}

func TestRegistry_ReplaceKeepsLen(t *testing.T) {
	r := NewRegistry[int]()
	r.Register("deprecated", Spec{}, 1)
	r.Register("deprecated", Spec{}, 2)
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
	e, _ := r.Lookup("deprecated")
	if e.Handler != 2 {
		t.Errorf("handler = %d, want 2", e.Handler)
	}
}

func TestRegistry_Alias(t *testing.T) {
	r := NewRegistry[int]()
	r.Register("py:function", Spec{RequiredArgs: 1}, 7)
	if !r.Alias("function", "py:function") {
		t.Fatalf("alias failed")
	}
	if r.Alias("x", "missing") {
		t.Errorf("alias to missing target must fail")
	}
	e, ok := r.Lookup("FUNCTION")
	if !ok || e.Handler != 7 {
		t.Errorf("alias lookup = %+v, %v", e, ok)
	}
	names := r.Names()
	if len(names) != 2 || names[0] != "function" || names[1] != "py:function" {
		t.Errorf("Names = %v", names)
	}
}

func TestRegistry_CloneIsIndependent(t *testing.T) {
	r := NewRegistry[int]()
	r.Register("note", Spec{}, 1)
	c := r.Clone()
	c.Register("deprecated", Spec{}, 2)
	c.Register("note", Spec{}, 3)

	if _, ok := r.Lookup("deprecated"); ok {
		t.Errorf("clone registration leaked into original")
	}
	if e, _ := r.Lookup("note"); e.Handler != 1 {
		t.Errorf("original note handler = %d, want 1", e.Handler)
	}
	if c.Len() != 2 {
		t.Errorf("clone Len = %d, want 2", c.Len())
	}
}
