// Package deprecation turns deprecated markers into module and entity
// records.
//
// A record is either a module name ("email.errors") or a module-qualified
// entity ("email.errors:BoundaryError"). Records keep the order in which
// markers were met and are never deduplicated.
package deprecation

// Records is an append-only list of deprecation records.
type Records struct {
	items []string
}

// Append adds records at the end.
func (r *Records) Append(records ...string) {
	r.items = append(r.items, records...)
}

// Len returns the number of records.
func (r *Records) Len() int {
	if r == nil {
		return 0
	}
	return len(r.items)
}

// All returns a copy of the records in insertion order.
func (r *Records) All() []string {
	if r == nil || len(r.items) == 0 {
		return nil
	}
	out := make([]string, len(r.items))
	copy(out, r.items)
	return out
}
