package deprecation

import "fmt"

// UnexpectedContextError reports a marker whose container has no known
// interpretation for the current module.
type UnexpectedContextError struct {
	Tag    string
	Module string
}

func (e *UnexpectedContextError) Error() string {
	return fmt.Sprintf("Unexpected parent tag %s in %s", e.Tag, e.Module)
}
