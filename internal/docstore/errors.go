package docstore

import "fmt"

// DocumentNotFoundError reports that a rule's backing document could not be
// read. It carries the reference as requested, the filesystem path that was
// attempted, and the underlying I/O failure for diagnostics.
//
// This is distinct from a query that matches no rule: no-match is a normal
// negative result, never an error.
type DocumentNotFoundError struct {
	Ref  string
	Path string
	Err  error
}

func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("document %q not found at %s: %v", e.Ref, e.Path, e.Err)
}

func (e *DocumentNotFoundError) Unwrap() error {
	return e.Err
}
