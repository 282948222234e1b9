package store

import "fmt"

// WriteError reports that an activity record could not be persisted. No
// partial row is left behind when it is returned. Callers treat it as
// non-fatal to the workflow that produced the record.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("activity store %s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
