// Package validate carries field-level validation failures. These are the
// only errors whose details are safe to return to the caller.
package validate

import (
	"sort"
	"strings"
)

// FieldErrors maps field name to problem description. It is an error so
// services can return it directly; handlers unwrap it with errors.As and
// render the fields in the 400 body.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, f := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f + ": " + e[f])
	}
	return b.String()
}

// Add records a problem for a field, keeping the first message per field.
func (e FieldErrors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// OrNil returns the collected errors, or nil when every check passed.
func (e FieldErrors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
