package domain

import (
	"sort"
	"strings"
)

// FieldErrors maps an input field to a human readable problem.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f, msg := range e {
		fields = append(fields, f+": "+msg)
	}
	sort.Strings(fields)
	return "invalid input: " + strings.Join(fields, "; ")
}

// Err returns nil when there are no field errors.
func (e FieldErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
