package domain

import "fmt"

type MalformedInputError struct {
	Field   string
	Subject string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed ticket: missing %s (subject %q)", e.Field, e.Subject)
}
