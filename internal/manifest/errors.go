package manifest

import (
	"fmt"
	"strings"
)

// ParseError reports a manifest that is not well-formed structured data.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to parse manifest: %v", e.Err)
	}
	return fmt.Sprintf("failed to parse manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Violation is a single schema failure. Field is the dotted path into the
// document ("(root)", "3", "3.id").
type Violation struct {
	Field   string
	Message string
}

// SchemaError reports a well-formed manifest whose shape is wrong, most
// commonly a record without an id.
type SchemaError struct {
	Path       string
	Violations []Violation
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	where := "manifest"
	if e.Path != "" {
		where = "manifest " + e.Path
	}
	return fmt.Sprintf("%s does not match schema: %s", where, strings.Join(parts, "; "))
}

// ReadError reports a manifest that could not be read at all. Unlike asset
// files, a missing manifest is fatal.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read manifest %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
