package errors

import (
	stderrors "errors"
	"fmt"
)

// ParseError wraps a specific error with context about where it occurred.
type ParseError struct {
	Line   int
	Record []string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %v (record: %v)", e.Line, e.Err, e.Record)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FileError records a failure that aborted processing of a single source file.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Parse errors are fatal for the file they occur in.
var (
	ErrMissingHeader          = fmt.Errorf("missing header record")
	ErrInvalidFieldCount      = fmt.Errorf("invalid field count")
	ErrInvalidEscalationLevel = fmt.Errorf("invalid escalation level")
	ErrEmptyAssignee          = fmt.Errorf("empty assignee id")
	ErrInvalidAssigneeType    = fmt.Errorf("invalid assignee type")
	ErrInvalidStartTime       = fmt.Errorf("invalid start time")
	ErrInvalidEndTime         = fmt.Errorf("invalid end time")
)

// ErrInvalidDayOfWeek describes a skipped row. It is never returned from Parse.
var ErrInvalidDayOfWeek = fmt.Errorf("invalid day of week")

var (
	ErrCoverageMismatch = fmt.Errorf("occupant coverage mismatch")
	ErrUnknownFormat    = fmt.Errorf("unknown output format")
	ErrRunNotFound      = fmt.Errorf("run not found")
	ErrStoreNotFound    = fmt.Errorf("no store")
	ErrOverwriteSource  = fmt.Errorf("output would overwrite a source file")
)

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }
