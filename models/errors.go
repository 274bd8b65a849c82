package models

import "fmt"

// Concrete error kinds consumed by helper.GetStatusCode. Handlers never
// inspect these beyond the type; the message is what reaches the client.

type ErrorNotFound struct {
	Message string
}

func (e ErrorNotFound) Error() string { return e.Message }

type ErrorUnauthorized struct {
	Message string
}

func (e ErrorUnauthorized) Error() string { return e.Message }

type ErrorForbidden struct {
	Message string
}

func (e ErrorForbidden) Error() string { return e.Message }

type ErrorConflict struct {
	Message string
}

func (e ErrorConflict) Error() string { return e.Message }

// ErrorValidation carries per-field messages; nothing was written when it is
// returned.
type ErrorValidation struct {
	Fields map[string][]string
}

func (e ErrorValidation) Error() string { return "validation failed" }

type ErrorInvalidFileType struct {
	Field string
	Mime  string
}

func (e ErrorInvalidFileType) Error() string {
	return fmt.Sprintf("file type %q is not allowed for field %q", e.Mime, e.Field)
}

type ErrorFileTooLarge struct {
	Field string
	Size  int64
	Limit int64
}

func (e ErrorFileTooLarge) Error() string {
	return fmt.Sprintf("file for field %q exceeds the %d byte limit", e.Field, e.Limit)
}

// ErrorStorage is deliberately opaque toward the client; the cause is kept
// only for logs.
type ErrorStorage struct {
	Err error
}

func (e ErrorStorage) Error() string { return "storage failure" }

func (e ErrorStorage) Unwrap() error { return e.Err }
