package service

import (
	"errors"
	"strings"
)

var ErrForbidden = errors.New("forbidden: insufficient permissions")

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

func newValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}
