package apperrors

import "errors"

var (
	ErrAuthRequired       = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrValidation         = errors.New("validation failed")
	ErrExtraction         = errors.New("could not extract text from document")
	ErrExternalDependency = errors.New("external dependency failure")
)
