package importer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrJobFinished        = errors.New("import job already finished")
	ErrEmptyFile          = errors.New("file is empty")
	ErrRowLimitExceeded   = errors.New("row limit exceeded")
	ErrTenantNotEligible  = errors.New("organization is not eligible for this import type")
	ErrMissingTargetID    = errors.New("import type requires a target id")
	ErrMissingColumns     = errors.New("missing required columns")
	ErrUnterminatedQuote  = errors.New("unterminated quoted field")
	ErrInvalidImportJob   = errors.New("invalid import job")
	ErrInvalidImportInput = errors.New("invalid import input")
	ErrEnqueueImportJob   = errors.New("failed to enqueue import job")
	ErrImportJobNotFound  = errors.New("import job not found")
	ErrGetImportJob       = errors.New("failed to get import job")
)

// MissingColumnsError lists the required columns absent from the header row.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Unwrap() error {
	return ErrMissingColumns
}
