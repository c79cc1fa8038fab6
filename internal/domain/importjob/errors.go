package importjob

import "errors"

var (
	ErrJobNotFound          = errors.New("import job not found")
	ErrInvalidImportType    = errors.New("invalid import type")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrObjectNotFound       = errors.New("object not found")
)
