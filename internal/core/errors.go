package core

import "errors"

var (
	// ErrInvalidDataset is returned for input with no header row or no data rows,
	// or whose selected totals overflow.
	ErrInvalidDataset = errors.New("invalid dataset")

	// ErrInvalidConfiguration is wrapped by ValidationResult.Err.
	ErrInvalidConfiguration = errors.New("invalid invoice configuration")

	// ErrDocumentGeneration wraps any failure of the Renderer.
	ErrDocumentGeneration = errors.New("document generation failed")

	// ErrMalformedBackup is returned when a backup payload lacks required keys.
	ErrMalformedBackup = errors.New("malformed backup")

	ErrRecordNotFound      = errors.New("invoice record not found")
	ErrDuplicateRecord     = errors.New("duplicate invoice record")
	ErrDatasetNotFound     = errors.New("dataset not found")
	ErrUnknownColumn       = errors.New("unknown column")
	ErrRestoreNotConfirmed = errors.New("restore not confirmed")
)
