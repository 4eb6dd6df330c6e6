package clamba

import (
	"errors"

	"github.com/brunobiangulo/clamba/detect"
	"github.com/brunobiangulo/clamba/llm"
	"github.com/brunobiangulo/clamba/parser"
)

// Sentinel errors owned by the subpackages, re-exported so that callers
// driving the pipeline through Analyzer only need to import this package.
var (
	ErrFileNotFound          = parser.ErrFileNotFound
	ErrUnsupportedFormat     = parser.ErrUnsupportedFormat
	ErrEmptyDocument         = parser.ErrEmptyDocument
	ErrProviderUnavailable   = llm.ErrProviderUnavailable
	ErrProviderRequestFailed = llm.ErrProviderRequestFailed
	ErrNoPayload             = detect.ErrNoPayload
	ErrNoProcesses           = detect.ErrNoProcesses
)

var (
	// ErrValidationFailed is returned when the assembled contract fails
	// structural validation.
	ErrValidationFailed = errors.New("clamba: contract validation failed")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("clamba: invalid configuration")
)
