package backend

import (
	"fmt"

	"codeowners/internal/model"
)

// Backend converts between the stored representation of a code owner
// config file and the normalized model.CodeOwnerConfig. Implementations
// register themselves via Register; callers select one per branch through
// configuration.
type Backend interface {
	// ID is the configuration value that selects this backend.
	ID() string

	// FileName is the default name of code owner config files for this
	// backend (e.g. "OWNERS"). A configured file extension is appended by
	// the store, not by the backend.
	FileName() string

	// IsCodeOwnerConfigFile reports whether the given file name is a code
	// owner config file of this backend, taking an optional configured
	// file extension into account.
	IsCodeOwnerConfigFile(fileName, fileExtension string) bool

	// Parse converts file content into a config. A failed parse returns a
	// *ParseError and no config; it never returns a partial config.
	// Individually malformed entries may be skipped where the concrete
	// syntax allows it.
	Parse(key model.Key, content []byte) (model.CodeOwnerConfig, error)

	// Format is the inverse of Parse. Formatting then parsing yields a
	// semantically equal config.
	Format(cfg model.CodeOwnerConfig) ([]byte, error)
}

// ParseError reports content that violates the backend syntax. Line and
// Column are 1-based and zero when unknown.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("invalid code owner config file %s (line %d, column %d): %s", e.Path, e.Line, e.Column, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("invalid code owner config file %s (line %d): %s", e.Path, e.Line, e.Message)
	default:
		return fmt.Sprintf("invalid code owner config file %s: %s", e.Path, e.Message)
	}
}
