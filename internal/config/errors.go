package config

import "fmt"

// InvalidPluginConfigurationError reports a structural misconfiguration
// such as an unknown backend id or a malformed required-approval value.
// It always surfaces as a hard failure.
type InvalidPluginConfigurationError struct {
	Message string
}

func (e *InvalidPluginConfigurationError) Error() string {
	return "invalid code-owners configuration: " + e.Message
}

func invalidConfigf(format string, args ...any) *InvalidPluginConfigurationError {
	return &InvalidPluginConfigurationError{Message: fmt.Sprintf(format, args...)}
}
