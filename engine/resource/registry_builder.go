package resource

import "github.com/charmbracelet/log"

// RegistryBuilderOption configures a Registry.
type RegistryBuilderOption func(*registryImpl)

// WithLogger sets the logger used for misuse warnings and debug traces.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - RegistryBuilderOption: a function that sets the logger
func WithLogger(l *log.Logger) RegistryBuilderOption {
	return func(r *registryImpl) {
		if l != nil {
			r.logger = l
		}
	}
}
