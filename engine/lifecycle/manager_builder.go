package lifecycle

import (
	"github.com/Carmen-Shannon/oxy4d/engine/profiler"
	"github.com/Carmen-Shannon/oxy4d/engine/resource"
	"github.com/charmbracelet/log"
)

// ManagerBuilderOption is a functional option for configuring a Manager.
type ManagerBuilderOption func(*manager)

// WithRegistry sets the registry renderer scopes are disposed in. Without one, swaps never
// dispose resources.
//
// Parameters:
//   - reg: the shared resource registry
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithRegistry(reg resource.Registry) ManagerBuilderOption {
	return func(m *manager) {
		m.registry = reg
	}
}

// WithLogger sets the manager's logger.
func WithLogger(l *log.Logger) ManagerBuilderOption {
	return func(m *manager) {
		m.logger = l
	}
}

// WithProfiler ticks p after every successful frame.
func WithProfiler(p *profiler.Profiler) ManagerBuilderOption {
	return func(m *manager) {
		m.profiler = p
	}
}

// RegisterOption configures one renderer registration.
type RegisterOption func(*entry)

// WithScope sets the registry scope holding the renderer's resources. Defaults to
// "renderer/<id>".
//
// Parameters:
//   - scope: the renderer's resource scope
//
// Returns:
//   - RegisterOption: option function to apply
func WithScope(scope resource.Scope) RegisterOption {
	return func(e *entry) {
		e.scope = scope
	}
}

// ActivateOption configures one activation.
type ActivateOption func(*activateConfig)

type activateConfig struct {
	teardownPrevious bool
}

// WithTeardownPrevious disposes every resource in the outgoing renderer's scope after it is
// deactivated and before the incoming renderer is activated.
//
// Returns:
//   - ActivateOption: option function to apply
func WithTeardownPrevious() ActivateOption {
	return func(c *activateConfig) {
		c.teardownPrevious = true
	}
}
