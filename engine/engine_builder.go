package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy4d/engine/camera"
	"github.com/Carmen-Shannon/oxy4d/engine/config"
	"github.com/Carmen-Shannon/oxy4d/engine/lifecycle"
	"github.com/Carmen-Shannon/oxy4d/engine/profiler"
	"github.com/Carmen-Shannon/oxy4d/engine/projector"
	"github.com/Carmen-Shannon/oxy4d/engine/resource"
	"github.com/Carmen-Shannon/oxy4d/engine/scene"
	"github.com/charmbracelet/log"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig applies the projection, tolerances and viewport of a configuration.
//
// Parameters:
//   - cfg: a validated configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg *config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.projector = cfg.Projector()
		e.rotorEps = cfg.Tolerances.Rotor
		e.width, e.height = cfg.Viewport.Width, cfg.Viewport.Height
	}
}

// WithProjector sets the initial projection configuration.
func WithProjector(pr projector.Projector) EngineBuilderOption {
	return func(e *engine) {
		e.projector = pr
	}
}

// WithViewport sets the initial viewport size.
func WithViewport(width, height int) EngineBuilderOption {
	return func(e *engine) {
		e.width, e.height = width, height
	}
}

// WithLogger sets the logger the engine and the components it creates derive theirs from.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(l *log.Logger) EngineBuilderOption {
	return func(e *engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRegistry shares an existing resource registry.
func WithRegistry(reg resource.Registry) EngineBuilderOption {
	return func(e *engine) {
		e.registry = reg
	}
}

// WithScene uses an existing scene instead of creating one. The engine does not tear it down,
// and the scene keeps its own rotor tolerance.
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithCamera uses an existing camera.
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithBatch uses an existing batch projector. The engine does not close it on Teardown.
func WithBatch(b projector.Batch) EngineBuilderOption {
	return func(e *engine) {
		e.batch = b
	}
}

// WithProfiler attaches a profiler ticked after every rendered frame.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithManagerOptions passes extra options to the lifecycle manager the engine creates.
func WithManagerOptions(opts ...lifecycle.ManagerBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.managerOpts = append(e.managerOpts, opts...)
	}
}

// WithTickCallback registers the function called before every frame.
//
// Parameters:
//   - callback: receives the time since the previous tick in seconds
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickCallback(callback func(dt float64)) EngineBuilderOption {
	return func(e *engine) {
		e.tickCallback = callback
	}
}

// WithClock replaces the time source used for tick deltas.
func WithClock(now func() time.Time) EngineBuilderOption {
	return func(e *engine) {
		e.now = now
	}
}

// WithCulling enables or disables dropping draws outside the camera frustum. Enabled by default.
func WithCulling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.culling = enabled
	}
}
