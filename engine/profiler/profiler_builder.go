package profiler

import (
	"time"

	"github.com/Carmen-Shannon/oxy4d/engine/resource"
	"github.com/charmbracelet/log"
)

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(*Profiler)

// WithLogger sets the logger reports are written to.
func WithLogger(l *log.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.logger = l
	}
}

// WithInterval sets how often stats are reported.
//
// Parameters:
//   - d: the report interval, ignored when not positive
//
// Returns:
//   - ProfilerBuilderOption: a function that sets the interval
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithRegistry adds the registry's tracked bytes and entry count to each report.
func WithRegistry(reg resource.Registry) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.registry = reg
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}
