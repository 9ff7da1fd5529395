package renderer

import (
	"image/color"

	"github.com/Carmen-Shannon/oxy4d/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy4d/engine/resource"
	"github.com/charmbracelet/log"
)

// Options is the configuration shared by every backend.
type Options struct {
	Registry    resource.Registry
	Scope       resource.Scope
	Source      FrameSource
	Logger      *log.Logger
	PresentMode PresentMode
	ClearColor  color.RGBA
	LineColor   color.RGBA
	LineWidth   float64

	// WGSL is the pipeline backend's shader source. GLSLVertex and GLSLFragment are the
	// raster backend's program. All default to the embedded assets.
	WGSL         string
	GLSLVertex   string
	GLSLFragment string

	// ForceFallbackAdapter asks the pipeline backend for a software adapter.
	ForceFallbackAdapter bool
}

// RendererBuilderOption is a functional option applied to a backend during construction.
type RendererBuilderOption func(*Options)

// NewOptions applies opts over the defaults. A backend without a registry gets a private one;
// a backend without a scope is scoped by its backend name.
//
// Parameters:
//   - kind: the backend being configured
//   - opts: the options to apply
//
// Returns:
//   - Options: the resolved options
func NewOptions(kind BackendType, opts ...RendererBuilderOption) Options {
	o := Options{
		PresentMode: PresentModeVSync,
		ClearColor:  color.RGBA{R: 10, G: 10, B: 16, A: 255},
		LineColor:   color.RGBA{R: 120, G: 200, B: 255, A: 255},
		LineWidth:   1.5,

		WGSL:         shader.HyperWGSL,
		GLSLVertex:   shader.HyperVert,
		GLSLFragment: shader.HyperFrag,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = log.Default().WithPrefix(kind.String())
	}
	if o.Registry == nil {
		o.Registry = resource.NewRegistry(resource.WithLogger(o.Logger))
	}
	if o.Scope == "" {
		o.Scope = resource.Scope("renderer/" + kind.String())
	}
	return o
}

// WithRegistry sets the registry backend resources are tracked in.
//
// Parameters:
//   - reg: the registry
//
// Returns:
//   - RendererBuilderOption: a function that sets the registry
func WithRegistry(reg resource.Registry) RendererBuilderOption {
	return func(o *Options) {
		o.Registry = reg
	}
}

// WithScope sets the registry scope of the backend's resources.
//
// Parameters:
//   - scope: the scope
//
// Returns:
//   - RendererBuilderOption: a function that sets the scope
func WithScope(scope resource.Scope) RendererBuilderOption {
	return func(o *Options) {
		o.Scope = scope
	}
}

// WithFrameSource sets where frames come from.
//
// Parameters:
//   - src: the frame source
//
// Returns:
//   - RendererBuilderOption: a function that sets the frame source
func WithFrameSource(src FrameSource) RendererBuilderOption {
	return func(o *Options) {
		o.Source = src
	}
}

// WithLogger sets the backend's logger.
func WithLogger(l *log.Logger) RendererBuilderOption {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(o *Options) {
		o.PresentMode = mode
	}
}

// WithClearColor sets the background color.
func WithClearColor(c color.RGBA) RendererBuilderOption {
	return func(o *Options) {
		o.ClearColor = c
	}
}

// WithLineColor sets the wireframe color.
func WithLineColor(c color.RGBA) RendererBuilderOption {
	return func(o *Options) {
		o.LineColor = c
	}
}

// WithLineWidth sets the wireframe line width in pixels. Backends that draw hardware lines
// ignore it.
func WithLineWidth(w float64) RendererBuilderOption {
	return func(o *Options) {
		if w > 0 {
			o.LineWidth = w
		}
	}
}

// WithForceFallbackAdapter requests a software adapter from the pipeline backend, for machines
// without a usable GPU driver.
//
// Returns:
//   - RendererBuilderOption: a function that sets the fallback flag
func WithForceFallbackAdapter() RendererBuilderOption {
	return func(o *Options) {
		o.ForceFallbackAdapter = true
	}
}

// WithWGSL replaces the pipeline backend's shader source. The source must declare the Hyper
// uniform block and is verified when the backend activates.
//
// Parameters:
//   - source: WGSL source holding vertex and fragment entry points
//
// Returns:
//   - RendererBuilderOption: a function that sets the WGSL source
func WithWGSL(source string) RendererBuilderOption {
	return func(o *Options) {
		o.WGSL = source
	}
}

// WithGLSL replaces the raster backend's program. An empty fragment source leaves the
// fragment stage out of verification.
//
// Parameters:
//   - vertex: GLSL ES vertex source
//   - fragment: GLSL ES fragment source, or ""
//
// Returns:
//   - RendererBuilderOption: a function that sets the GLSL sources
func WithGLSL(vertex, fragment string) RendererBuilderOption {
	return func(o *Options) {
		o.GLSLVertex = vertex
		o.GLSLFragment = fragment
	}
}
