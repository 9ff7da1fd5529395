// Package raster is the immediate-mode backend. It draws the CPU-projected point stream of each
// frame straight into an RGBA framebuffer, uploading the per-draw uniform block and point
// stream into CPU buffers that mirror what a WebGL program would receive.
package raster

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy4d/engine/renderer"
	"github.com/Carmen-Shannon/oxy4d/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy4d/engine/resource"
	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"
	"github.com/go-gl/mathgl/mgl32"
)

// Renderer is the raster backend. Besides the shared contract it exposes the uploaded state
// for headless output and diagnostics.
type Renderer interface {
	renderer.Renderer

	// Snapshot copies the framebuffer as of the last rendered frame.
	//
	// Returns:
	//   - *image.RGBA: a copy of the framebuffer, or nil if no framebuffer is allocated
	Snapshot() *image.RGBA

	// Uniforms returns the uniform blocks uploaded by the last frame, decoded from the
	// uniform buffer.
	//
	// Returns:
	//   - []renderer.HyperUniform: one block per draw
	Uniforms() []renderer.HyperUniform

	// Size returns the current viewport size.
	Size() (int, int)

	// Active reports whether the backend is active.
	Active() bool
}

type rasterRenderer struct {
	mu     *sync.Mutex
	opts   renderer.Options
	logger *log.Logger

	active bool
	width  int
	height int

	program     *program
	programID   resource.ID
	fb          *framebuffer
	fbID        resource.ID
	vertices    *buffer
	verticesID  resource.ID
	uniforms    *buffer
	uniformsID  resource.ID
	uniformSize int
}

var _ Renderer = &rasterRenderer{}

// New creates an inactive raster backend. Nothing is allocated until the first activation.
//
// Parameters:
//   - opts: the shared backend options
//
// Returns:
//   - Renderer: the backend
func New(opts ...renderer.RendererBuilderOption) Renderer {
	o := renderer.NewOptions(renderer.BackendTypeWebGL, opts...)
	return &rasterRenderer{
		mu:     &sync.Mutex{},
		opts:   o,
		logger: o.Logger,
	}
}

func (r *rasterRenderer) SetActive(active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if active == r.active {
		return nil
	}
	if !active {
		r.active = false
		r.logger.Debug("deactivated", "scope", r.opts.Scope)
		return nil
	}
	if r.opts.Source == nil {
		return renderer.ErrNoFrameSource
	}
	if err := r.ensureProgram(); err != nil {
		return err
	}
	if err := r.ensureFramebuffer(); err != nil {
		return err
	}
	r.active = true
	r.logger.Debug("activated", "scope", r.opts.Scope, "width", r.width, "height", r.height)
	return nil
}

func (r *rasterRenderer) Resize(width, height int) error {
	if err := renderer.CheckSize(width, height); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if width == r.width && height == r.height {
		return nil
	}
	r.width, r.height = width, height
	if !r.active {
		return nil
	}
	return r.ensureFramebuffer()
}

func (r *rasterRenderer) RenderFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active {
		return renderer.ErrNotActive
	}
	frame, err := r.opts.Source.Frame()
	if err != nil {
		return fmt.Errorf("raster: frame source: %w", err)
	}
	if err := frame.Validate(); err != nil {
		return fmt.Errorf("raster: %w", err)
	}

	if err := r.ensureFramebuffer(); err != nil {
		return err
	}
	if err := r.uploadUniforms(frame); err != nil {
		return err
	}
	if err := r.uploadPoints(frame); err != nil {
		return err
	}
	if r.fb == nil {
		// zero-sized viewport: uploads happen, nothing is drawn
		return nil
	}
	r.draw(frame)
	return nil
}

func (r *rasterRenderer) Snapshot() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fb == nil || r.fb.img == nil {
		return nil
	}
	out := image.NewRGBA(r.fb.img.Bounds())
	draw.Draw(out, out.Bounds(), r.fb.img, image.Point{}, draw.Src)
	return out
}

func (r *rasterRenderer) Uniforms() []renderer.HyperUniform {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.uniforms == nil {
		return nil
	}
	n := len(r.uniforms.data) / renderer.HyperUniformSize
	out := make([]renderer.HyperUniform, n)
	for i := range out {
		out[i] = decodeUniform(r.uniforms.data[i*renderer.HyperUniformSize:])
	}
	return out
}

func (r *rasterRenderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *rasterRenderer) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// tracked reports whether id is still registered. A scope disposal releases our objects behind
// our back; anything no longer tracked is rebuilt.
func (r *rasterRenderer) tracked(id resource.ID) bool {
	if id == 0 {
		return false
	}
	_, ok := r.opts.Registry.Lookup(r.opts.Scope, id)
	return ok
}

func (r *rasterRenderer) ensureProgram() error {
	if r.program != nil && r.tracked(r.programID) {
		return nil
	}
	shaders, err := shader.VerifyGLSL("hyper", r.opts.GLSLVertex, r.opts.GLSLFragment)
	if err != nil {
		return fmt.Errorf("raster: program: %w", err)
	}
	p := &program{shaders: shaders}
	id, err := r.opts.Registry.Register(r.opts.Scope, resource.TypeProgram, p, p.bytes(), "raster program")
	if err != nil {
		return fmt.Errorf("raster: register program: %w", err)
	}
	r.program, r.programID = p, id
	return nil
}

// ensureFramebuffer makes the framebuffer match the viewport, reallocating on size changes.
func (r *rasterRenderer) ensureFramebuffer() error {
	current := r.fb != nil && r.tracked(r.fbID)
	if current && r.fb.img.Bounds().Dx() == r.width && r.fb.img.Bounds().Dy() == r.height {
		return nil
	}
	if current {
		r.opts.Registry.Release(r.opts.Scope, r.fbID)
	}
	r.fb, r.fbID = nil, 0
	if r.width == 0 || r.height == 0 {
		return nil
	}

	fb := newFramebuffer(r.width, r.height)
	id, err := r.opts.Registry.Register(r.opts.Scope, resource.TypeFramebuffer, fb, fb.bytes(), "raster framebuffer")
	if err != nil {
		return fmt.Errorf("raster: register framebuffer: %w", err)
	}
	r.fb, r.fbID = fb, id
	r.logger.Debug("framebuffer allocated", "width", r.width, "height", r.height, "bytes", fb.bytes())
	return nil
}

// ensureBuffer reserves n bytes in *b, registering the buffer on first use and updating its
// tracked size when it grows.
func (r *rasterRenderer) ensureBuffer(b **buffer, id *resource.ID, n int, label string) error {
	if *b == nil || !r.tracked(*id) {
		*b, *id = &buffer{}, 0
	}
	grew := (*b).reserve(n)
	if *id == 0 {
		newID, err := r.opts.Registry.Register(r.opts.Scope, resource.TypeBuffer, *b, uint64(cap((*b).data)), label)
		if err != nil {
			return fmt.Errorf("raster: register %s: %w", label, err)
		}
		*id = newID
		return nil
	}
	if grew {
		if err := r.opts.Registry.Resize(r.opts.Scope, *id, uint64(cap((*b).data))); err != nil {
			return fmt.Errorf("raster: resize %s: %w", label, err)
		}
	}
	return nil
}

func (r *rasterRenderer) uploadUniforms(frame *renderer.Frame) error {
	n := len(frame.Draws) * renderer.HyperUniformSize
	if err := r.ensureBuffer(&r.uniforms, &r.uniformsID, n, "raster uniforms"); err != nil {
		return err
	}
	for i := range frame.Draws {
		copy(r.uniforms.data[i*renderer.HyperUniformSize:], frame.Draws[i].Uniform.Marshal())
	}
	return nil
}

func (r *rasterRenderer) uploadPoints(frame *renderer.Frame) error {
	n := len(frame.Points) * 12
	if err := r.ensureBuffer(&r.vertices, &r.verticesID, n, "raster points"); err != nil {
		return err
	}
	for i, p := range frame.Points {
		for c := range 3 {
			binary.LittleEndian.PutUint32(r.vertices.data[i*12+c*4:], math.Float32bits(p[c]))
		}
	}
	return nil
}

func (r *rasterRenderer) draw(frame *renderer.Frame) {
	dc := gg.NewContextForRGBA(r.fb.img)
	dc.SetColor(r.opts.ClearColor)
	dc.Clear()
	dc.SetColor(r.opts.LineColor)
	dc.SetLineWidth(r.opts.LineWidth)

	w, h := float64(r.width), float64(r.height)
	for i, d := range frame.Draws {
		points := frame.DrawPoints(i)
		screen := make([]mgl32.Vec2, len(points))
		visible := make([]bool, len(points))
		for j, p := range points {
			screen[j], visible[j] = toScreen(frame.ViewProj, p, w, h)
		}
		for k := 0; k+1 < len(d.Indices); k += 2 {
			a, b := d.Indices[k], d.Indices[k+1]
			if !visible[a] || !visible[b] {
				continue
			}
			dc.DrawLine(float64(screen[a][0]), float64(screen[a][1]), float64(screen[b][0]), float64(screen[b][1]))
		}
		dc.Stroke()
	}
}

// toScreen maps a world-space point through viewProj to pixel coordinates. Points behind the
// camera are not visible.
func toScreen(viewProj mgl32.Mat4, p mgl32.Vec3, w, h float64) (mgl32.Vec2, bool) {
	clip := viewProj.Mul4x1(p.Vec4(1))
	if clip[3] <= 1e-6 {
		return mgl32.Vec2{}, false
	}
	ndc := clip.Vec3().Mul(1 / clip[3])
	x := (float64(ndc[0]) + 1) * 0.5 * w
	y := (1 - float64(ndc[1])) * 0.5 * h
	return mgl32.Vec2{float32(x), float32(y)}, true
}

// decodeUniform reads one block written by HyperUniform.Marshal.
func decodeUniform(buf []byte) renderer.HyperUniform {
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	var u renderer.HyperUniform
	for i := range 16 {
		u.Rotation[i] = f(i * 4)
		u.ViewProj[i] = f(64 + i*4)
	}
	for i := range 4 {
		u.Translation[i] = f(128 + i*4)
	}
	u.ProjectionMode = binary.LittleEndian.Uint32(buf[144:])
	u.Epsilon = f(148)
	u.Distance = f(152)
	return u
}
