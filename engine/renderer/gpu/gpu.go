// Package gpu is the command/pipeline backend built on WebGPU. Raw 4D vertices are uploaded
// once per draw and the Hyper uniform block is applied in the vertex shader.
package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy4d/engine/renderer"
	"github.com/Carmen-Shannon/oxy4d/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy4d/engine/resource"
	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
)

// Renderer is the WebGPU backend.
type Renderer interface {
	renderer.Renderer

	// Device returns the current device, or nil after its scope was disposed and before the
	// next activation.
	Device() *wgpu.Device
}

// pipelineState is the compiled wireframe pipeline.
type pipelineState struct {
	shader   shader.Shader
	module   *wgpu.ShaderModule
	layout   *wgpu.BindGroupLayout
	pipeline *wgpu.RenderPipeline
	ids      []resource.ID
}

// drawSlot holds the buffers and bind group of one draw index. Slots are reused across frames
// and regrown when a draw outgrows them.
type drawSlot struct {
	vertex, index, uniform       *wgpu.Buffer
	vertexID, indexID, uniformID resource.ID
	bindGroup                    *wgpu.BindGroup
	bindGroupID                  resource.ID
	indexCount                   uint32
}

type gpuRenderer struct {
	mu     *sync.Mutex
	opts   renderer.Options
	logger *log.Logger

	surfaceDescriptor *wgpu.SurfaceDescriptor

	active bool
	width  int
	height int

	dev      *device
	pipeline *pipelineState
	slots    []*drawSlot
}

var _ Renderer = &gpuRenderer{}

// New acquires a WebGPU device for the surface and returns an inactive backend. The pipeline is
// built on the first activation.
//
// Parameters:
//   - surface: the platform surface descriptor, typically from the window
//   - opts: the shared backend options
//
// Returns:
//   - Renderer: the backend
//   - error: an error if no adapter or device could be acquired
func New(surface *wgpu.SurfaceDescriptor, opts ...renderer.RendererBuilderOption) (Renderer, error) {
	o := renderer.NewOptions(renderer.BackendTypeWebGPU, opts...)
	g := &gpuRenderer{
		mu:                &sync.Mutex{},
		opts:              o,
		logger:            o.Logger,
		surfaceDescriptor: surface,
	}
	dev, err := acquireDevice(surface, o.Registry, o.Scope, o.PresentMode, g.opts.ForceFallbackAdapter)
	if err != nil {
		return nil, err
	}
	g.dev = dev
	return g, nil
}

func (g *gpuRenderer) Device() *wgpu.Device {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dev == nil {
		return nil
	}
	return g.dev.device
}

func (g *gpuRenderer) SetActive(active bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if active == g.active {
		return nil
	}
	if !active {
		g.active = false
		g.logger.Debug("deactivated", "scope", g.opts.Scope)
		return nil
	}
	if g.opts.Source == nil {
		return renderer.ErrNoFrameSource
	}
	if err := g.ensureDevice(); err != nil {
		return err
	}
	if err := g.ensurePipeline(); err != nil {
		return err
	}
	g.dev.configure(g.width, g.height)
	g.active = true
	g.logger.Debug("activated", "scope", g.opts.Scope, "width", g.width, "height", g.height)
	return nil
}

func (g *gpuRenderer) Resize(width, height int) error {
	if err := renderer.CheckSize(width, height); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.width, g.height = width, height
	if g.active && g.dev != nil {
		g.dev.configure(width, height)
	}
	return nil
}

func (g *gpuRenderer) RenderFrame() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.active {
		return renderer.ErrNotActive
	}
	frame, err := g.opts.Source.Frame()
	if err != nil {
		return fmt.Errorf("gpu: frame source: %w", err)
	}
	if err := frame.Validate(); err != nil {
		return fmt.Errorf("gpu: %w", err)
	}
	if g.width == 0 || g.height == 0 {
		return nil
	}
	if err := g.ensureDevice(); err != nil {
		return err
	}
	if err := g.ensurePipeline(); err != nil {
		return err
	}
	for i := range frame.Draws {
		if err := g.upload(i, &frame.Draws[i]); err != nil {
			return err
		}
	}
	return g.submit(len(frame.Draws))
}

func (g *gpuRenderer) tracked(id resource.ID) bool {
	if id == 0 {
		return false
	}
	_, ok := g.opts.Registry.Lookup(g.opts.Scope, id)
	return ok
}

// ensureDevice re-acquires the device after its scope was disposed. Everything built on the old
// device is dropped with it.
func (g *gpuRenderer) ensureDevice() error {
	if g.dev != nil && g.tracked(g.dev.ids[len(g.dev.ids)-1]) {
		return nil
	}
	g.dev, g.pipeline, g.slots = nil, nil, nil
	dev, err := acquireDevice(g.surfaceDescriptor, g.opts.Registry, g.opts.Scope, g.opts.PresentMode, g.opts.ForceFallbackAdapter)
	if err != nil {
		return err
	}
	g.dev = dev
	g.dev.configure(g.width, g.height)
	g.logger.Debug("device reacquired", "scope", g.opts.Scope)
	return nil
}

func (g *gpuRenderer) register(h resource.Handle, typ resource.Type, bytes uint64, label string) (resource.ID, error) {
	id, err := g.opts.Registry.Register(g.opts.Scope, typ, h, bytes, label)
	if err != nil {
		return 0, fmt.Errorf("gpu: register %s: %w", label, err)
	}
	return id, nil
}

func (g *gpuRenderer) ensurePipeline() error {
	if g.pipeline != nil && g.tracked(g.pipeline.ids[len(g.pipeline.ids)-1]) {
		return nil
	}
	s, err := shader.VerifyWGSL("hyper", g.opts.WGSL)
	if err != nil {
		return fmt.Errorf("gpu: %w", err)
	}
	vertexLayout, err := vertexBufferLayout(s.Reflection())
	if err != nil {
		return err
	}

	ps := &pipelineState{shader: s}
	fail := func(err error) error {
		for i := len(ps.ids) - 1; i >= 0; i-- {
			g.opts.Registry.Release(g.opts.Scope, ps.ids[i])
		}
		return err
	}
	d := g.dev.device

	ps.module, err = d.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: s.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.Source(),
		},
	})
	if err != nil {
		return fail(fmt.Errorf("gpu: create shader module: %w", err))
	}
	id, err := g.register(ps.module, resource.TypeShaderModule, uint64(len(s.Source())), s.Key())
	if err != nil {
		return fail(err)
	}
	ps.ids = append(ps.ids, id)

	ps.layout, err = d.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "hyper bind group layout",
		Entries: uniformLayoutEntries(s.Reflection(), shader.HyperContract.Group),
	})
	if err != nil {
		return fail(fmt.Errorf("gpu: create bind group layout: %w", err))
	}
	if id, err = g.register(ps.layout, resource.TypeBindGroupLayout, 0, "hyper bind group layout"); err != nil {
		return fail(err)
	}
	ps.ids = append(ps.ids, id)

	pipelineLayout, err := d.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "hyper pipeline layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{ps.layout},
	})
	if err != nil {
		return fail(fmt.Errorf("gpu: create pipeline layout: %w", err))
	}
	if id, err = g.register(pipelineLayout, resource.TypePipelineLayout, 0, "hyper pipeline layout"); err != nil {
		return fail(err)
	}
	ps.ids = append(ps.ids, id)

	ps.pipeline, err = d.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "hyper wireframe pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     ps.module,
			EntryPoint: s.EntryPoint(shader.StageVertex),
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     ps.module,
			EntryPoint: s.EntryPoint(shader.StageFragment),
			Targets: []wgpu.ColorTargetState{{
				Format:    g.dev.format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyLineList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fail(fmt.Errorf("gpu: create render pipeline: %w", err))
	}
	if id, err = g.register(ps.pipeline, resource.TypePipeline, 0, "hyper wireframe pipeline"); err != nil {
		return fail(err)
	}
	ps.ids = append(ps.ids, id)

	g.pipeline = ps
	g.slots = nil
	return nil
}

// ensureBuffer makes *buf at least size bytes, replacing it when it is too small or was
// disposed. It reports whether a new buffer was created.
func (g *gpuRenderer) ensureBuffer(buf **wgpu.Buffer, id *resource.ID, size uint64, usage wgpu.BufferUsage, label string) (bool, error) {
	if *buf != nil && g.tracked(*id) {
		if e, _ := g.opts.Registry.Lookup(g.opts.Scope, *id); e.Bytes >= size {
			return false, nil
		}
		g.opts.Registry.Release(g.opts.Scope, *id)
	}
	*buf, *id = nil, 0

	// wgpu requires buffer sizes aligned to 4 and non-zero
	size = max((size+3)&^3, 4)
	created, err := g.dev.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return false, fmt.Errorf("gpu: create %s: %w", label, err)
	}
	newID, err := g.register(created, resource.TypeBuffer, size, label)
	if err != nil {
		created.Release()
		return false, err
	}
	*buf, *id = created, newID
	return true, nil
}

// upload writes draw i's vertices, indices and uniform block into its slot.
func (g *gpuRenderer) upload(i int, d *renderer.Draw) error {
	for len(g.slots) <= i {
		g.slots = append(g.slots, &drawSlot{})
	}
	slot := g.slots[i]
	label := fmt.Sprintf("draw %d", i)

	vertexData := make([]byte, len(d.Vertices)*vertexStride)
	for j, v := range d.Vertices {
		for c, f := range [4]float64{v.X, v.Y, v.Z, v.W} {
			binary.LittleEndian.PutUint32(vertexData[j*vertexStride+c*4:], math.Float32bits(float32(f)))
		}
	}
	indexData := make([]byte, len(d.Indices)*4)
	for j, idx := range d.Indices {
		binary.LittleEndian.PutUint32(indexData[j*4:], idx)
	}

	if _, err := g.ensureBuffer(&slot.vertex, &slot.vertexID, uint64(len(vertexData)), wgpu.BufferUsageVertex, label+" vertices"); err != nil {
		return err
	}
	if _, err := g.ensureBuffer(&slot.index, &slot.indexID, uint64(len(indexData)), wgpu.BufferUsageIndex, label+" indices"); err != nil {
		return err
	}
	newUniform, err := g.ensureBuffer(&slot.uniform, &slot.uniformID, renderer.HyperUniformSize, wgpu.BufferUsageUniform, label+" uniform")
	if err != nil {
		return err
	}

	if newUniform || slot.bindGroup == nil || !g.tracked(slot.bindGroupID) {
		if slot.bindGroup != nil && g.tracked(slot.bindGroupID) {
			g.opts.Registry.Release(g.opts.Scope, slot.bindGroupID)
		}
		bg, err := g.dev.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  label + " bind group",
			Layout: g.pipeline.layout,
			Entries: []wgpu.BindGroupEntry{{
				Binding: uint32(shader.HyperContract.Binding),
				Buffer:  slot.uniform,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}},
		})
		if err != nil {
			return fmt.Errorf("gpu: create bind group: %w", err)
		}
		if slot.bindGroupID, err = g.register(bg, resource.TypeBindGroup, 0, label+" bind group"); err != nil {
			bg.Release()
			return err
		}
		slot.bindGroup = bg
	}

	if len(vertexData) > 0 {
		g.dev.queue.WriteBuffer(slot.vertex, 0, vertexData)
	}
	if len(indexData) > 0 {
		g.dev.queue.WriteBuffer(slot.index, 0, indexData)
	}
	g.dev.queue.WriteBuffer(slot.uniform, 0, d.Uniform.Marshal())
	slot.indexCount = uint32(len(d.Indices))
	return nil
}

// submit records one render pass drawing the first n slots and presents it.
func (g *gpuRenderer) submit(n int) error {
	surfaceTexture, err := g.dev.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("gpu: acquire surface texture: %w", err)
	}
	defer surfaceTexture.Release()

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("gpu: create surface view: %w", err)
	}
	defer view.Release()

	encoder, err := g.dev.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	defer encoder.Release()

	c := g.opts.ClearColor
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    view,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255, A: float64(c.A) / 255,
			},
		}},
	})
	pass.SetPipeline(g.pipeline.pipeline)
	for _, slot := range g.slots[:n] {
		if slot.indexCount == 0 {
			continue
		}
		pass.SetBindGroup(0, slot.bindGroup, nil)
		pass.SetVertexBuffer(0, slot.vertex, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(slot.index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(slot.indexCount, 1, 0, 0, 0)
	}
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("gpu: finish command encoder: %w", err)
	}
	defer commandBuffer.Release()

	g.dev.queue.Submit(commandBuffer)
	g.dev.surface.Present()
	return nil
}
