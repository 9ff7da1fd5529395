// Package engine is the facade applications drive: it owns the 4D scene, the 3D camera, the
// projection configuration and the renderer lifecycle, and it is the frame source every
// registered backend draws from.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy4d/engine/camera"
	"github.com/Carmen-Shannon/oxy4d/engine/geometry"
	"github.com/Carmen-Shannon/oxy4d/engine/hypermath"
	"github.com/Carmen-Shannon/oxy4d/engine/lifecycle"
	"github.com/Carmen-Shannon/oxy4d/engine/profiler"
	"github.com/Carmen-Shannon/oxy4d/engine/projector"
	"github.com/Carmen-Shannon/oxy4d/engine/renderer"
	"github.com/Carmen-Shannon/oxy4d/engine/resource"
	"github.com/Carmen-Shannon/oxy4d/engine/scene"
	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Engine is the main entry point for the engine.
type Engine interface {
	renderer.FrameSource

	// ID returns the engine instance id.
	ID() uuid.UUID

	// Scene returns the 4D scene graph.
	Scene() scene.Scene

	// Camera returns the 3D camera that maps projected points to clip space.
	Camera() camera.Camera

	// Registry returns the resource registry shared by the scene and every backend.
	Registry() resource.Registry

	// Manager returns the renderer lifecycle manager.
	Manager() lifecycle.Manager

	// AddPolytope adds a root node carrying a regular polytope mesh.
	//
	// Parameters:
	//   - name: one of geometry.Names()
	//   - radius: the circumradius
	//   - opts: additional node options
	//
	// Returns:
	//   - scene.NodeID: the new node
	//   - error: geometry.ErrUnknownMesh for unknown names
	AddPolytope(name string, radius float64, opts ...scene.NodeOption) (scene.NodeID, error)

	// BackendOptions returns the options that bind a backend built for id to this engine: the
	// shared registry, the backend scope and this engine as frame source.
	//
	// Parameters:
	//   - id: the id the backend will be registered under
	//
	// Returns:
	//   - []renderer.RendererBuilderOption: options to pass to the backend constructor
	BackendOptions(id string) []renderer.RendererBuilderOption

	// AddBackend registers a renderer under id, scoped by BackendScope(id). The renderer should
	// have been built with BackendOptions(id).
	//
	// Parameters:
	//   - id: the renderer id
	//   - r: the renderer
	//   - opts: registration options
	//
	// Returns:
	//   - error: lifecycle.ErrDuplicateRenderer if id is taken
	AddBackend(id string, r renderer.Renderer, opts ...lifecycle.RegisterOption) error

	// SetPlaneAngle sets the rotation of a node in one of the six planes. The node's world
	// transform and all of its descendants are recomputed before the next frame reads them.
	//
	// Parameters:
	//   - node: the node to rotate
	//   - plane: the rotation plane
	//   - angle: the angle in radians
	//
	// Returns:
	//   - error: scene.ErrUnknownNode or an invalid plane error
	SetPlaneAngle(node scene.NodeID, plane hypermath.Plane, angle float64) error

	// SetProjectionMode switches how 4D points are flattened from the next frame on.
	//
	// Parameters:
	//   - mode: the projection mode
	//
	// Returns:
	//   - error: projector.ErrUnknownMode for invalid modes
	SetProjectionMode(mode projector.Mode) error

	// Projector returns the current projection configuration.
	Projector() projector.Projector

	// SelectBackend makes id the single active renderer, deactivating the previous one first.
	//
	// Parameters:
	//   - id: the renderer to activate
	//   - opts: activation options such as lifecycle.WithTeardownPrevious
	//
	// Returns:
	//   - error: lifecycle.ErrUnknownRenderer, lifecycle.ErrRendererFailed or a *lifecycle.BackendError
	SelectBackend(id string, opts ...lifecycle.ActivateOption) error

	// Resize broadcasts a viewport size to every renderer and updates the camera aspect.
	//
	// Parameters:
	//   - width: the width in pixels
	//   - height: the height in pixels
	//
	// Returns:
	//   - error: renderer.ErrInvalidSize for negative sizes, or the active renderer's failure
	Resize(width, height int) error

	// SetTickCallback registers the function Run calls before every frame.
	//
	// Parameters:
	//   - callback: receives the time since the previous tick in seconds
	SetTickCallback(callback func(dt float64))

	// RenderFrame runs the tick callback once and renders one frame on the active renderer.
	//
	// Returns:
	//   - error: lifecycle.ErrNoActiveRenderer or a *lifecycle.BackendError
	RenderFrame() error

	// Run renders at fps until ctx is cancelled. Frames without an active renderer are skipped.
	//
	// Parameters:
	//   - ctx: cancels the loop
	//   - fps: the target frame rate
	//
	// Returns:
	//   - error: nil on cancellation, lifecycle.ErrInvalidFrameRate or the first backend failure
	Run(ctx context.Context, fps float64) error

	// Teardown deactivates every renderer, disposes the scene and backend scopes and stops the
	// projection workers. The engine must not be used afterwards.
	//
	// Returns:
	//   - error: every teardown failure joined
	Teardown() error
}

type engine struct {
	mu *sync.Mutex

	id       uuid.UUID
	logger   *log.Logger
	registry resource.Registry
	scene    scene.Scene
	camera   camera.Camera
	batch    projector.Batch
	manager  lifecycle.Manager
	profiler *profiler.Profiler

	projector   projector.Projector
	rotorEps    float64
	width       int
	height      int
	frameIndex  uint64
	ownsBatch   bool
	ownsScene   bool
	culling     bool
	tornDown    bool
	managerOpts []lifecycle.ManagerBuilderOption

	now          func() time.Time
	lastTick     time.Time
	tickCallback func(dt float64)

	// frameMu guards the scratch buffers reused across frames.
	frameMu     *sync.Mutex
	worldPoints []hypermath.Vec4
	projected   []mgl64.Vec3
}

var _ Engine = &engine{}

// NewEngine creates an engine with its own registry, scene, camera, projection workers and
// lifecycle manager unless options supply them.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:        &sync.Mutex{},
		frameMu:   &sync.Mutex{},
		id:        uuid.New(),
		logger:    log.Default().WithPrefix("engine"),
		projector: projector.New(projector.ModePerspective),
		rotorEps:  hypermath.DefaultRotorEpsilon,
		width:     800,
		height:    600,
		culling:   true,
		now:       time.Now,
	}
	for _, opt := range options {
		opt(e)
	}

	if e.registry == nil {
		e.registry = resource.NewRegistry(resource.WithLogger(e.logger.WithPrefix("resource")))
	}
	if e.scene == nil {
		e.scene = scene.NewScene(
			scene.WithName("engine-"+e.id.String()[:8]),
			scene.WithRegistry(e.registry),
			scene.WithScope(resource.Scope("scene/"+e.id.String())),
			scene.WithRotorEpsilon(e.rotorEps),
			scene.WithLogger(e.logger.WithPrefix("scene")),
		)
		e.ownsScene = true
	}
	if e.camera == nil {
		e.camera = camera.NewCamera(camera.WithViewport(e.width, e.height))
	}
	if e.batch == nil {
		e.batch = projector.NewBatch(projector.WithLogger(e.logger.WithPrefix("projector")))
		e.ownsBatch = true
	}
	if e.manager == nil {
		opts := []lifecycle.ManagerBuilderOption{
			lifecycle.WithRegistry(e.registry),
			lifecycle.WithLogger(e.logger.WithPrefix("lifecycle")),
		}
		if e.profiler != nil {
			opts = append(opts, lifecycle.WithProfiler(e.profiler))
		}
		e.manager = lifecycle.NewManager(append(opts, e.managerOpts...)...)
	}
	if err := e.manager.Resize(e.width, e.height); err != nil {
		e.logger.Warn("initial viewport rejected", "width", e.width, "height", e.height, "err", err)
	}
	e.lastTick = e.now()
	return e
}

func (e *engine) ID() uuid.UUID { return e.id }

func (e *engine) Scene() scene.Scene { return e.scene }

func (e *engine) Camera() camera.Camera { return e.camera }

func (e *engine) Registry() resource.Registry { return e.registry }

func (e *engine) Manager() lifecycle.Manager { return e.manager }

func (e *engine) AddPolytope(name string, radius float64, opts ...scene.NodeOption) (scene.NodeID, error) {
	mesh, err := geometry.ByName(name, radius)
	if err != nil {
		return 0, err
	}
	opts = append([]scene.NodeOption{
		scene.WithLabel(mesh.Name),
		scene.WithMesh(mesh),
	}, opts...)
	return e.scene.AddNode(scene.NoNode, opts...)
}

func (e *engine) AddBackend(id string, r renderer.Renderer, opts ...lifecycle.RegisterOption) error {
	opts = append([]lifecycle.RegisterOption{lifecycle.WithScope(BackendScope(id))}, opts...)
	return e.manager.Register(id, r, opts...)
}

func (e *engine) BackendOptions(id string) []renderer.RendererBuilderOption {
	return []renderer.RendererBuilderOption{
		renderer.WithRegistry(e.registry),
		renderer.WithScope(BackendScope(id)),
		renderer.WithFrameSource(e),
		renderer.WithLogger(e.logger.WithPrefix(id)),
	}
}

// BackendScope is the registry scope of the renderer registered under id.
func BackendScope(id string) resource.Scope {
	return resource.Scope("renderer/" + id)
}

func (e *engine) SetPlaneAngle(node scene.NodeID, plane hypermath.Plane, angle float64) error {
	return e.scene.SetPlaneAngle(node, plane, angle)
}

func (e *engine) SetProjectionMode(mode projector.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %d", projector.ErrUnknownMode, uint32(mode))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.projector.Mode != mode {
		e.logger.Debug("projection mode changed", "from", e.projector.Mode, "to", mode)
	}
	e.projector.Mode = mode
	return nil
}

func (e *engine) Projector() projector.Projector {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.projector
}

func (e *engine) SelectBackend(id string, opts ...lifecycle.ActivateOption) error {
	return e.manager.Activate(id, opts...)
}

func (e *engine) Resize(width, height int) error {
	if err := renderer.CheckSize(width, height); err != nil {
		return err
	}
	e.mu.Lock()
	e.width, e.height = width, height
	e.mu.Unlock()

	e.camera.SetViewport(width, height)
	return e.manager.Resize(width, height)
}

func (e *engine) SetTickCallback(callback func(dt float64)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) RenderFrame() error {
	e.tick()
	return e.manager.RenderFrame()
}

func (e *engine) Run(ctx context.Context, fps float64) error {
	if fps <= 0 {
		return lifecycle.ErrInvalidFrameRate
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := e.RenderFrame()
			if err == nil || errors.Is(err, lifecycle.ErrNoActiveRenderer) {
				continue
			}
			return err
		}
	}
}

func (e *engine) Teardown() error {
	e.mu.Lock()
	if e.tornDown {
		e.mu.Unlock()
		return nil
	}
	e.tornDown = true
	e.mu.Unlock()

	var errs []error
	if err := e.manager.Teardown(); err != nil {
		errs = append(errs, err)
	}
	nodes := 0
	if e.ownsScene {
		nodes = e.scene.Teardown()
	}
	if e.ownsBatch {
		e.batch.Close()
	}
	if leaked := e.registry.Len(); leaked > 0 {
		e.logger.Warn("resources outlived teardown", "entries", leaked, "bytes", e.registry.Bytes())
	}
	e.logger.Debug("engine torn down", "id", e.id, "nodes", nodes)
	return errors.Join(errs...)
}

// Frame walks the scene, projects every mesh vertex through its world transform and builds
// one draw per mesh. It is called by the active renderer inside RenderFrame.
func (e *engine) Frame() (*renderer.Frame, error) {
	e.mu.Lock()
	pr := e.projector
	index := e.frameIndex
	e.frameIndex++
	e.mu.Unlock()

	e.frameMu.Lock()
	defer e.frameMu.Unlock()

	e.camera.Update()
	viewProj := e.camera.ViewProjectionMatrix()
	frame := &renderer.Frame{Index: index, Mode: pr.Mode, ViewProj: viewProj}

	worldPoints := e.worldPoints[:0]
	e.scene.Walk(func(id scene.NodeID, world hypermath.Affine4, mesh *geometry.Mesh) bool {
		if mesh == nil || len(mesh.Vertices) == 0 {
			return true
		}
		frame.Draws = append(frame.Draws, renderer.Draw{
			Label:      mesh.Name + "@" + id.String(),
			Uniform:    renderer.NewHyperUniform(world, viewProj, pr),
			Vertices:   mesh.Vertices,
			Indices:    mesh.Indices(),
			FirstPoint: len(worldPoints),
			PointCount: len(mesh.Vertices),
		})
		for _, v := range mesh.Vertices {
			worldPoints = append(worldPoints, world.Apply(v))
		}
		return true
	})
	e.worldPoints = worldPoints

	if cap(e.projected) < len(worldPoints) {
		e.projected = make([]mgl64.Vec3, len(worldPoints))
	}
	projected := e.projected[:len(worldPoints)]
	if err := e.batch.Project(pr, worldPoints, projected); err != nil {
		return nil, fmt.Errorf("project frame %d: %w", index, err)
	}

	frame.Points = make([]mgl32.Vec3, len(projected))
	for i, p := range projected {
		frame.Points[i] = mgl32.Vec3{float32(p[0]), float32(p[1]), float32(p[2])}
	}
	if e.culling {
		e.cullLocked(frame)
	}
	return frame, nil
}

// cullLocked drops draws whose projected bounding sphere lies outside the camera frustum.
// Their points stay in the stream so the remaining draws keep their offsets.
func (e *engine) cullLocked(frame *renderer.Frame) {
	frustum := camera.ExtractFrustum(frame.ViewProj)
	kept := frame.Draws[:0]
	for i, d := range frame.Draws {
		center, radius := camera.BoundingSphere(frame.DrawPoints(i))
		if frustum.IntersectsSphere(center, radius) {
			kept = append(kept, d)
			continue
		}
		e.logger.Debug("draw culled", "frame", frame.Index, "draw", d.Label)
	}
	frame.Draws = kept
}

// tick invokes the tick callback with the time since the previous tick.
func (e *engine) tick() {
	e.mu.Lock()
	now := e.now()
	dt := now.Sub(e.lastTick).Seconds()
	e.lastTick = now
	cb := e.tickCallback
	e.mu.Unlock()

	if cb != nil {
		cb(dt)
	}
}
