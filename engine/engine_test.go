package engine

import (
	"context"
	"io"
	"math"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy4d/engine/hypermath"
	"github.com/Carmen-Shannon/oxy4d/engine/lifecycle"
	"github.com/Carmen-Shannon/oxy4d/engine/projector"
	"github.com/Carmen-Shannon/oxy4d/engine/renderer"
	"github.com/Carmen-Shannon/oxy4d/engine/renderer/raster"
	"github.com/Carmen-Shannon/oxy4d/engine/scene"
	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts ...EngineBuilderOption) Engine {
	t.Helper()
	opts = append([]EngineBuilderOption{WithLogger(log.New(io.Discard))}, opts...)
	e := NewEngine(opts...)
	t.Cleanup(func() { _ = e.Teardown() })
	return e
}

func addRaster(t *testing.T, e Engine, id string) raster.Renderer {
	t.Helper()
	r := raster.New(e.BackendOptions(id)...)
	require.NoError(t, e.AddBackend(id, r))
	return r
}

func TestXWQuarterTurnThroughEngine(t *testing.T) {
	e := newTestEngine(t, WithViewport(800, 600))
	node, err := e.AddPolytope("tesseract", 1)
	require.NoError(t, err)

	r := addRaster(t, e, "webgl-backend")
	require.NoError(t, e.SelectBackend("webgl-backend"))
	require.NoError(t, e.SetPlaneAngle(node, hypermath.PlaneXW, math.Pi/2))
	require.NoError(t, e.RenderFrame())

	w, h := r.Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)

	uniforms := r.Uniforms()
	require.Len(t, uniforms, 1)
	want := mgl64.Mat4{
		0, 0, 0, 1,
		0, 1, 0, 0,
		0, 0, 1, 0,
		-1, 0, 0, 0,
	}
	assert.True(t, want.ApproxEqualThreshold(uniforms[0].RotationMatrix(), 1e-5), "got %v", uniforms[0].RotationMatrix())
	assert.Equal(t, uint32(projector.ModePerspective), uniforms[0].ProjectionMode)
}

func TestFrameProjectsWorldPoints(t *testing.T) {
	e := newTestEngine(t)
	parent, err := e.AddPolytope("tesseract", 1)
	require.NoError(t, err)
	child, err := e.Scene().AddNode(parent, scene.WithLabel("cell"))
	require.NoError(t, err)
	require.NoError(t, e.Scene().UpdateLocalTransform(child, func(tr *hypermath.Transform4D) {
		tr.SetTranslation(hypermath.Vec4{W: 1})
	}))
	_, err = e.AddPolytope("5-cell", 0.5)
	require.NoError(t, err)

	frame, err := e.Frame()
	require.NoError(t, err)
	require.NoError(t, frame.Validate())
	require.Len(t, frame.Draws, 2, "nodes without a mesh produce no draw")
	assert.Equal(t, 16, frame.Draws[0].PointCount)
	assert.Equal(t, 16, frame.Draws[1].FirstPoint)
	assert.Equal(t, 5, frame.Draws[1].PointCount)
	assert.Len(t, frame.Points, 21)

	pr := e.Projector()
	world, err := e.Scene().WorldMatrix(parent)
	require.NoError(t, err)
	mesh, err := e.Scene().Mesh(parent)
	require.NoError(t, err)
	for i, v := range mesh.Vertices {
		p := pr.Project(world.Apply(v))
		got := frame.DrawPoints(0)[i]
		for k := range 3 {
			assert.InDelta(t, p[k], float64(got[k]), 1e-5)
		}
	}

	next, err := e.Frame()
	require.NoError(t, err)
	assert.Equal(t, frame.Index+1, next.Index)
}

func TestSetProjectionMode(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddPolytope("16-cell", 1)
	require.NoError(t, err)
	r := addRaster(t, e, "webgl-backend")
	require.NoError(t, e.SelectBackend("webgl-backend"))

	require.NoError(t, e.SetProjectionMode(projector.ModeStereographic))
	require.NoError(t, e.RenderFrame())
	assert.Equal(t, uint32(projector.ModeStereographic), r.Uniforms()[0].ProjectionMode)

	assert.ErrorIs(t, e.SetProjectionMode(projector.Mode(9)), projector.ErrUnknownMode)
	assert.Equal(t, projector.ModeStereographic, e.Projector().Mode)
}

func TestSelectBackendSwap(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddPolytope("tesseract", 1)
	require.NoError(t, err)
	a := addRaster(t, e, "webgl-a")
	b := addRaster(t, e, "webgl-b")

	require.NoError(t, e.SelectBackend("webgl-a"))
	require.NoError(t, e.RenderFrame())
	require.NotEmpty(t, e.Registry().Entries(BackendScope("webgl-a")))

	require.NoError(t, e.SelectBackend("webgl-b", lifecycle.WithTeardownPrevious()))
	assert.False(t, a.Active())
	assert.True(t, b.Active())
	assert.Empty(t, e.Registry().Entries(BackendScope("webgl-a")))

	active, ok := e.Manager().Active()
	require.True(t, ok)
	assert.Equal(t, "webgl-b", active)

	assert.ErrorIs(t, e.SelectBackend("vulkan"), lifecycle.ErrUnknownRenderer)
	assert.ErrorIs(t, e.AddBackend("webgl-a", raster.New()), lifecycle.ErrDuplicateRenderer)
}

func TestResize(t *testing.T) {
	e := newTestEngine(t)
	r := addRaster(t, e, "webgl-backend")
	_, err := e.AddPolytope("tesseract", 1)
	require.NoError(t, err)
	require.NoError(t, e.SelectBackend("webgl-backend"))

	require.NoError(t, e.Resize(1024, 512))
	w, h := r.Size()
	assert.Equal(t, 1024, w)
	assert.Equal(t, 512, h)
	assert.InDelta(t, 2, e.Camera().Aspect(), 1e-6)

	require.NoError(t, e.Resize(0, 0), "a minimized viewport is allowed")
	assert.InDelta(t, 2, e.Camera().Aspect(), 1e-6)
	require.NoError(t, e.RenderFrame())

	assert.ErrorIs(t, e.Resize(-1, 10), renderer.ErrInvalidSize)
}

func TestTickCallback(t *testing.T) {
	now := time.Unix(100, 0)
	clock := func() time.Time { return now }

	var deltas []float64
	e := newTestEngine(t, WithClock(clock), WithTickCallback(func(dt float64) { deltas = append(deltas, dt) }))
	node, err := e.AddPolytope("tesseract", 1)
	require.NoError(t, err)
	addRaster(t, e, "webgl-backend")

	assert.ErrorIs(t, e.RenderFrame(), lifecycle.ErrNoActiveRenderer)
	require.NoError(t, e.SelectBackend("webgl-backend"))

	e.SetTickCallback(func(dt float64) {
		deltas = append(deltas, dt)
		require.NoError(t, e.Scene().UpdateLocalTransform(node, func(tr *hypermath.Transform4D) {
			tr.Rotate(hypermath.PlaneXW, dt)
		}))
	})
	now = now.Add(250 * time.Millisecond)
	require.NoError(t, e.RenderFrame())

	require.Len(t, deltas, 2)
	assert.Equal(t, 0.0, deltas[0])
	assert.InDelta(t, 0.25, deltas[1], 1e-9)
	local, err := e.Scene().LocalTransform(node)
	require.NoError(t, err)
	// Rotate folds the increment into the base rotor: X tilts toward +W by 0.25 rad.
	m := local.RotationMatrix()
	assert.InDelta(t, math.Cos(0.25), m.At(0, 0), 1e-9)
	assert.InDelta(t, math.Sin(0.25), m.At(3, 0), 1e-9)
}

func TestRun(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddPolytope("tesseract", 1)
	require.NoError(t, err)
	addRaster(t, e, "webgl-backend")
	require.NoError(t, e.SelectBackend("webgl-backend"))

	ticks := make(chan struct{}, 64)
	e.SetTickCallback(func(float64) {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, 200) }()

	for range 3 {
		select {
		case <-ticks:
		case <-time.After(2 * time.Second):
			t.Fatal("no frame rendered")
		}
	}
	cancel()
	assert.NoError(t, <-done)

	assert.ErrorIs(t, e.Run(context.Background(), 0), lifecycle.ErrInvalidFrameRate)
}

func TestTeardownReleasesEverything(t *testing.T) {
	e := NewEngine(WithLogger(log.New(io.Discard)))
	_, err := e.AddPolytope("24-cell", 1)
	require.NoError(t, err)
	addRaster(t, e, "webgl-backend")
	require.NoError(t, e.SelectBackend("webgl-backend"))
	require.NoError(t, e.RenderFrame())
	require.NotZero(t, e.Registry().Len())

	require.NoError(t, e.Teardown())
	assert.Zero(t, e.Registry().Len())
	assert.Zero(t, e.Registry().Bytes())
	assert.Empty(t, e.Manager().Renderers())
	assert.Zero(t, e.Registry().Warnings())

	require.NoError(t, e.Teardown(), "second teardown is a no-op")
}

func TestFrameCullsOffscreenDraws(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddPolytope("tesseract", 1)
	require.NoError(t, err)
	far, err := e.AddPolytope("5-cell", 1)
	require.NoError(t, err)
	require.NoError(t, e.Scene().UpdateLocalTransform(far, func(tr *hypermath.Transform4D) {
		tr.SetTranslation(hypermath.Vec4{X: 500})
	}))

	frame, err := e.Frame()
	require.NoError(t, err)
	require.Len(t, frame.Draws, 1)
	assert.Contains(t, frame.Draws[0].Label, "tesseract")
	assert.Len(t, frame.Points, 21, "culled points stay in the stream")
	require.NoError(t, frame.Validate())

	unculled := newTestEngine(t, WithCulling(false), WithScene(e.Scene()))
	frame, err = unculled.Frame()
	require.NoError(t, err)
	assert.Len(t, frame.Draws, 2)
}
