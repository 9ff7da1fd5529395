package raster

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy4d/engine/geometry"
	"github.com/Carmen-Shannon/oxy4d/engine/hypermath"
	"github.com/Carmen-Shannon/oxy4d/engine/projector"
	"github.com/Carmen-Shannon/oxy4d/engine/renderer"
	"github.com/Carmen-Shannon/oxy4d/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy4d/engine/resource"
	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tesseractFrame builds a one-draw frame of a unit tesseract under tr.
func tesseractFrame(tr hypermath.Transform4D, width, height int) *renderer.Frame {
	mesh := geometry.Tesseract(1)
	pr := projector.New(projector.ModePerspective)
	world := tr.Affine()

	proj := mgl32.Perspective(mgl32.DegToRad(45), float32(width)/float32(max(height, 1)), 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 6}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	viewProj := proj.Mul4(view)

	points := make([]mgl32.Vec3, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		p := pr.Project(world.Apply(v))
		points[i] = mgl32.Vec3{float32(p[0]), float32(p[1]), float32(p[2])}
	}
	return &renderer.Frame{
		Mode:     pr.Mode,
		ViewProj: viewProj,
		Points:   points,
		Draws: []renderer.Draw{{
			Label:      mesh.Name,
			Uniform:    renderer.NewHyperUniform(world, viewProj, pr),
			Vertices:   mesh.Vertices,
			Indices:    mesh.Indices(),
			PointCount: len(points),
		}},
	}
}

func newTestRenderer(t *testing.T, src renderer.FrameSource, opts ...renderer.RendererBuilderOption) (Renderer, resource.Registry) {
	t.Helper()
	logger := log.New(io.Discard)
	reg := resource.NewRegistry(resource.WithLogger(logger))
	opts = append([]renderer.RendererBuilderOption{
		renderer.WithRegistry(reg),
		renderer.WithScope("raster-test"),
		renderer.WithFrameSource(src),
		renderer.WithLogger(logger),
	}, opts...)
	return New(opts...), reg
}

func TestXWQuarterTurnUpload(t *testing.T) {
	tr := hypermath.NewTransform4D(0)
	require.NoError(t, tr.SetPlaneAngle(hypermath.PlaneXW, math.Pi/2))
	src := renderer.FrameSourceFunc(func() (*renderer.Frame, error) { return tesseractFrame(tr, 800, 600), nil })

	r, reg := newTestRenderer(t, src)
	require.NoError(t, r.Resize(800, 600))
	require.NoError(t, r.SetActive(true))
	require.NoError(t, r.RenderFrame())

	uniforms := r.Uniforms()
	require.Len(t, uniforms, 1)

	// X maps to W, W maps to -X, the YZ block is identity.
	want := mgl64.Mat4{
		0, 0, 0, 1,
		0, 1, 0, 0,
		0, 0, 1, 0,
		-1, 0, 0, 0,
	}
	got := uniforms[0].RotationMatrix()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "element %d", i)
	}
	assert.Equal(t, uint32(projector.ModePerspective), uniforms[0].ProjectionMode)

	var fbBytes uint64
	for _, e := range reg.Entries("raster-test") {
		if e.Type == resource.TypeFramebuffer {
			fbBytes = e.Bytes
		}
	}
	assert.Equal(t, uint64(800*600*4), fbBytes)

	img := r.Snapshot()
	require.NotNil(t, img)
	assert.Equal(t, 800, img.Bounds().Dx())
	lit := 0
	bg := renderer.NewOptions(renderer.BackendTypeWebGL).ClearColor
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != bg.R || img.Pix[i+1] != bg.G || img.Pix[i+2] != bg.B {
			lit++
		}
	}
	assert.Positive(t, lit, "wireframe should touch some pixels")
}

func TestActivationContract(t *testing.T) {
	r, _ := newTestRenderer(t, nil)
	assert.ErrorIs(t, r.RenderFrame(), renderer.ErrNotActive)
	assert.ErrorIs(t, r.SetActive(true), renderer.ErrNoFrameSource)
	assert.False(t, r.Active())
	assert.ErrorIs(t, r.Resize(-1, 4), renderer.ErrInvalidSize)

	src := renderer.FrameSourceFunc(func() (*renderer.Frame, error) { return &renderer.Frame{}, nil })
	r, reg := newTestRenderer(t, src)
	require.NoError(t, r.SetActive(true))
	require.NoError(t, r.SetActive(true))
	assert.True(t, r.Active())

	// zero-size viewport renders nothing but still succeeds
	require.NoError(t, r.RenderFrame())
	assert.Nil(t, r.Snapshot())

	require.NoError(t, r.SetActive(false))
	assert.ErrorIs(t, r.RenderFrame(), renderer.ErrNotActive)
	// deactivation keeps resources
	assert.NotZero(t, reg.Len())
}

func TestContractViolationFailsActivation(t *testing.T) {
	src := renderer.FrameSourceFunc(func() (*renderer.Frame, error) { return &renderer.Frame{}, nil })
	bad := strings.Replace(shader.InlineGLSL, "float epsilon;", "int epsilon;", 1)
	r, reg := newTestRenderer(t, src, renderer.WithGLSL(bad, ""))

	err := r.SetActive(true)
	assert.ErrorIs(t, err, shader.ErrContractMismatch)
	assert.False(t, r.Active())
	assert.Zero(t, reg.Len())
}

func TestResizeReallocatesFramebuffer(t *testing.T) {
	src := renderer.FrameSourceFunc(func() (*renderer.Frame, error) {
		return tesseractFrame(hypermath.NewTransform4D(0), 64, 32), nil
	})
	r, reg := newTestRenderer(t, src)
	require.NoError(t, r.Resize(64, 32))
	require.NoError(t, r.SetActive(true))
	require.NoError(t, r.RenderFrame())
	before := reg.ScopeBytes("raster-test")

	require.NoError(t, r.Resize(128, 64))
	w, h := r.Size()
	assert.Equal(t, 128, w)
	assert.Equal(t, 64, h)
	assert.Equal(t, before+uint64(128*64*4-64*32*4), reg.ScopeBytes("raster-test"))

	require.NoError(t, r.Resize(0, 0))
	assert.Nil(t, r.Snapshot())
	require.NoError(t, r.RenderFrame())
}

func TestRebuildsAfterDispose(t *testing.T) {
	src := renderer.FrameSourceFunc(func() (*renderer.Frame, error) {
		return tesseractFrame(hypermath.NewTransform4D(0), 32, 32), nil
	})
	r, reg := newTestRenderer(t, src)
	require.NoError(t, r.Resize(32, 32))
	require.NoError(t, r.SetActive(true))
	require.NoError(t, r.RenderFrame())
	n := reg.Len()
	require.Equal(t, 4, n) // program, framebuffer, uniforms, points

	require.NoError(t, r.SetActive(false))
	assert.Equal(t, n, reg.DisposeAll("raster-test"))
	assert.Zero(t, reg.ScopeBytes("raster-test"))

	require.NoError(t, r.SetActive(true))
	require.NoError(t, r.RenderFrame())
	assert.Equal(t, n, reg.Len())
	assert.NotNil(t, r.Snapshot())
	assert.Zero(t, reg.Warnings())
}

func TestFrameSourceErrors(t *testing.T) {
	boom := errors.New("boom")
	r, _ := newTestRenderer(t, renderer.FrameSourceFunc(func() (*renderer.Frame, error) { return nil, boom }))
	require.NoError(t, r.SetActive(true))
	assert.ErrorIs(t, r.RenderFrame(), boom)

	malformed := &renderer.Frame{Draws: []renderer.Draw{{Indices: []uint32{0, 5}, PointCount: 0}}}
	r, _ = newTestRenderer(t, renderer.FrameSourceFunc(func() (*renderer.Frame, error) { return malformed, nil }))
	require.NoError(t, r.SetActive(true))
	assert.Error(t, r.RenderFrame())
}

func TestBufferGrowth(t *testing.T) {
	b := &buffer{}
	assert.True(t, b.reserve(10))
	assert.Equal(t, 256, cap(b.data))
	assert.False(t, b.reserve(200))
	assert.Len(t, b.data, 200)
	assert.True(t, b.reserve(300))
	assert.Equal(t, 512, cap(b.data))
}
