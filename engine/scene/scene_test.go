package scene

import (
	"io"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy4d/engine/geometry"
	"github.com/Carmen-Shannon/oxy4d/engine/hypermath"
	"github.com/Carmen-Shannon/oxy4d/engine/resource"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingHandle struct{ released int }

func (h *countingHandle) Release() { h.released++ }

func newTestScene(t *testing.T, opts ...SceneBuilderOption) Scene {
	t.Helper()
	quiet := log.New(io.Discard)
	return NewScene(append([]SceneBuilderOption{WithLogger(quiet)}, opts...)...)
}

// chain builds root -> mid -> leaf.
func chain(t *testing.T, s Scene) (root, mid, leaf NodeID) {
	t.Helper()
	var err error
	root, err = s.AddNode(NoNode, WithLabel("root"))
	require.NoError(t, err)
	mid, err = s.AddNode(root, WithLabel("mid"))
	require.NoError(t, err)
	leaf, err = s.AddNode(mid, WithLabel("leaf"))
	require.NoError(t, err)
	return root, mid, leaf
}

func TestWorldMatrixComposesAncestors(t *testing.T) {
	s := newTestScene(t)
	root, mid, leaf := chain(t, s)

	require.NoError(t, s.UpdateLocalTransform(root, func(tr *hypermath.Transform4D) {
		tr.SetTranslation(hypermath.V4(0, 0, 0, 1))
	}))
	require.NoError(t, s.SetPlaneAngle(mid, hypermath.PlaneXW, math.Pi/2))
	require.NoError(t, s.UpdateLocalTransform(leaf, func(tr *hypermath.Transform4D) {
		tr.SetTranslation(hypermath.V4(1, 0, 0, 0))
	}))

	world, err := s.WorldMatrix(leaf)
	require.NoError(t, err)
	// leaf origin -> (1,0,0,0) -> XW 90° -> (0,0,0,1) -> +w 1 -> (0,0,0,2)
	got := world.Apply(hypermath.Vec4{})
	assert.InDelta(t, 0, got.Sub(hypermath.V4(0, 0, 0, 2)).Len(), 1e-12)
}

func TestWorldMatrixIsIdempotent(t *testing.T) {
	s := newTestScene(t)
	_, mid, leaf := chain(t, s)
	require.NoError(t, s.SetPlaneAngle(mid, hypermath.PlaneYZ, 0.123))

	first, err := s.WorldMatrix(leaf)
	require.NoError(t, err)
	dirty, err := s.Dirty(leaf)
	require.NoError(t, err)
	assert.False(t, dirty)

	second, err := s.WorldMatrix(leaf)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDirtyPropagatesDownOnly(t *testing.T) {
	s := newTestScene(t)
	root, mid, leaf := chain(t, s)
	for _, id := range []NodeID{root, mid, leaf} {
		_, err := s.WorldMatrix(id)
		require.NoError(t, err)
	}

	require.NoError(t, s.SetPlaneAngle(leaf, hypermath.PlaneXY, 1))
	for id, want := range map[NodeID]bool{root: false, mid: false, leaf: true} {
		dirty, err := s.Dirty(id)
		require.NoError(t, err)
		assert.Equal(t, want, dirty, id.String())
	}

	_, err := s.WorldMatrix(leaf)
	require.NoError(t, err)
	tr := hypermath.NewTransform4D(0)
	tr.SetScale(hypermath.Splat(2))
	require.NoError(t, s.SetLocalTransform(root, tr))
	for _, id := range []NodeID{root, mid, leaf} {
		dirty, err := s.Dirty(id)
		require.NoError(t, err)
		assert.True(t, dirty, id.String())
	}

	world, err := s.WorldMatrix(leaf)
	require.NoError(t, err)
	assert.InDelta(t, 2, world.ApplyVector(hypermath.V4(0, 0, 1, 0)).Len(), 1e-12)
}

func TestRemoveChildDetachesWithoutReleasing(t *testing.T) {
	reg := resource.NewRegistry(resource.WithLogger(log.New(io.Discard)))
	s := newTestScene(t, WithRegistry(reg), WithScope("test"))
	root, mid, leaf := chain(t, s)

	h := &countingHandle{}
	res, err := reg.Register(s.Scope(), resource.TypeBuffer, h, 128, "leaf vertices")
	require.NoError(t, err)
	require.NoError(t, s.Attach(leaf, res))

	require.NoError(t, s.RemoveChild(root, mid))
	parent, err := s.Parent(mid)
	require.NoError(t, err)
	assert.Equal(t, NoNode, parent)
	assert.ElementsMatch(t, []NodeID{root, mid}, s.Roots())
	children, err := s.Children(root)
	require.NoError(t, err)
	assert.Empty(t, children)
	assert.Zero(t, h.released)
	assert.Equal(t, 3, s.Len())

	assert.ErrorIs(t, s.RemoveChild(root, leaf), ErrNotChild)
}

func TestAddChildReparentsAndRejectsCycles(t *testing.T) {
	s := newTestScene(t)
	root, mid, leaf := chain(t, s)
	other, err := s.AddNode(NoNode)
	require.NoError(t, err)

	assert.ErrorIs(t, s.AddChild(leaf, root), ErrCycle)
	assert.ErrorIs(t, s.AddChild(mid, mid), ErrCycle)

	require.NoError(t, s.AddChild(other, mid))
	parent, err := s.Parent(mid)
	require.NoError(t, err)
	assert.Equal(t, other, parent)
	children, err := s.Children(root)
	require.NoError(t, err)
	assert.Empty(t, children)
	dirty, err := s.Dirty(leaf)
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestDestroyReleasesSubtreeAndRejectsStaleIDs(t *testing.T) {
	reg := resource.NewRegistry(resource.WithLogger(log.New(io.Discard)))
	s := newTestScene(t, WithRegistry(reg))
	root, mid, leaf := chain(t, s)

	h := &countingHandle{}
	res, err := reg.Register(s.Scope(), resource.TypeBuffer, h, 64, "")
	require.NoError(t, err)
	require.NoError(t, s.Attach(leaf, res))

	n, err := s.Destroy(mid)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, h.released)
	assert.Zero(t, reg.ScopeBytes(s.Scope()))
	assert.Equal(t, 1, s.Len())

	_, err = s.WorldMatrix(leaf)
	assert.ErrorIs(t, err, ErrUnknownNode)

	// The freed slot is reused with a new generation.
	fresh, err := s.AddNode(root)
	require.NoError(t, err)
	assert.NotEqual(t, mid, fresh)
	assert.Equal(t, mid.index(), fresh.index())
	_, err = s.Dirty(leaf)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestWalkVisitsDepthFirst(t *testing.T) {
	s := newTestScene(t)
	mesh := geometry.Tesseract(1)
	root, mid, leaf := chain(t, s)
	require.NoError(t, s.SetMesh(leaf, mesh))
	sibling, err := s.AddNode(root)
	require.NoError(t, err)

	var order []NodeID
	var meshes int
	s.Walk(func(id NodeID, world hypermath.Affine4, m *geometry.Mesh) bool {
		order = append(order, id)
		if m != nil {
			meshes++
		}
		return true
	})
	assert.Equal(t, []NodeID{root, mid, leaf, sibling}, order)
	assert.Equal(t, 1, meshes)

	visited := 0
	s.Walk(func(NodeID, hypermath.Affine4, *geometry.Mesh) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}

func TestTeardownDisposesScope(t *testing.T) {
	reg := resource.NewRegistry(resource.WithLogger(log.New(io.Discard)))
	s := newTestScene(t, WithRegistry(reg), WithName("demo"))
	root, _, _ := chain(t, s)
	for i := 0; i < 3; i++ {
		_, err := reg.Register(s.Scope(), resource.TypeBuffer, &countingHandle{}, 10, "")
		require.NoError(t, err)
	}
	_, err := reg.Register("survivor", resource.TypeBuffer, &countingHandle{}, 5, "")
	require.NoError(t, err)

	assert.Equal(t, 3, s.Teardown())
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Roots())
	assert.Equal(t, uint64(5), reg.Bytes())
	assert.Zero(t, s.Teardown())
	assert.Equal(t, "demo", s.Name())

	_, err = s.WorldMatrix(root)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestUnknownNodeErrors(t *testing.T) {
	s := newTestScene(t)
	_, err := s.AddNode(NodeID(42))
	assert.ErrorIs(t, err, ErrUnknownNode)
	_, err = s.WorldMatrix(NoNode)
	assert.ErrorIs(t, err, ErrUnknownNode)
	root, err := s.AddNode(NoNode)
	require.NoError(t, err)
	assert.ErrorIs(t, s.SetPlaneAngle(root, hypermath.Plane(12), 1), hypermath.ErrInvalidPlane)
}
