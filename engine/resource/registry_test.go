package resource

import (
	"io"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	name     string
	released int
}

func (f *fakeHandle) Release() { f.released++ }

type panicHandle struct{}

func (panicHandle) Release() { panic("device lost") }

func newTestRegistry() Registry {
	return NewRegistry(WithLogger(log.New(io.Discard)))
}

func TestRegisterAndRelease(t *testing.T) {
	reg := newTestRegistry()
	h := &fakeHandle{name: "vb"}

	id, err := reg.Register("scene", TypeBuffer, h, 64, "vertices")
	require.NoError(t, err)
	assert.Equal(t, uint64(64), reg.Bytes())
	assert.Equal(t, 1, reg.Len())

	e, ok := reg.Lookup("scene", id)
	require.True(t, ok)
	assert.Equal(t, "vertices", e.Label)

	assert.True(t, reg.Release("scene", id))
	assert.Equal(t, 1, h.released)
	assert.Zero(t, reg.Bytes())
	assert.Zero(t, reg.Len())
	assert.Empty(t, reg.Scopes())
}

func TestDuplicateRegistrationReturnsExistingID(t *testing.T) {
	reg := newTestRegistry()
	h := &fakeHandle{}
	id, err := reg.Register("s", TypeTexture, h, 10, "a")
	require.NoError(t, err)

	dup, err := reg.Register("s", TypeTexture, h, 10, "a")
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, id, dup)
	assert.Equal(t, uint64(10), reg.Bytes())
	assert.Equal(t, uint64(1), reg.Warnings())

	// A handle belongs to one scope only.
	dup, err = reg.Register("other", TypeTexture, h, 10, "a")
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, id, dup)
	assert.Equal(t, 1, reg.Len())
	assert.Empty(t, reg.Entries("other"))
}

func TestHandleSharedAcrossScopesReleasedOnce(t *testing.T) {
	reg := newTestRegistry()
	h := &fakeHandle{}
	_, err := reg.Register("renderer/a", TypeBuffer, h, 16, "shared")
	require.NoError(t, err)
	_, err = reg.Register("scene/b", TypeBuffer, h, 16, "shared")
	require.ErrorIs(t, err, ErrDuplicate)

	assert.Equal(t, 1, reg.DisposeAll("renderer/a"))
	assert.Zero(t, reg.DisposeAll("scene/b"))
	assert.Equal(t, 1, h.released)

	// Once released the handle may be registered again.
	_, err = reg.Register("scene/b", TypeBuffer, h, 16, "shared")
	require.NoError(t, err)
	assert.Equal(t, 1, reg.DisposeAll("scene/b"))
	assert.Equal(t, 2, h.released)
}

type sliceHandle struct {
	payload  any
	released *int
}

func (s sliceHandle) Release() { *s.released++ }

func TestRegisterUnhashableHandle(t *testing.T) {
	reg := newTestRegistry()
	var released int
	h := sliceHandle{payload: []int{1, 2}, released: &released}

	var id ID
	require.NotPanics(t, func() {
		var err error
		id, err = reg.Register("s", TypeBuffer, h, 4, "unhashable")
		require.NoError(t, err)
	})
	assert.True(t, reg.Release("s", id))
	assert.Equal(t, 1, released)
}

func TestReleaseMisuseIsNoop(t *testing.T) {
	reg := newTestRegistry()
	h := &fakeHandle{}
	id, err := reg.Register("s", TypeBuffer, h, 8, "")
	require.NoError(t, err)

	assert.False(t, reg.Release("s", 999), "unknown id")
	assert.False(t, reg.Release("elsewhere", id), "foreign scope")

	require.NoError(t, reg.Retain("s", id))
	assert.False(t, reg.Release("s", id), "retained")
	assert.Zero(t, h.released)

	require.NoError(t, reg.Unretain("s", id))
	assert.True(t, reg.Release("s", id))
	assert.False(t, reg.Release("s", id), "already released")
	assert.Equal(t, 1, h.released)
	assert.Equal(t, uint64(4), reg.Warnings())

	assert.ErrorIs(t, reg.Retain("s", id), ErrUnknownResource)
}

func TestRegisterNilHandle(t *testing.T) {
	reg := newTestRegistry()
	var h *fakeHandle
	_, err := reg.Register("s", TypeBuffer, h, 1, "")
	assert.ErrorIs(t, err, ErrNilHandle)
	_, err = reg.Register("s", TypeBuffer, nil, 1, "")
	assert.ErrorIs(t, err, ErrNilHandle)
	assert.Zero(t, reg.Len())
}

func TestDisposeAllReleasesNewestFirst(t *testing.T) {
	reg := newTestRegistry()
	var order []string
	for _, name := range []string{"device", "buffer", "bind_group"} {
		n := name
		_, err := reg.Register("gpu", TypeBuffer, Func(func() { order = append(order, n) }), 4, n)
		require.NoError(t, err)
	}
	keep := &fakeHandle{}
	_, err := reg.Register("keep", TypeBuffer, keep, 100, "")
	require.NoError(t, err)

	assert.Equal(t, 3, reg.DisposeAll("gpu"))
	assert.Equal(t, []string{"bind_group", "buffer", "device"}, order)
	assert.Zero(t, reg.ScopeBytes("gpu"))
	assert.Empty(t, reg.Entries("gpu"))
	assert.Equal(t, uint64(100), reg.Bytes())

	assert.Zero(t, reg.DisposeAll("gpu"))
	assert.Zero(t, reg.DisposeAll("never"))
	assert.Zero(t, keep.released)
}

func TestDisposeAllForcesRetainedAndSurvivesPanics(t *testing.T) {
	reg := newTestRegistry()
	id, err := reg.Register("s", TypeSurface, panicHandle{}, 0, "surface")
	require.NoError(t, err)
	h := &fakeHandle{}
	id2, err := reg.Register("s", TypeBuffer, h, 12, "")
	require.NoError(t, err)
	require.NoError(t, reg.Retain("s", id2))

	assert.Equal(t, 2, reg.DisposeAll("s"))
	assert.Equal(t, 1, h.released)
	_, ok := reg.Lookup("s", id)
	assert.False(t, ok)
	assert.Zero(t, reg.Bytes())
}

func TestEntriesOrderedByID(t *testing.T) {
	reg := newTestRegistry()
	a, b := &fakeHandle{name: "a"}, &fakeHandle{name: "b"}
	idA, _ := reg.Register("s", TypeProgram, a, 1, "prog")
	idB, _ := reg.Register("s", TypeBuffer, b, 2, "ubo")
	require.NoError(t, reg.Resize("s", idB, 20))

	want := []Entry{
		{ID: idA, Type: TypeProgram, Scope: "s", Label: "prog", Bytes: 1},
		{ID: idB, Type: TypeBuffer, Scope: "s", Label: "ubo", Bytes: 20},
	}
	if diff := cmp.Diff(want, reg.Entries("s"), cmpopts.IgnoreFields(Entry{}, "Handle")); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, uint64(21), reg.ScopeBytes("s"))
	assert.ErrorIs(t, reg.Resize("s", 77, 1), ErrUnknownResource)
}

func TestByteAccountingMatchesEntries(t *testing.T) {
	reg := newTestRegistry()
	rng := rand.New(rand.NewSource(3))
	scopes := []Scope{"a", "b", "c"}
	live := map[Scope][]ID{}

	for i := 0; i < 500; i++ {
		s := scopes[rng.Intn(len(scopes))]
		if rng.Intn(3) > 0 || len(live[s]) == 0 {
			id, err := reg.Register(s, TypeBuffer, &fakeHandle{}, uint64(rng.Intn(1024)), "")
			require.NoError(t, err)
			live[s] = append(live[s], id)
		} else {
			idx := rng.Intn(len(live[s]))
			require.True(t, reg.Release(s, live[s][idx]))
			live[s] = append(live[s][:idx], live[s][idx+1:]...)
		}

		var sum uint64
		for _, sc := range scopes {
			var scopeSum uint64
			for _, e := range reg.Entries(sc) {
				scopeSum += e.Bytes
			}
			require.Equal(t, scopeSum, reg.ScopeBytes(sc))
			sum += scopeSum
		}
		require.Equal(t, sum, reg.Bytes())
	}

	for _, s := range scopes {
		reg.DisposeAll(s)
		assert.Zero(t, reg.ScopeBytes(s))
		assert.Empty(t, reg.Entries(s))
	}
	assert.Zero(t, reg.Bytes())
	assert.Zero(t, reg.Len())
}
