// Package scene holds the 4D scene graph: a tree of nodes, each with a local Transform4D and
// an optional mesh. Nodes live in an index arena; parents own their children and a child
// refers back to its parent by index only. World transforms are cached per node and
// recomputed lazily when a node or one of its ancestors changed.
package scene

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy4d/engine/geometry"
	"github.com/Carmen-Shannon/oxy4d/engine/hypermath"
	"github.com/Carmen-Shannon/oxy4d/engine/resource"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NodeID identifies a node. The low 32 bits are the arena slot, the high 32 bits the slot's
// generation, so ids of destroyed nodes are rejected even after their slot is reused.
// The zero NodeID is never assigned and stands for "no node".
type NodeID uint64

// NoNode is the zero NodeID, used as the parent of root nodes.
const NoNode NodeID = 0

func newNodeID(index, gen uint32) NodeID {
	return NodeID(uint64(gen)<<32 | uint64(index))
}

func (id NodeID) index() uint32 { return uint32(id) }

func (id NodeID) generation() uint32 { return uint32(id >> 32) }

func (id NodeID) String() string {
	if id == NoNode {
		return "node(none)"
	}
	return fmt.Sprintf("node(%d@%d)", id.index(), id.generation())
}

// Scene is a scene graph owning a registry scope. Every method is safe for concurrent use.
type Scene interface {
	// ID returns the scene's unique identifier.
	ID() uuid.UUID

	// Name returns the scene's display name.
	Name() string

	// Scope returns the registry scope released by Teardown.
	Scope() resource.Scope

	// AddNode creates a node under parent, or a root node when parent is NoNode.
	//
	// Parameters:
	//   - parent: the parent node or NoNode
	//   - opts: optional NodeOption functions
	//
	// Returns:
	//   - NodeID: the new node
	//   - error: ErrUnknownNode if parent is stale
	AddNode(parent NodeID, opts ...NodeOption) (NodeID, error)

	// AddChild attaches child under parent, detaching it from its current parent first.
	// The child's subtree is marked dirty.
	//
	// Parameters:
	//   - parent: the new parent
	//   - child: the node to attach
	//
	// Returns:
	//   - error: ErrUnknownNode for stale ids, ErrCycle if parent lies inside child's subtree
	AddChild(parent, child NodeID) error

	// RemoveChild detaches child from parent. The child becomes a root; its subtree and any
	// resources it references stay alive.
	//
	// Parameters:
	//   - parent: the current parent
	//   - child: the node to detach
	//
	// Returns:
	//   - error: ErrUnknownNode for stale ids, ErrNotChild if child is not under parent
	RemoveChild(parent, child NodeID) error

	// SetLocalTransform replaces a node's local transform and marks it and its descendants dirty.
	//
	// Parameters:
	//   - id: the node
	//   - t: the new local transform
	//
	// Returns:
	//   - error: ErrUnknownNode if id is stale
	SetLocalTransform(id NodeID, t hypermath.Transform4D) error

	// UpdateLocalTransform mutates a node's local transform in place under the scene lock and
	// marks it and its descendants dirty.
	//
	// Parameters:
	//   - id: the node
	//   - fn: the mutation
	//
	// Returns:
	//   - error: ErrUnknownNode if id is stale
	UpdateLocalTransform(id NodeID, fn func(t *hypermath.Transform4D)) error

	// SetPlaneAngle sets one plane angle of a node's local transform.
	//
	// Parameters:
	//   - id: the node
	//   - p: the rotation plane
	//   - angle: the absolute angle in radians
	//
	// Returns:
	//   - error: ErrUnknownNode or hypermath.ErrInvalidPlane
	SetPlaneAngle(id NodeID, p hypermath.Plane, angle float64) error

	// LocalTransform returns a copy of a node's local transform.
	LocalTransform(id NodeID) (hypermath.Transform4D, error)

	// WorldMatrix returns the node's world transform, recomputing it first if the node is dirty.
	// Repeated calls without an intervening mutation return identical values.
	//
	// Parameters:
	//   - id: the node
	//
	// Returns:
	//   - hypermath.Affine4: parent world ∘ local, or local for roots
	//   - error: ErrUnknownNode if id is stale
	WorldMatrix(id NodeID) (hypermath.Affine4, error)

	// Dirty reports whether the node's cached world transform is stale.
	Dirty(id NodeID) (bool, error)

	// Parent returns the node's parent, NoNode for roots.
	Parent(id NodeID) (NodeID, error)

	// Children returns the node's children in attachment order.
	Children(id NodeID) ([]NodeID, error)

	// Roots returns every root node in creation order.
	Roots() []NodeID

	// Mesh returns the node's mesh, nil when it has none.
	Mesh(id NodeID) (*geometry.Mesh, error)

	// SetMesh replaces the node's mesh.
	SetMesh(id NodeID, m *geometry.Mesh) error

	// Label returns the node's label.
	Label(id NodeID) (string, error)

	// Attach records a registry entry of the scene scope as owned by the node. Destroy
	// releases attached resources; RemoveChild does not.
	//
	// Parameters:
	//   - id: the node
	//   - res: the registry id, registered under Scope()
	//
	// Returns:
	//   - error: ErrUnknownNode if id is stale
	Attach(id NodeID, res resource.ID) error

	// Destroy removes a node and its whole subtree, releasing every attached resource and
	// recycling the arena slots.
	//
	// Parameters:
	//   - id: the subtree root
	//
	// Returns:
	//   - int: the number of nodes destroyed
	//   - error: ErrUnknownNode if id is stale
	Destroy(id NodeID) (int, error)

	// Walk visits every node depth-first from the roots, children in order, passing its fresh
	// world transform. Returning false from fn stops the walk.
	//
	// Parameters:
	//   - fn: the visitor
	Walk(fn func(id NodeID, world hypermath.Affine4, mesh *geometry.Mesh) bool)

	// Len returns the number of live nodes.
	Len() int

	// Teardown destroys every node and disposes the scene's registry scope.
	//
	// Returns:
	//   - int: the number of resources released
	Teardown() int
}

type node struct {
	gen      uint32
	alive    bool
	label    string
	parent   NodeID
	children []NodeID
	local    hypermath.Transform4D
	world    hypermath.Affine4
	dirty    bool
	mesh     *geometry.Mesh
	owned    []resource.ID
}

type scene struct {
	mu       *sync.Mutex
	id       uuid.UUID
	name     string
	scope    resource.Scope
	registry resource.Registry
	logger   *log.Logger
	epsilon  float64

	nodes []node
	free  []uint32
	roots []NodeID
	count int
}

var _ Scene = &scene{}

// NewScene creates an empty scene.
//
// Parameters:
//   - opts: optional SceneBuilderOption functions
//
// Returns:
//   - Scene: the scene
func NewScene(opts ...SceneBuilderOption) Scene {
	s := &scene{
		mu:      &sync.Mutex{},
		id:      uuid.New(),
		logger:  log.Default().WithPrefix("scene"),
		epsilon: hypermath.DefaultRotorEpsilon,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.name == "" {
		s.name = s.id.String()
	}
	if s.scope == "" {
		s.scope = resource.Scope("scene/" + s.id.String())
	}
	if s.registry == nil {
		s.registry = resource.NewRegistry(resource.WithLogger(s.logger))
	}
	return s
}

func (s *scene) ID() uuid.UUID { return s.id }

func (s *scene) Name() string { return s.name }

func (s *scene) Scope() resource.Scope { return s.scope }

func (s *scene) AddNode(parent NodeID, opts ...NodeOption) (NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if parent != NoNode && s.lookup(parent) == nil {
		return NoNode, fmt.Errorf("add node under %s: %w", parent, ErrUnknownNode)
	}

	n := node{
		alive: true,
		local: hypermath.NewTransform4D(s.epsilon),
		dirty: true,
	}
	for _, opt := range opts {
		opt(&n)
	}

	var idx uint32
	if k := len(s.free); k > 0 {
		idx = s.free[k-1]
		s.free = s.free[:k-1]
		n.gen = s.nodes[idx].gen + 1
		s.nodes[idx] = n
	} else {
		idx = uint32(len(s.nodes))
		n.gen = 1
		s.nodes = append(s.nodes, n)
	}
	id := newNodeID(idx, n.gen)
	s.count++

	if parent == NoNode {
		s.roots = append(s.roots, id)
	} else {
		s.attachLocked(parent, id)
	}
	return id, nil
}

func (s *scene) AddChild(parent, child NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lookup(parent) == nil || s.lookup(child) == nil {
		return fmt.Errorf("add child %s to %s: %w", child, parent, ErrUnknownNode)
	}
	for p := parent; p != NoNode; p = s.lookup(p).parent {
		if p == child {
			return fmt.Errorf("add child %s to %s: %w", child, parent, ErrCycle)
		}
	}

	s.detachLocked(child)
	s.attachLocked(parent, child)
	s.markDirtyLocked(child)
	return nil
}

func (s *scene) RemoveChild(parent, child NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.lookup(child)
	if s.lookup(parent) == nil || c == nil {
		return fmt.Errorf("remove child %s from %s: %w", child, parent, ErrUnknownNode)
	}
	if c.parent != parent {
		return fmt.Errorf("remove child %s from %s: %w", child, parent, ErrNotChild)
	}
	s.detachLocked(child)
	s.roots = append(s.roots, child)
	s.markDirtyLocked(child)
	return nil
}

func (s *scene) SetLocalTransform(id NodeID, t hypermath.Transform4D) error {
	return s.UpdateLocalTransform(id, func(local *hypermath.Transform4D) {
		*local = t
	})
}

func (s *scene) UpdateLocalTransform(id NodeID, fn func(t *hypermath.Transform4D)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.lookup(id)
	if n == nil {
		return fmt.Errorf("update transform of %s: %w", id, ErrUnknownNode)
	}
	fn(&n.local)
	s.markDirtyLocked(id)
	return nil
}

func (s *scene) SetPlaneAngle(id NodeID, p hypermath.Plane, angle float64) error {
	var err error
	if uerr := s.UpdateLocalTransform(id, func(t *hypermath.Transform4D) {
		err = t.SetPlaneAngle(p, angle)
	}); uerr != nil {
		return uerr
	}
	return err
}

func (s *scene) LocalTransform(id NodeID) (hypermath.Transform4D, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.lookup(id)
	if n == nil {
		return hypermath.Transform4D{}, fmt.Errorf("local transform of %s: %w", id, ErrUnknownNode)
	}
	return n.local, nil
}

func (s *scene) WorldMatrix(id NodeID) (hypermath.Affine4, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookup(id) == nil {
		return hypermath.Affine4{}, fmt.Errorf("world matrix of %s: %w", id, ErrUnknownNode)
	}
	return s.worldLocked(id), nil
}

func (s *scene) Dirty(id NodeID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.lookup(id)
	if n == nil {
		return false, fmt.Errorf("dirty flag of %s: %w", id, ErrUnknownNode)
	}
	return n.dirty, nil
}

func (s *scene) Parent(id NodeID) (NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.lookup(id)
	if n == nil {
		return NoNode, fmt.Errorf("parent of %s: %w", id, ErrUnknownNode)
	}
	return n.parent, nil
}

func (s *scene) Children(id NodeID) ([]NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.lookup(id)
	if n == nil {
		return nil, fmt.Errorf("children of %s: %w", id, ErrUnknownNode)
	}
	return append([]NodeID(nil), n.children...), nil
}

func (s *scene) Roots() []NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]NodeID(nil), s.roots...)
}

func (s *scene) Mesh(id NodeID) (*geometry.Mesh, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.lookup(id)
	if n == nil {
		return nil, fmt.Errorf("mesh of %s: %w", id, ErrUnknownNode)
	}
	return n.mesh, nil
}

func (s *scene) SetMesh(id NodeID, m *geometry.Mesh) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.lookup(id)
	if n == nil {
		return fmt.Errorf("set mesh of %s: %w", id, ErrUnknownNode)
	}
	n.mesh = m
	return nil
}

func (s *scene) Label(id NodeID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.lookup(id)
	if n == nil {
		return "", fmt.Errorf("label of %s: %w", id, ErrUnknownNode)
	}
	return n.label, nil
}

func (s *scene) Attach(id NodeID, res resource.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.lookup(id)
	if n == nil {
		return fmt.Errorf("attach resource %d to %s: %w", res, id, ErrUnknownNode)
	}
	n.owned = append(n.owned, res)
	return nil
}

func (s *scene) Destroy(id NodeID) (int, error) {
	s.mu.Lock()
	if s.lookup(id) == nil {
		s.mu.Unlock()
		return 0, fmt.Errorf("destroy %s: %w", id, ErrUnknownNode)
	}
	s.detachLocked(id)
	var owned []resource.ID
	destroyed := s.freeSubtreeLocked(id, &owned)
	s.mu.Unlock()

	for _, res := range owned {
		s.registry.Release(s.scope, res)
	}
	s.logger.Debug("destroyed subtree", "scene", s.name, "root", id, "nodes", destroyed, "resources", len(owned))
	return destroyed, nil
}

func (s *scene) Walk(fn func(id NodeID, world hypermath.Affine4, mesh *geometry.Mesh) bool) {
	type visit struct {
		id    NodeID
		world hypermath.Affine4
		mesh  *geometry.Mesh
	}

	s.mu.Lock()
	var order []visit
	var walk func(id NodeID)
	walk = func(id NodeID) {
		n := s.lookup(id)
		order = append(order, visit{id: id, world: s.worldLocked(id), mesh: n.mesh})
		for _, c := range n.children {
			walk(c)
		}
	}
	for _, r := range s.roots {
		walk(r)
	}
	s.mu.Unlock()

	for _, v := range order {
		if !fn(v.id, v.world, v.mesh) {
			return
		}
	}
}

func (s *scene) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *scene) Teardown() int {
	s.mu.Lock()
	for i := range s.nodes {
		if s.nodes[i].alive {
			s.nodes[i] = node{gen: s.nodes[i].gen}
			s.free = append(s.free, uint32(i))
		}
	}
	s.roots = nil
	s.count = 0
	s.mu.Unlock()

	released := s.registry.DisposeAll(s.scope)
	s.logger.Debug("scene torn down", "scene", s.name, "scope", s.scope, "released", released)
	return released
}

// lookup returns the live node for id or nil when id is NoNode, out of range or stale.
func (s *scene) lookup(id NodeID) *node {
	if id == NoNode {
		return nil
	}
	idx := id.index()
	if int(idx) >= len(s.nodes) {
		return nil
	}
	n := &s.nodes[idx]
	if !n.alive || n.gen != id.generation() {
		return nil
	}
	return n
}

func (s *scene) attachLocked(parent, child NodeID) {
	p := s.lookup(parent)
	p.children = append(p.children, child)
	s.lookup(child).parent = parent
}

// detachLocked unlinks id from its parent, or from the root list when it has none.
func (s *scene) detachLocked(id NodeID) {
	n := s.lookup(id)
	if n.parent == NoNode {
		s.roots = removeID(s.roots, id)
		return
	}
	p := s.lookup(n.parent)
	p.children = removeID(p.children, id)
	n.parent = NoNode
}

// markDirtyLocked flags id and its descendants. Ancestors are never touched.
func (s *scene) markDirtyLocked(id NodeID) {
	n := s.lookup(id)
	n.dirty = true
	for _, c := range n.children {
		s.markDirtyLocked(c)
	}
}

// worldLocked returns the cached world transform, recomputing it through the parent chain
// when dirty. A clean node always has clean ancestors because dirtiness is pushed down.
func (s *scene) worldLocked(id NodeID) hypermath.Affine4 {
	n := s.lookup(id)
	if !n.dirty {
		return n.world
	}
	local := n.local.Affine()
	if n.parent != NoNode {
		parentWorld := s.worldLocked(n.parent)
		n = s.lookup(id)
		n.world = parentWorld.Compose(local)
	} else {
		n.world = local
	}
	n.dirty = false
	return n.world
}

func (s *scene) freeSubtreeLocked(id NodeID, owned *[]resource.ID) int {
	n := s.lookup(id)
	count := 1
	for _, c := range n.children {
		count += s.freeSubtreeLocked(c, owned)
	}
	*owned = append(*owned, n.owned...)
	idx := id.index()
	gen := n.gen
	s.nodes[idx] = node{gen: gen}
	s.free = append(s.free, idx)
	s.count--
	return count
}

func removeID(ids []NodeID, id NodeID) []NodeID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
