// Package resource tracks GPU-resident handles by owner scope so they can be released
// deterministically. Every handle a backend creates is registered before first use and
// released exactly once, either individually or when its scope is disposed.
package resource

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
)

// Registry records backend handles and their byte sizes per scope.
type Registry interface {
	// Register records a handle under scope. Registering a handle that is already tracked, in
	// any scope, is a no-op that logs a warning and returns the existing id.
	//
	// Parameters:
	//   - scope: the owning scope
	//   - typ: the resource type
	//   - h: the backend handle
	//   - bytes: the GPU memory attributed to the handle
	//   - label: a human readable label for diagnostics
	//
	// Returns:
	//   - ID: the id of the entry
	//   - error: ErrDuplicate for a repeated handle, ErrNilHandle for a nil handle
	Register(scope Scope, typ Type, h Handle, bytes uint64, label string) (ID, error)

	// Retain marks an entry as still referenced. Retained entries are not released by Release
	// until a matching Unretain.
	//
	// Parameters:
	//   - scope: the owning scope
	//   - id: the entry id
	//
	// Returns:
	//   - error: ErrUnknownResource if the entry does not exist
	Retain(scope Scope, id ID) error

	// Unretain drops one reference taken by Retain.
	//
	// Parameters:
	//   - scope: the owning scope
	//   - id: the entry id
	//
	// Returns:
	//   - error: ErrUnknownResource if the entry does not exist
	Unretain(scope Scope, id ID) error

	// Release destroys the handle and removes the entry. Unknown, already released and still
	// retained ids are reported as warnings and left untouched.
	//
	// Parameters:
	//   - scope: the owning scope
	//   - id: the entry id
	//
	// Returns:
	//   - bool: true if the handle was released by this call
	Release(scope Scope, id ID) bool

	// Resize updates the byte size recorded for an entry, for handles that grow in place.
	//
	// Parameters:
	//   - scope: the owning scope
	//   - id: the entry id
	//   - bytes: the new size
	//
	// Returns:
	//   - error: ErrUnknownResource if the entry does not exist
	Resize(scope Scope, id ID, bytes uint64) error

	// DisposeAll releases every entry of scope, retained or not, newest first. It is safe on
	// empty and already disposed scopes.
	//
	// Parameters:
	//   - scope: the scope to dispose
	//
	// Returns:
	//   - int: the number of handles released
	DisposeAll(scope Scope) int

	// Lookup returns the entry for id in scope.
	//
	// Parameters:
	//   - scope: the owning scope
	//   - id: the entry id
	//
	// Returns:
	//   - Entry: the entry snapshot
	//   - bool: false if no such entry exists
	Lookup(scope Scope, id ID) (Entry, bool)

	// Entries returns the entries of scope ordered by id.
	//
	// Parameters:
	//   - scope: the scope to list
	//
	// Returns:
	//   - []Entry: the entries, empty if the scope holds nothing
	Entries(scope Scope) []Entry

	// Scopes returns every scope currently holding at least one entry, sorted.
	//
	// Returns:
	//   - []Scope: the live scopes
	Scopes() []Scope

	// Bytes returns the total bytes of every registered entry.
	//
	// Returns:
	//   - uint64: the tracked byte count
	Bytes() uint64

	// ScopeBytes returns the total bytes registered under scope.
	//
	// Parameters:
	//   - scope: the scope to sum
	//
	// Returns:
	//   - uint64: the tracked byte count for scope
	ScopeBytes(scope Scope) uint64

	// Len returns the number of registered entries across all scopes.
	//
	// Returns:
	//   - int: the entry count
	Len() int

	// Warnings returns how many misuse warnings have been reported.
	//
	// Returns:
	//   - uint64: the warning count
	Warnings() uint64
}

type scopeEntries struct {
	entries map[ID]*Entry
	bytes   uint64
}

type handleOwner struct {
	scope Scope
	id    ID
}

type registryImpl struct {
	mu       *sync.Mutex
	logger   *log.Logger
	nextID   ID
	scopes   map[Scope]*scopeEntries
	handles  map[Handle]handleOwner
	bytes    uint64
	count    int
	warnings uint64
}

var _ Registry = &registryImpl{}

// NewRegistry creates an empty Registry.
//
// Parameters:
//   - opts: optional RegistryBuilderOption functions
//
// Returns:
//   - Registry: the registry
func NewRegistry(opts ...RegistryBuilderOption) Registry {
	r := &registryImpl{
		mu:     &sync.Mutex{},
		logger: log.Default().WithPrefix("resource"),
		nextID: 1,
		scopes:  make(map[Scope]*scopeEntries),
		handles: make(map[Handle]handleOwner),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *registryImpl) Register(scope Scope, typ Type, h Handle, bytes uint64, label string) (ID, error) {
	if h == nil || isNilPointer(h) {
		r.warn("register of nil handle", "scope", scope, "type", typ, "label", label)
		return 0, ErrNilHandle
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	hashable := isHashable(h)
	if hashable {
		if owner, ok := r.handles[h]; ok {
			r.warnLocked("duplicate resource registration", "scope", scope, "owner", owner.scope, "id", owner.id, "label", label)
			return owner.id, fmt.Errorf("%w: scope %q id %d", ErrDuplicate, owner.scope, owner.id)
		}
	}

	s := r.scopes[scope]
	if s == nil {
		s = &scopeEntries{entries: make(map[ID]*Entry)}
		r.scopes[scope] = s
	}

	id := r.nextID
	r.nextID++
	s.entries[id] = &Entry{ID: id, Type: typ, Scope: scope, Label: label, Bytes: bytes, Handle: h}
	if hashable {
		r.handles[h] = handleOwner{scope: scope, id: id}
	}
	s.bytes += bytes
	r.bytes += bytes
	r.count++
	r.logger.Debug("registered", "scope", scope, "id", id, "type", typ, "bytes", bytes, "label", label)
	return id, nil
}

func (r *registryImpl) Retain(scope Scope, id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entryLocked(scope, id)
	if e == nil {
		return fmt.Errorf("retain %d: %w", id, ErrUnknownResource)
	}
	e.Refs++
	return nil
}

func (r *registryImpl) Unretain(scope Scope, id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entryLocked(scope, id)
	if e == nil {
		return fmt.Errorf("unretain %d: %w", id, ErrUnknownResource)
	}
	if e.Refs == 0 {
		r.warnLocked("unretain of unreferenced resource", "scope", scope, "id", id)
		return nil
	}
	e.Refs--
	return nil
}

func (r *registryImpl) Release(scope Scope, id ID) bool {
	r.mu.Lock()
	e := r.entryLocked(scope, id)
	owner, owned := r.ownerLocked(id)
	switch {
	case e == nil && owned:
		r.warnLocked("release from foreign scope", "scope", scope, "id", id, "owner", owner)
		r.mu.Unlock()
		return false
	case e == nil && id > 0 && id < r.nextID:
		r.warnLocked("release of already released resource", "scope", scope, "id", id)
		r.mu.Unlock()
		return false
	case e == nil:
		r.warnLocked("release of unknown resource", "scope", scope, "id", id)
		r.mu.Unlock()
		return false
	case e.Refs > 0:
		r.warnLocked("release of retained resource", "scope", scope, "id", id, "refs", e.Refs, "label", e.Label)
		r.mu.Unlock()
		return false
	}
	r.removeLocked(e)
	r.mu.Unlock()

	r.destroy(*e)
	return true
}

func (r *registryImpl) Resize(scope Scope, id ID, bytes uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entryLocked(scope, id)
	if e == nil {
		return fmt.Errorf("resize %d: %w", id, ErrUnknownResource)
	}
	s := r.scopes[scope]
	s.bytes = s.bytes - e.Bytes + bytes
	r.bytes = r.bytes - e.Bytes + bytes
	e.Bytes = bytes
	return nil
}

func (r *registryImpl) DisposeAll(scope Scope) int {
	r.mu.Lock()
	s := r.scopes[scope]
	if s == nil {
		r.mu.Unlock()
		return 0
	}
	released := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		released = append(released, *e)
	}
	for _, e := range released {
		if e.Refs > 0 {
			r.logger.Debug("force releasing retained resource", "scope", scope, "id", e.ID, "refs", e.Refs)
		}
		r.removeLocked(s.entries[e.ID])
	}
	r.mu.Unlock()

	slices.SortFunc(released, func(a, b Entry) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	for _, e := range released {
		r.destroy(e)
	}
	if len(released) > 0 {
		r.logger.Debug("disposed scope", "scope", scope, "released", len(released))
	}
	return len(released)
}

func (r *registryImpl) Lookup(scope Scope, id ID) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entryLocked(scope, id)
	if e == nil {
		return Entry{}, false
	}
	return *e, true
}

func (r *registryImpl) Entries(scope Scope) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.scopes[scope]
	if s == nil {
		return []Entry{}
	}
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

func (r *registryImpl) Scopes() []Scope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Scope, 0, len(r.scopes))
	for s := range r.scopes {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

func (r *registryImpl) Bytes() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bytes
}

func (r *registryImpl) ScopeBytes(scope Scope) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.scopes[scope]; s != nil {
		return s.bytes
	}
	return 0
}

func (r *registryImpl) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func (r *registryImpl) Warnings() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warnings
}

func (r *registryImpl) entryLocked(scope Scope, id ID) *Entry {
	s := r.scopes[scope]
	if s == nil {
		return nil
	}
	return s.entries[id]
}

func (r *registryImpl) ownerLocked(id ID) (Scope, bool) {
	for name, s := range r.scopes {
		if _, ok := s.entries[id]; ok {
			return name, true
		}
	}
	return "", false
}

// removeLocked drops e from the bookkeeping. Empty scopes are forgotten so Scopes only
// reports live ones.
func (r *registryImpl) removeLocked(e *Entry) {
	s := r.scopes[e.Scope]
	delete(s.entries, e.ID)
	if isHashable(e.Handle) {
		if owner, ok := r.handles[e.Handle]; ok && owner.id == e.ID {
			delete(r.handles, e.Handle)
		}
	}
	s.bytes -= e.Bytes
	r.bytes -= e.Bytes
	r.count--
	if len(s.entries) == 0 {
		delete(r.scopes, e.Scope)
	}
}

// destroy calls the backend release outside the registry lock. A panicking handle is logged;
// its entry is already gone so it is never released twice.
func (r *registryImpl) destroy(e Entry) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("resource release panicked", "scope", e.Scope, "id", e.ID, "type", e.Type, "label", e.Label, "panic", rec)
		}
	}()
	e.Handle.Release()
}

func (r *registryImpl) warn(msg string, keyvals ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnLocked(msg, keyvals...)
}

func (r *registryImpl) warnLocked(msg string, keyvals ...any) {
	r.warnings++
	r.logger.Warn(msg, keyvals...)
}

// isHashable reports whether h can be used as a map key. Struct handles whose interface
// fields hold slices or maps are tracked without duplicate detection.
func isHashable(h Handle) bool {
	return reflect.ValueOf(h).Comparable()
}

func isNilPointer(h Handle) bool {
	v := reflect.ValueOf(h)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}
