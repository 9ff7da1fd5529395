// Package lifecycle owns which renderer is active. At most one renderer draws at a time, swaps
// follow a fixed order, and backend failures are contained to the failing renderer.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy4d/engine/profiler"
	"github.com/Carmen-Shannon/oxy4d/engine/renderer"
	"github.com/Carmen-Shannon/oxy4d/engine/resource"
	"github.com/charmbracelet/log"
)

// Manager is the renderer state machine. All methods are safe for concurrent use; frames,
// swaps and disposal are serialized.
type Manager interface {
	// Register adds a renderer in StateRegistered.
	//
	// Parameters:
	//   - id: a unique renderer id
	//   - r: the renderer
	//   - opts: optional RegisterOption functions
	//
	// Returns:
	//   - error: ErrDuplicateRenderer if id is taken
	Register(id string, r renderer.Renderer, opts ...RegisterOption) error

	// Unregister deactivates the renderer if needed, disposes its scope and forgets it.
	//
	// Parameters:
	//   - id: the renderer id
	//
	// Returns:
	//   - error: ErrUnknownRenderer, or a BackendError from deactivation
	Unregister(id string) error

	// Activate makes id the active renderer. The outgoing renderer is deactivated first,
	// optionally has its scope disposed, then the incoming renderer is activated and sized to
	// the current viewport. Activating the active renderer is a no-op.
	//
	// Parameters:
	//   - id: the renderer id
	//   - opts: optional ActivateOption functions
	//
	// Returns:
	//   - error: ErrUnknownRenderer, ErrRendererFailed, or a *BackendError if the incoming
	//     renderer failed to activate
	Activate(id string, opts ...ActivateOption) error

	// Deactivate stops the active renderer without disposing its resources. A no-op when
	// nothing is active.
	//
	// Returns:
	//   - error: a *BackendError if the renderer failed to deactivate
	Deactivate() error

	// Resize records the viewport size and forwards it to the active renderer.
	//
	// Parameters:
	//   - width, height: the viewport size in pixels
	//
	// Returns:
	//   - error: renderer.ErrInvalidSize, or a *BackendError
	Resize(width, height int) error

	// RenderFrame renders one frame on the active renderer.
	//
	// Returns:
	//   - error: ErrNoActiveRenderer, or a *BackendError
	RenderFrame() error

	// Run renders at fps until ctx is cancelled, on the caller's goroutine. Ticks without an
	// active renderer are skipped.
	//
	// Parameters:
	//   - ctx: cancels the loop
	//   - fps: frames per second
	//
	// Returns:
	//   - error: nil on cancellation, ErrInvalidFrameRate, or the first *BackendError
	Run(ctx context.Context, fps float64) error

	// Active returns the active renderer id.
	//
	// Returns:
	//   - string: the id
	//   - bool: false when nothing is active
	Active() (string, bool)

	// State returns a renderer's state.
	//
	// Parameters:
	//   - id: the renderer id
	//
	// Returns:
	//   - State: the state
	//   - error: ErrUnknownRenderer
	State(id string) (State, error)

	// Failure returns the error that put id into StateFailed, or nil.
	Failure(id string) error

	// Recover moves a failed renderer back to StateRegistered so it can be activated again.
	//
	// Parameters:
	//   - id: the renderer id
	//
	// Returns:
	//   - error: ErrUnknownRenderer
	Recover(id string) error

	// Renderers returns the registered ids in sorted order.
	Renderers() []string

	// Idle reports whether no renderer is registered.
	Idle() bool

	// Size returns the last viewport size.
	Size() (int, int)

	// Teardown deactivates the active renderer, disposes every renderer scope and forgets
	// every renderer. The manager is Idle afterwards.
	//
	// Returns:
	//   - error: every failure joined
	Teardown() error
}

type entry struct {
	id       string
	renderer renderer.Renderer
	scope    resource.Scope
	state    State
	err      error
}

type manager struct {
	mu       *sync.Mutex
	logger   *log.Logger
	registry resource.Registry
	profiler *profiler.Profiler

	entries map[string]*entry
	active  *entry
	width   int
	height  int
}

var _ Manager = &manager{}

// NewManager creates an idle Manager.
//
// Parameters:
//   - opts: optional ManagerBuilderOption functions
//
// Returns:
//   - Manager: the manager
func NewManager(opts ...ManagerBuilderOption) Manager {
	m := &manager{
		mu:      &sync.Mutex{},
		logger:  log.Default().WithPrefix("lifecycle"),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *manager) Register(id string, r renderer.Renderer, opts ...RegisterOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateRenderer, id)
	}
	e := &entry{id: id, renderer: r, scope: resource.Scope("renderer/" + id)}
	for _, opt := range opts {
		opt(e)
	}
	m.entries[id] = e
	m.logger.Debug("renderer registered", "id", id, "scope", e.scope)
	return nil
}

func (m *manager) Unregister(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRenderer, id)
	}
	var err error
	if m.active == e {
		err = m.deactivateLocked()
	}
	m.disposeLocked(e)
	delete(m.entries, id)
	m.logger.Debug("renderer unregistered", "id", id)
	return err
}

func (m *manager) Activate(id string, opts ...ActivateOption) error {
	var cfg activateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRenderer, id)
	}
	if next.state == StateFailed {
		return fmt.Errorf("%w: %q: %v", ErrRendererFailed, id, next.err)
	}
	if m.active == next {
		return nil
	}

	if prev := m.active; prev != nil {
		// a failing outgoing renderer is marked failed but does not block the swap
		if err := m.deactivateLocked(); err != nil {
			m.logger.Warn("outgoing renderer failed to deactivate", "id", prev.id, "err", err)
		}
		if cfg.teardownPrevious {
			m.disposeLocked(prev)
		}
	}

	if err := call(func() error { return next.renderer.SetActive(true) }); err != nil {
		return m.failLocked(next, OpSetActive, err)
	}
	next.state = StateActive
	m.active = next

	if err := call(func() error { return next.renderer.Resize(m.width, m.height) }); err != nil {
		return m.failLocked(next, OpResize, err)
	}
	m.logger.Debug("renderer activated", "id", id, "width", m.width, "height", m.height)
	return nil
}

func (m *manager) Deactivate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deactivateLocked()
}

func (m *manager) Resize(width, height int) error {
	if err := renderer.CheckSize(width, height); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.width, m.height = width, height
	if m.active == nil {
		return nil
	}
	a := m.active
	if err := call(func() error { return a.renderer.Resize(width, height) }); err != nil {
		return m.failLocked(a, OpResize, err)
	}
	return nil
}

func (m *manager) RenderFrame() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ErrNoActiveRenderer
	}
	a := m.active
	if err := call(a.renderer.RenderFrame); err != nil {
		return m.failLocked(a, OpRenderFrame, err)
	}
	if m.profiler != nil {
		m.profiler.Tick()
	}
	return nil
}

func (m *manager) Run(ctx context.Context, fps float64) error {
	if fps <= 0 {
		return ErrInvalidFrameRate
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := m.RenderFrame()
			if err == nil || errors.Is(err, ErrNoActiveRenderer) {
				continue
			}
			return err
		}
	}
}

func (m *manager) Active() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return "", false
	}
	return m.active.id, true
}

func (m *manager) State(id string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRenderer, id)
	}
	return e.state, nil
}

func (m *manager) Failure(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		return e.err
	}
	return nil
}

func (m *manager) Recover(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRenderer, id)
	}
	if e.state == StateFailed {
		e.state, e.err = StateRegistered, nil
	}
	return nil
}

func (m *manager) Renderers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *manager) Idle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries) == 0
}

func (m *manager) Size() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height
}

func (m *manager) Teardown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if err := m.deactivateLocked(); err != nil {
		errs = append(errs, err)
	}
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		m.disposeLocked(m.entries[id])
		delete(m.entries, id)
	}
	m.logger.Debug("teardown complete", "renderers", len(ids))
	return errors.Join(errs...)
}

// deactivateLocked stops the active renderer. A failure still leaves nothing active.
func (m *manager) deactivateLocked() error {
	a := m.active
	if a == nil {
		return nil
	}
	m.active = nil
	if err := call(func() error { return a.renderer.SetActive(false) }); err != nil {
		a.state, a.err = StateFailed, err
		m.logger.Error("renderer failed", "id", a.id, "op", OpSetActive, "err", err)
		return &BackendError{RendererID: a.id, Op: OpSetActive, Err: err}
	}
	a.state = StateRegistered
	m.logger.Debug("renderer deactivated", "id", a.id)
	return nil
}

// failLocked marks e failed and makes sure it is no longer active. Its resources are kept.
func (m *manager) failLocked(e *entry, op Op, err error) error {
	e.state, e.err = StateFailed, err
	if m.active == e {
		m.active = nil
		if derr := call(func() error { return e.renderer.SetActive(false) }); derr != nil {
			m.logger.Warn("failed renderer did not deactivate", "id", e.id, "err", derr)
		}
	}
	m.logger.Error("renderer failed", "id", e.id, "op", op, "err", err)
	return &BackendError{RendererID: e.id, Op: op, Err: err}
}

func (m *manager) disposeLocked(e *entry) {
	if m.registry == nil {
		return
	}
	n := m.registry.DisposeAll(e.scope)
	m.logger.Debug("renderer scope disposed", "id", e.id, "scope", e.scope, "released", n)
}

// call runs a backend method, converting a panic into an error.
func call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrBackendPanic, r)
		}
	}()
	return fn()
}
