// Package window opens the desktop surface the webgpu backend presents to. It wraps a GLFW
// window created without a client API and reports framebuffer resizes in pixels.
package window

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// ErrClosed is returned when an operation needs a window that was already closed.
var ErrClosed = errors.New("window closed")

// Window is a native window with a WebGPU-compatible surface.
type Window interface {
	// SetResizeCallback registers the function called with the new framebuffer size.
	//
	// Parameters:
	//   - callback: receives the width and height in pixels, either may be zero while minimized
	SetResizeCallback(callback func(width, height int))

	// SetDragCallback registers the function called while the left mouse button drags.
	//
	// Parameters:
	//   - callback: receives the cursor movement since the last event in pixels
	SetDragCallback(callback func(dx, dy float32))

	// SetScrollCallback registers the function called on vertical scroll.
	SetScrollCallback(callback func(delta float32))

	// SetKeyCallback registers the function called when a key is pressed or repeats.
	SetKeyCallback(callback func(key glfw.Key))

	// SurfaceDescriptor returns the descriptor a wgpu instance uses to create the surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform surface descriptor, nil after Close
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Poll processes pending events without blocking.
	//
	// Returns:
	//   - bool: false once the window should close
	Poll() bool

	// Size returns the current framebuffer size in pixels.
	Size() (width, height int)

	// Close destroys the window and terminates GLFW. Further calls return ErrClosed.
	//
	// Returns:
	//   - error: ErrClosed if already closed
	Close() error
}

type glfwWindow struct {
	mu *sync.Mutex

	title     string
	width     int
	height    int
	minWidth  int
	minHeight int

	window   *glfw.Window
	dragging bool
	lastX    float64
	lastY    float64

	onResize func(width, height int)
	onDrag   func(dx, dy float32)
	onScroll func(delta float32)
	onKey    func(key glfw.Key)

	logger *log.Logger
}

var _ Window = &glfwWindow{}

// NewWindow initializes GLFW and opens a window. The calling goroutine is locked to its OS
// thread, and every other method must be called from it.
//
// Parameters:
//   - options: functional options for window configuration
//
// Returns:
//   - Window: the open window
//   - error: an error if GLFW or the window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &glfwWindow{
		mu:        &sync.Mutex{},
		title:     "oxy4d",
		width:     1280,
		height:    720,
		minWidth:  200,
		minHeight: 150,
		logger:    log.Default().WithPrefix("window"),
	}
	for _, opt := range options {
		opt(w)
	}

	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("initialize glfw: %w", err)
	}

	// WebGPU drives the surface, so no OpenGL context is created.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create glfw window: %w", err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, glfw.DontCare, glfw.DontCare)
	w.window = win
	w.installCallbacks()

	// High-DPI displays report a framebuffer larger than the requested size.
	w.width, w.height = win.GetFramebufferSize()
	w.logger.Debug("window opened", "title", w.title, "width", w.width, "height", w.height)
	return w, nil
}

func (w *glfwWindow) installCallbacks() {
	w.window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.mu.Lock()
		w.width, w.height = width, height
		cb := w.onResize
		w.mu.Unlock()
		if cb != nil {
			cb(width, height)
		}
	})

	w.window.SetKeyCallback(func(win *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Release {
			return
		}
		if key == glfw.KeyEscape {
			win.SetShouldClose(true)
			return
		}
		if w.onKey != nil {
			w.onKey(key)
		}
	})

	w.window.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})

	w.window.SetMouseButtonCallback(func(win *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		w.dragging = action == glfw.Press
		w.lastX, w.lastY = win.GetCursorPos()
	})

	w.window.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if !w.dragging {
			return
		}
		dx, dy := x-w.lastX, y-w.lastY
		w.lastX, w.lastY = x, y
		if w.onDrag != nil {
			w.onDrag(float32(dx), float32(dy))
		}
	})
}

func (w *glfwWindow) SetResizeCallback(callback func(width, height int)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onResize = callback
}

func (w *glfwWindow) SetDragCallback(callback func(dx, dy float32)) {
	w.onDrag = callback
}

func (w *glfwWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *glfwWindow) SetKeyCallback(callback func(key glfw.Key)) {
	w.onKey = callback
}

func (w *glfwWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.window == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(w.window)
}

func (w *glfwWindow) Poll() bool {
	if w.window == nil {
		return false
	}
	glfw.PollEvents()
	return !w.window.ShouldClose()
}

func (w *glfwWindow) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

func (w *glfwWindow) Close() error {
	if w.window == nil {
		return ErrClosed
	}
	w.window.Destroy()
	w.window = nil
	glfw.Terminate()
	w.logger.Debug("window closed", "title", w.title)
	return nil
}
