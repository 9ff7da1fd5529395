package window

import "github.com/charmbracelet/log"

// WindowBuilderOption is a functional option for configuring a Window.
type WindowBuilderOption func(w *glfwWindow)

// WithTitle sets the window title.
func WithTitle(title string) WindowBuilderOption {
	return func(w *glfwWindow) {
		w.title = title
	}
}

// WithSize sets the requested client size in screen coordinates. Non-positive values are ignored.
//
// Parameters:
//   - width: the requested width
//   - height: the requested height
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *glfwWindow) {
		if width > 0 && height > 0 {
			w.width, w.height = width, height
		}
	}
}

// WithMinSize sets the smallest size the user can resize the window to.
func WithMinSize(width, height int) WindowBuilderOption {
	return func(w *glfwWindow) {
		w.minWidth, w.minHeight = width, height
	}
}

// WithLogger sets the logger used for window events.
func WithLogger(l *log.Logger) WindowBuilderOption {
	return func(w *glfwWindow) {
		if l != nil {
			w.logger = l
		}
	}
}
