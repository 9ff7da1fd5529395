package main

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy4d/engine"
	"github.com/Carmen-Shannon/oxy4d/engine/backends"
	"github.com/Carmen-Shannon/oxy4d/engine/hypermath"
	"github.com/Carmen-Shannon/oxy4d/engine/projector"
	"github.com/Carmen-Shannon/oxy4d/engine/renderer"
	"github.com/Carmen-Shannon/oxy4d/engine/window"
	"github.com/charmbracelet/log"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spf13/cobra"
)

const gpuBackendID = "webgpu-backend"

var (
	viewSpin     float64
	viewFallback bool
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Open a window and animate the polytope with the webgpu backend",
	Long: `Open a window and animate the configured polytope.

Keys 1-6 pick the spinning plane (XY, XZ, YZ, XW, YW, ZW), P cycles the projection mode,
dragging orbits the camera, scrolling zooms and Escape quits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runViewer(log.Default().WithPrefix("view"))
	},
}

func init() {
	viewCmd.Flags().Float64Var(&viewSpin, "spin", 0.5, "Rotation speed in radians per second")
	viewCmd.Flags().BoolVar(&viewFallback, "fallback-adapter", false, "Request a software GPU adapter")
}

var planeKeys = map[glfw.Key]hypermath.Plane{
	glfw.Key1: hypermath.PlaneXY,
	glfw.Key2: hypermath.PlaneXZ,
	glfw.Key3: hypermath.PlaneYZ,
	glfw.Key4: hypermath.PlaneXW,
	glfw.Key5: hypermath.PlaneYW,
	glfw.Key6: hypermath.PlaneZW,
}

func runViewer(logger *log.Logger) error {
	win, err := window.NewWindow(
		window.WithTitle("oxy4d - "+cfg.Scene.Polytope),
		window.WithSize(cfg.Viewport.Width, cfg.Viewport.Height),
		window.WithLogger(logger.WithPrefix("window")),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	width, height := win.Size()
	e := engine.NewEngine(engine.WithConfig(cfg), engine.WithViewport(width, height), engine.WithLogger(logger))
	defer func() {
		if err := e.Teardown(); err != nil {
			logger.Error("teardown", "err", err)
		}
	}()

	node, err := e.AddPolytope(cfg.Scene.Polytope, cfg.Scene.Radius)
	if err != nil {
		return err
	}

	opts := e.BackendOptions(gpuBackendID)
	if viewFallback {
		opts = append(opts, renderer.WithForceFallbackAdapter())
	}
	r, err := backends.New(renderer.BackendTypeWebGPU, win.SurfaceDescriptor(), opts...)
	if err != nil {
		return err
	}
	if err := e.AddBackend(gpuBackendID, r); err != nil {
		return err
	}
	if err := e.SelectBackend(gpuBackendID); err != nil {
		return err
	}

	plane := hypermath.PlaneXW
	win.SetKeyCallback(func(key glfw.Key) {
		if p, ok := planeKeys[key]; ok {
			plane = p
			logger.Debug("spin plane", "plane", plane)
			return
		}
		if key == glfw.KeyP {
			next := projector.Mode((uint32(e.Projector().Mode) + 1) % 3)
			if err := e.SetProjectionMode(next); err == nil {
				logger.Info("projection", "mode", next)
			}
		}
	})
	win.SetResizeCallback(func(w, h int) {
		if err := e.Resize(w, h); err != nil {
			logger.Error("resize", "width", w, "height", h, "err", err)
		}
	})
	win.SetDragCallback(func(dx, dy float32) {
		e.Camera().Controller().Orbit(-dx*0.01, dy*0.01)
	})
	win.SetScrollCallback(func(delta float32) {
		e.Camera().Controller().Zoom(delta)
	})
	e.SetTickCallback(func(dt float64) {
		_ = e.Scene().UpdateLocalTransform(node, func(t *hypermath.Transform4D) {
			t.Rotate(plane, viewSpin*dt)
		})
	})

	// GLFW events must be pumped on this goroutine, so the frame cadence lives here too.
	ticker := time.NewTicker(time.Duration(float64(time.Second) / cfg.FrameRate))
	defer ticker.Stop()
	for win.Poll() {
		<-ticker.C
		if err := e.RenderFrame(); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
	return nil
}
