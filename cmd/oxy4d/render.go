package main

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy4d/engine"
	"github.com/Carmen-Shannon/oxy4d/engine/config"
	"github.com/Carmen-Shannon/oxy4d/engine/hypermath"
	"github.com/Carmen-Shannon/oxy4d/engine/renderer/raster"
	"github.com/Carmen-Shannon/oxy4d/engine/resource"
	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// errEmptyViewport is returned when asked to render into a zero-sized image.
var errEmptyViewport = errors.New("viewport has no pixels")

const rasterBackendID = "webgl-backend"

var (
	renderOut       string
	renderRotations []string
	renderStats     bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one frame headlessly with the webgl backend and save it as PNG",
	Example: `  oxy4d render --rotate xw=90 --rotate yz=30 -o tesseract.png
  OXY4D_POLYTOPE=24-cell oxy4d render --stats`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rotations, err := parseRotations(renderRotations)
		if err != nil {
			return err
		}
		logger := log.Default().WithPrefix("render")
		img, err := renderScene(cfg, rotations, renderStats, logger)
		if err != nil {
			return err
		}
		if err := gg.SavePNG(renderOut, img); err != nil {
			return fmt.Errorf("save %s: %w", renderOut, err)
		}
		logger.Info("frame saved", "path", renderOut, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "oxy4d.png", "Output PNG path")
	renderCmd.Flags().StringArrayVarP(&renderRotations, "rotate", "r", nil, "Plane rotation as plane=degrees, e.g. xw=90 (repeatable)")
	renderCmd.Flags().BoolVar(&renderStats, "stats", false, "Log registry resource metrics before teardown")
}

// parseRotations parses plane=degrees pairs into radians per plane. Later pairs for the same
// plane win.
func parseRotations(pairs []string) (map[hypermath.Plane]float64, error) {
	out := make(map[hypermath.Plane]float64, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("rotation %q: want plane=degrees", pair)
		}
		plane, err := hypermath.ParsePlane(name)
		if err != nil {
			return nil, fmt.Errorf("rotation %q: %w", pair, err)
		}
		deg, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("rotation %q: %w", pair, err)
		}
		out[plane] = mgl64.DegToRad(deg)
	}
	return out, nil
}

// renderScene builds an engine from cfg, draws the configured polytope once on the raster
// backend and returns the framebuffer.
func renderScene(cfg *config.Config, rotations map[hypermath.Plane]float64, stats bool, logger *log.Logger) (*image.RGBA, error) {
	if cfg.Viewport.Width == 0 || cfg.Viewport.Height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", errEmptyViewport, cfg.Viewport.Width, cfg.Viewport.Height)
	}

	e := engine.NewEngine(engine.WithConfig(cfg), engine.WithLogger(logger))
	defer func() {
		if err := e.Teardown(); err != nil {
			logger.Error("teardown", "err", err)
		}
	}()

	node, err := e.AddPolytope(cfg.Scene.Polytope, cfg.Scene.Radius)
	if err != nil {
		return nil, err
	}
	for plane, angle := range rotations {
		if err := e.SetPlaneAngle(node, plane, angle); err != nil {
			return nil, err
		}
	}

	r := raster.New(e.BackendOptions(rasterBackendID)...)
	if err := e.AddBackend(rasterBackendID, r); err != nil {
		return nil, err
	}
	if err := e.SelectBackend(rasterBackendID); err != nil {
		return nil, err
	}
	if err := e.RenderFrame(); err != nil {
		return nil, err
	}
	if stats {
		if err := logRegistryMetrics(e.Registry(), logger); err != nil {
			return nil, err
		}
	}

	img := r.Snapshot()
	if img == nil {
		return nil, errEmptyViewport
	}
	return img, nil
}

// logRegistryMetrics scrapes the registry collector once and logs every sample.
func logRegistryMetrics(reg resource.Registry, logger *log.Logger) error {
	pr := prometheus.NewPedanticRegistry()
	if err := pr.Register(resource.NewCollector(reg, "oxy4d")); err != nil {
		return err
	}
	families, err := pr.Gather()
	if err != nil {
		return fmt.Errorf("gather resource metrics: %w", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			value := m.GetGauge().GetValue()
			if c := m.GetCounter(); c != nil {
				value = c.GetValue()
			}
			keyvals := []any{"value", value}
			for _, lp := range m.GetLabel() {
				keyvals = append(keyvals, lp.GetName(), lp.GetValue())
			}
			logger.Info(mf.GetName(), keyvals...)
		}
	}
	return nil
}
