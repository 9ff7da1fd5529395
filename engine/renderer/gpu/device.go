package gpu

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy4d/engine/renderer"
	"github.com/Carmen-Shannon/oxy4d/engine/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoSurfaceFormat is returned when the adapter reports no usable surface format.
var ErrNoSurfaceFormat = errors.New("gpu: surface reports no formats")

// device holds the instance-level objects shared by every frame. Each object is tracked in the
// registry so a scope disposal tears the whole device down.
type device struct {
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	format      wgpu.TextureFormat
	alphaMode   wgpu.CompositeAlphaMode
	presentMode wgpu.PresentMode

	ids []resource.ID
}

// acquireDevice creates the instance, surface, adapter, device and queue. Objects created
// before a failure are released through the registry.
func acquireDevice(desc *wgpu.SurfaceDescriptor, reg resource.Registry, scope resource.Scope, mode renderer.PresentMode, forceFallback bool) (d *device, err error) {
	runtime.LockOSThread()

	d = &device{presentMode: presentMode(mode)}
	defer func() {
		if err != nil {
			for i := len(d.ids) - 1; i >= 0; i-- {
				reg.Release(scope, d.ids[i])
			}
			d = nil
		}
	}()

	track := func(h resource.Handle, typ resource.Type, label string) error {
		id, regErr := reg.Register(scope, typ, h, 0, label)
		if regErr != nil {
			return fmt.Errorf("gpu: register %s: %w", label, regErr)
		}
		d.ids = append(d.ids, id)
		return nil
	}

	d.instance = wgpu.CreateInstance(nil)
	if d.instance == nil {
		return nil, errors.New("gpu: failed to create instance")
	}
	if err = track(d.instance, resource.TypeDevice, "instance"); err != nil {
		return nil, err
	}

	d.surface = d.instance.CreateSurface(desc)
	if d.surface == nil {
		return nil, errors.New("gpu: failed to create surface")
	}
	if err = track(d.surface, resource.TypeSurface, "surface"); err != nil {
		return nil, err
	}

	d.adapter, err = d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallback,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: request adapter: %w", err)
	}
	if err = track(d.adapter, resource.TypeDevice, "adapter"); err != nil {
		return nil, err
	}

	d.device, err = d.adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "oxy4d device",
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: request device: %w", err)
	}
	if err = track(d.device, resource.TypeDevice, "device"); err != nil {
		return nil, err
	}

	d.queue = d.device.GetQueue()
	if err = track(d.queue, resource.TypeDevice, "queue"); err != nil {
		return nil, err
	}

	capabilities := d.surface.GetCapabilities(d.adapter)
	if len(capabilities.Formats) == 0 {
		return nil, ErrNoSurfaceFormat
	}
	d.format = capabilities.Formats[0]
	d.alphaMode = wgpu.CompositeAlphaModeAuto
	if len(capabilities.AlphaModes) > 0 {
		d.alphaMode = capabilities.AlphaModes[0]
	}
	return d, nil
}

// configure sizes the swapchain. Zero sizes are not configured.
func (d *device) configure(width, height int) {
	if width == 0 || height == 0 {
		return
	}
	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      d.format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: d.presentMode,
		AlphaMode:   d.alphaMode,
	})
}

func presentMode(mode renderer.PresentMode) wgpu.PresentMode {
	switch mode {
	case renderer.PresentModeVSync:
		return wgpu.PresentModeFifo
	case renderer.PresentModeUncapped:
		fallthrough
	default:
		return wgpu.PresentModeImmediate
	}
}
