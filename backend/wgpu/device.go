package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/CrazyPickleStudios/brine2d"
	"github.com/CrazyPickleStudios/brine2d/gfx"
)

var (
	// ErrNoAdapter is returned by Open when the backend exposes no adapter.
	ErrNoAdapter = errors.New("wgpu: no adapter available")

	// ErrNotHAL is returned by NewFromProvider when the provider does not
	// expose its HAL device and queue.
	ErrNotHAL = errors.New("wgpu: provider does not expose a HAL device")

	// ErrHeadless is returned by ReadPixels on a windowed device.
	ErrHeadless = errors.New("wgpu: readback needs a headless device")
)

// Options configures Open.
type Options struct {
	// Backend selects the registered HAL backend.
	Backend gputypes.Backend

	// Width and Height size the surface or offscreen target.
	Width, Height int

	// Format is the surface format. Defaults to BGRA8Unorm.
	Format gputypes.TextureFormat

	// DisplayHandle and WindowHandle are the native handles of the window
	// to present to. When both are zero the device renders offscreen.
	DisplayHandle, WindowHandle uintptr

	// PresentMode defaults to FIFO (vsync).
	PresentMode gputypes.PresentMode
}

// Device is a gfx.Device backed by a HAL device and queue. It is used
// from a single render goroutine.
type Device struct {
	hal     hal.Device
	queue   hal.Queue
	info    gfx.DriverInfo
	adapter gputypes.AdapterInfo

	// Owned only when created by Open.
	instance   hal.Instance
	halAdapter hal.Adapter
	owned      bool

	surface     hal.Surface
	presentMode gputypes.PresentMode
	width       int
	height      int

	layout      hal.BindGroupLayout
	pipeLayout  hal.PipelineLayout
	blitSampler *Sampler
	viewports   map[[2]int]hal.Buffer
	groups      map[groupKey]hal.BindGroup

	offscreen *Texture
	acquired  *hal.AcquiredSurfaceTexture
	frameTex  *Texture

	recording bool
	pending   []func()
	inflight  []retired
}

var _ gfx.Device = (*Device)(nil)

// retired is GPU work whose resources are freed once the queue reports the
// submission complete.
type retired struct {
	index   uint64
	cmd     hal.CommandBuffer
	cleanup []func()
}

// Open creates a device on the first adapter of the opts.Backend HAL
// backend. The backend package must be imported for its registration,
// e.g. github.com/gogpu/wgpu/hal/vulkan.
func Open(opts Options) (*Device, error) {
	backend, ok := hal.GetBackend(opts.Backend)
	if !ok {
		return nil, fmt.Errorf("wgpu: %s: %w", opts.Backend, hal.ErrBackendNotFound)
	}
	inst, err := backend.CreateInstance(&hal.InstanceDescriptor{Backends: gputypes.BackendsAll})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}

	var surf hal.Surface
	if opts.WindowHandle != 0 {
		surf, err = inst.CreateSurface(opts.DisplayHandle, opts.WindowHandle)
		if err != nil {
			inst.Destroy()
			return nil, fmt.Errorf("wgpu: create surface: %w", err)
		}
	}

	adapters := inst.EnumerateAdapters(surf)
	if len(adapters) == 0 {
		if surf != nil {
			surf.Destroy()
		}
		inst.Destroy()
		return nil, ErrNoAdapter
	}
	exposed := adapters[0]
	open, err := exposed.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		if surf != nil {
			surf.Destroy()
		}
		inst.Destroy()
		return nil, fmt.Errorf("wgpu: open %s: %w", exposed.Info.Name, err)
	}

	d, err := NewFromHAL(open.Device, open.Queue, exposed.Info, opts)
	if err != nil {
		open.Device.Destroy()
		if surf != nil {
			surf.Destroy()
		}
		inst.Destroy()
		return nil, err
	}
	d.instance, d.halAdapter, d.owned = inst, exposed.Adapter, true
	if surf != nil {
		d.surface = surf
		if err := d.configure(); err != nil {
			d.Destroy()
			return nil, err
		}
	}
	return d, nil
}

// NewFromProvider wraps the device of a host application. The provider
// must expose HalDevice() and HalQueue() returning hal.Device and
// hal.Queue. The host keeps ownership of the device; rendering goes to an
// offscreen target the host reads back or composites.
func NewFromProvider(p gpucontext.DeviceProvider, width, height int) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := p.(halProvider)
	if !ok {
		return nil, ErrNotHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNotHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNotHAL, hp.HalQueue())
	}
	info := gputypes.AdapterInfo{Name: p.AdapterInfo().Name}
	return NewFromHAL(device, queue, info, Options{
		Width:  width,
		Height: height,
		Format: p.SurfaceFormat(),
	})
}

// NewFromHAL wraps an open HAL device and queue. The caller keeps
// ownership of both; Destroy releases only what the Device created.
func NewFromHAL(device hal.Device, queue hal.Queue, info gputypes.AdapterInfo, opts Options) (*Device, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("wgpu: invalid size %dx%d", opts.Width, opts.Height)
	}
	format := opts.Format
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatBGRA8Unorm
	}
	present := opts.PresentMode
	if present == 0 {
		present = gputypes.PresentModeFifo
	}

	d := &Device{
		hal:     device,
		queue:   queue,
		adapter: info,
		info: gfx.DriverInfo{
			Backend:       backendFor(info.Backend),
			API:           "wgpu-hal/" + info.Backend.String(),
			Adapter:       info.Name,
			SurfaceFormat: format,
		},
		presentMode: present,
		width:       opts.Width,
		height:      opts.Height,
		viewports:   make(map[[2]int]hal.Buffer),
		groups:      make(map[groupKey]hal.BindGroup),
	}
	if err := d.initLayouts(); err != nil {
		d.destroyOwned()
		return nil, err
	}
	smp, err := d.CreateSampler(gputypes.FilterModeLinear)
	if err != nil {
		d.destroyOwned()
		return nil, err
	}
	d.blitSampler = smp.(*Sampler)

	logAdapter(info, d.info)
	return d, nil
}

// backendFor maps a HAL backend to the shader family it consumes. Only
// Vulkan takes SPIR-V directly; the others are fed WGSL.
func backendFor(b gputypes.Backend) gfx.Backend {
	if b == gputypes.BackendVulkan {
		return gfx.BackendVulkan
	}
	return gfx.BackendWebGPU
}

func logAdapter(info gputypes.AdapterInfo, di gfx.DriverInfo) {
	brine2d.Logger().Info("wgpu: device ready",
		"adapter", info.Name,
		"vendor", info.Vendor,
		"type", info.DeviceType,
		"hal", info.Backend.String(),
		"shaders", di.Backend.String())
	if info.Driver != "" {
		brine2d.Logger().Debug("wgpu: driver", "driver", info.Driver, "info", info.DriverInfo)
	}
}

// Info implements gfx.Device.
func (d *Device) Info() gfx.DriverInfo { return d.info }

// AdapterInfo returns the HAL description of the adapter.
func (d *Device) AdapterInfo() gputypes.AdapterInfo { return d.adapter }

// Headless reports whether the device renders offscreen.
func (d *Device) Headless() bool { return d.surface == nil }

// Size returns the surface size.
func (d *Device) Size() (w, h int) { return d.width, d.height }

// Resize changes the surface size. A zero dimension makes AcquireSurface
// report gfx.ErrSurfaceUnavailable until the next non-zero Resize.
func (d *Device) Resize(w, h int) error {
	if w == d.width && h == d.height {
		return nil
	}
	d.width, d.height = w, h
	if d.offscreen != nil {
		d.Release(d.offscreen)
		d.offscreen = nil
	}
	if d.surface != nil && w > 0 && h > 0 {
		return d.configure()
	}
	return nil
}

func (d *Device) configure() error {
	err := d.surface.Configure(d.hal, &hal.SurfaceConfiguration{
		Width:       uint32(d.width),
		Height:      uint32(d.height),
		Format:      d.info.SurfaceFormat,
		Usage:       gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopyDst,
		PresentMode: d.presentMode,
		AlphaMode:   gputypes.CompositeAlphaModeOpaque,
	})
	if err != nil {
		return fmt.Errorf("wgpu: configure surface %dx%d: %w", d.width, d.height, err)
	}
	return nil
}

// AcquireSurface implements gfx.Device. Headless devices return their
// offscreen target. An outdated or lost swapchain is reconfigured and the
// frame reported unavailable.
func (d *Device) AcquireSurface() (gfx.Texture, error) {
	if d.width <= 0 || d.height <= 0 {
		return nil, gfx.ErrSurfaceUnavailable
	}
	if d.surface == nil {
		if d.offscreen == nil {
			t, err := d.newTexture("offscreen", d.width, d.height, d.info.SurfaceFormat)
			if err != nil {
				return nil, err
			}
			d.offscreen = t
		}
		return d.offscreen, nil
	}

	acq, err := d.surface.AcquireTexture(nil)
	switch {
	case errors.Is(err, hal.ErrSurfaceOutdated), errors.Is(err, hal.ErrSurfaceLost):
		brine2d.Logger().Debug("wgpu: reconfiguring surface", "err", err)
		if cerr := d.configure(); cerr != nil {
			return nil, cerr
		}
		return nil, gfx.ErrSurfaceUnavailable
	case errors.Is(err, hal.ErrTimeout), errors.Is(err, hal.ErrNotReady):
		return nil, gfx.ErrSurfaceUnavailable
	case err != nil:
		return nil, fmt.Errorf("wgpu: acquire surface: %w", err)
	}
	if acq.Suboptimal {
		brine2d.Logger().Debug("wgpu: suboptimal surface")
	}

	view, err := d.hal.CreateTextureView(acq.Texture, &hal.TextureViewDescriptor{
		Label:         "surface_view",
		Format:        d.info.SurfaceFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.surface.DiscardTexture(acq.Texture)
		return nil, fmt.Errorf("wgpu: surface view: %w", err)
	}
	d.acquired = acq
	d.frameTex = &Texture{
		label:   "surface",
		raw:     acq.Texture,
		view:    view,
		w:       d.width,
		h:       d.height,
		format:  d.info.SurfaceFormat,
		surface: true,
	}
	return d.frameTex, nil
}

// endSurfaceFrame presents or discards the acquired surface texture.
func (d *Device) endSurfaceFrame(present bool) error {
	if d.acquired == nil {
		return nil
	}
	acq, tex := d.acquired, d.frameTex
	d.acquired, d.frameTex = nil, nil
	d.forgetGroups(func(k groupKey) bool { return k.tex == tex })
	d.hal.DestroyTextureView(tex.view)
	if !present {
		d.surface.DiscardTexture(acq.Texture)
		return nil
	}
	if err := d.queue.Present(d.surface, acq.Texture, nil); err != nil {
		return fmt.Errorf("wgpu: present: %w", err)
	}
	return nil
}

// BeginCommands implements gfx.Device.
func (d *Device) BeginCommands() (gfx.Encoder, error) {
	d.reclaim(false)
	raw, err := d.hal.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "brine2d_frame"})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := raw.BeginEncoding("brine2d_frame"); err != nil {
		raw.Destroy()
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	d.recording = true
	return &Encoder{dev: d, raw: raw}, nil
}

// later runs fn once the GPU can no longer be using the resource: right
// away when no frame is being recorded, otherwise after the frame's
// submission completes.
func (d *Device) later(fn func()) {
	if d.recording {
		d.pending = append(d.pending, fn)
		return
	}
	fn()
}

// reclaim frees resources of completed submissions. With wait set it
// blocks until the queue is idle first.
func (d *Device) reclaim(wait bool) {
	if wait {
		if err := d.hal.WaitIdle(); err != nil {
			brine2d.Logger().Warn("wgpu: wait idle failed", "err", err)
		}
	}
	done := d.queue.PollCompleted()
	kept := d.inflight[:0]
	for _, r := range d.inflight {
		if !wait && r.index > done {
			kept = append(kept, r)
			continue
		}
		for _, fn := range r.cleanup {
			fn()
		}
		if r.cmd != nil {
			d.hal.FreeCommandBuffer(r.cmd)
		}
	}
	d.inflight = kept
}

// Destroy implements gfx.Device. It waits for the GPU, then releases
// everything the Device created, and the HAL device itself when it was
// opened by Open.
func (d *Device) Destroy() {
	d.recording = false
	d.reclaim(true)
	for _, fn := range d.pending {
		fn()
	}
	d.pending = nil
	if d.acquired != nil {
		_ = d.endSurfaceFrame(false)
	}
	if d.offscreen != nil {
		d.Release(d.offscreen)
		d.offscreen = nil
	}
	if d.blitSampler != nil {
		d.Release(d.blitSampler)
		d.blitSampler = nil
	}
	d.destroyOwned()
}

func (d *Device) destroyOwned() {
	for k, g := range d.groups {
		d.hal.DestroyBindGroup(g)
		delete(d.groups, k)
	}
	for k, b := range d.viewports {
		d.hal.DestroyBuffer(b)
		delete(d.viewports, k)
	}
	if d.pipeLayout != nil {
		d.hal.DestroyPipelineLayout(d.pipeLayout)
		d.pipeLayout = nil
	}
	if d.layout != nil {
		d.hal.DestroyBindGroupLayout(d.layout)
		d.layout = nil
	}
	if !d.owned {
		return
	}
	if d.surface != nil {
		d.surface.Unconfigure(d.hal)
		d.surface.Destroy()
		d.surface = nil
	}
	d.hal.Destroy()
	if d.halAdapter != nil {
		d.halAdapter.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
	}
	d.owned = false
}
