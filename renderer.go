package vitamin

import (
	vk "github.com/vulkan-go/vulkan"
)

// Renderer owns every Vulkan object from the instance down to the per-frame
// sync objects. Objects are created in dependency order and destroyed in
// reverse.
type Renderer struct {
	cfg    Config
	window Window

	instance  *Instance
	surface   vk.Surface
	selection Selection
	device    *LogicalDevice
	driver    *DeviceDriver
	pool      *CommandPool
	frames    *swapchainFrames
	sync      *frameSync
	pacer     *FramePacer
}

// NewRenderer builds the presentation pipeline for window. pipelines
// defaults to a ShaderPipeline over cfg.ShaderDir. On failure everything
// built so far is released.
func NewRenderer(cfg Config, window Window, pipelines PipelineProvider) (r *Renderer, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, kindf(ErrSetup, err, "invalid config")
	}
	if pipelines == nil {
		pipelines = ShaderPipeline{Dir: cfg.ShaderDir}
	}

	r = &Renderer{cfg: cfg, window: window}
	defer func() {
		if err != nil {
			r.destroy()
			r = nil
		}
	}()
	defer checkErr(&err)

	if r.instance, err = CreateInstance(cfg, window); err != nil {
		return r, err
	}
	if r.surface, err = window.CreateSurface(r.instance.Handle); err != nil {
		return r, kindf(ErrSetup, err, "create surface")
	}

	candidates, err := ProbeDevices(r.instance.Handle, r.surface)
	if err != nil {
		return r, err
	}
	req := Requirements{
		Extensions: cfg.DeviceExtensions,
		Layers:     r.instance.Layers,
	}
	r.selection, err = SelectDevice(candidates, req)
	ReportDevices(Logger(), r.selection)
	if err != nil {
		return r, err
	}

	if r.device, err = CreateLogicalDevice(r.selection, req); err != nil {
		return r, err
	}
	r.driver = NewDeviceDriver(r.device.Handle, r.device.Graphics, r.device.Present)

	graphics, _ := r.device.Queues.Graphics()
	if r.pool, err = NewCommandPool(r.driver, graphics); err != nil {
		return r, err
	}

	gpu, surface := r.selection.Device().Candidate.Handle, r.surface
	r.frames = &swapchainFrames{
		driver:    r.driver,
		pool:      r.pool,
		window:    window,
		surface:   surface,
		queues:    r.device.Queues,
		pipelines: pipelines,
		querySupport: func() (SurfaceSupport, error) {
			return querySurfaceSupport(gpu, surface)
		},
		preferred: cfg.PreferredFormat,
		vsync:     cfg.VSync,
		clear:     cfg.ClearColor,
	}
	if err = r.frames.build(vk.NullSwapchain); err != nil {
		return r, err
	}

	if r.sync, err = newFrameSync(r.driver, MaxFramesInFlight); err != nil {
		return r, err
	}
	r.frames.sync = r.sync
	r.pacer = newFramePacer(r.frames, r.frames.swapchain.ImageCount())
	return r, nil
}

// DrawFrame renders and presents one frame.
func (r *Renderer) DrawFrame() error {
	return r.pacer.DrawFrame()
}

// Resize marks the swapchain stale. It is rebuilt after the next frame.
func (r *Renderer) Resize() {
	r.pacer.Invalidate()
}

// Selection reports how every probed device ranked and which one was picked.
func (r *Renderer) Selection() Selection {
	return r.selection
}

// Stats returns the frame timings recorded by the pacer.
func (r *Renderer) Stats() FrameStats {
	return r.pacer.Stats()
}

// Close waits for the device to go idle and releases everything.
func (r *Renderer) Close() error {
	var err error
	if r.pacer != nil {
		err = r.pacer.Close()
	}
	r.destroy()
	return err
}

func (r *Renderer) destroy() {
	if r.driver != nil {
		if err := r.driver.WaitIdle(); err != nil {
			Logger().Warn("wait idle before destroy", "error", err)
		}
	}
	if r.sync != nil {
		r.sync.Destroy()
		r.sync = nil
	}
	if r.frames != nil {
		r.frames.Destroy()
		r.frames = nil
	}
	if r.pool != nil {
		r.pool.Destroy()
		r.pool = nil
	}
	if r.device != nil {
		r.device.Destroy()
		r.device = nil
		r.driver = nil
	}
	if r.surface != vk.NullSurface {
		vk.DestroySurface(r.instance.Handle, r.surface, nil)
		r.surface = vk.NullSurface
	}
	if r.instance != nil {
		r.instance.Destroy()
		r.instance = nil
	}
	Logger().Info("renderer destroyed")
}
