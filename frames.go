package vitamin

import (
	vk "github.com/vulkan-go/vulkan"
	lin "github.com/xlab/linmath"
)

// frameQueue is the slot level view of the GPU the pacer drives. Slots index
// the per-frame sync objects, images index the swapchain.
type frameQueue interface {
	// WaitFrame blocks until the slot's fence is signaled.
	WaitFrame(slot int) error
	// ResetFrame unsignals the slot's fence ahead of a submit.
	ResetFrame(slot int) error
	// AcquireImage gets the next image, signaling the slot's image
	// available semaphore.
	AcquireImage(slot int) (uint32, error)
	// SubmitFrame submits the image's recorded commands, signaling the
	// slot's render finished semaphore and fence.
	SubmitFrame(slot int, image uint32) error
	// PresentFrame queues the image after render finished.
	PresentFrame(slot int, image uint32) error
	WaitIdle() error
	// Rebuild replaces the swapchain generation and reports its image count.
	Rebuild() (int, error)
}

// swapchainFrames owns the swapchain generation: the chain with its views,
// framebuffers and command buffers. The render pass and pipeline are kept
// across generations unless the surface format changes.
type swapchainFrames struct {
	driver    Driver
	sync      *frameSync
	pool      *CommandPool
	window    Window
	surface   vk.Surface
	queues    QueueFamilyIndices
	pipelines PipelineProvider

	// querySupport re-reads the surface before each generation.
	querySupport func() (SurfaceSupport, error)
	preferred    vk.SurfaceFormat
	vsync        bool
	clear        lin.Vec4

	pass         vk.RenderPass
	passFormat   vk.Format
	pipeline     Pipeline
	swapchain    *Swapchain
	framebuffers *Framebuffers
	commands     *CommandBuffers
}

func (f *swapchainFrames) WaitFrame(slot int) error {
	return f.driver.WaitForFence(f.sync.inFlight[slot])
}

func (f *swapchainFrames) ResetFrame(slot int) error {
	return f.driver.ResetFence(f.sync.inFlight[slot])
}

func (f *swapchainFrames) AcquireImage(slot int) (uint32, error) {
	return f.driver.AcquireNextImage(f.swapchain.Handle, f.sync.imageAvailable[slot])
}

func (f *swapchainFrames) SubmitFrame(slot int, image uint32) error {
	return f.driver.QueueSubmit(vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{f.sync.imageAvailable[slot]},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{f.commands.Buffers[image]},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{f.sync.renderFinished[slot]},
	}, f.sync.inFlight[slot])
}

func (f *swapchainFrames) PresentFrame(slot int, image uint32) error {
	return f.driver.QueuePresent(&vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{f.sync.renderFinished[slot]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{f.swapchain.Handle},
		PImageIndices:      []uint32{image},
	})
}

func (f *swapchainFrames) WaitIdle() error {
	return f.driver.WaitIdle()
}

// Rebuild drains the device, waits out a minimized window and replaces the
// generation, handing the old chain over to the new one. On failure the
// partial generation is torn down and the frames are left safe to Destroy.
// Closing the window during the wait returns ErrWindowClosed with the old
// generation untouched.
func (f *swapchainFrames) Rebuild() (int, error) {
	if err := f.driver.WaitIdle(); err != nil {
		return 0, kindf(ErrSwapchainCreate, err, "wait idle before rebuild")
	}
	for {
		w, h := f.window.DrawableSize()
		if w > 0 && h > 0 {
			break
		}
		if f.window.ShouldClose() {
			return 0, kindf(ErrWindowClosed, nil, "window closed while minimized")
		}
		f.window.WaitEvents()
	}

	f.destroyTargets()
	old := vk.NullSwapchain
	if f.swapchain != nil {
		old = f.swapchain.Release()
		f.swapchain = nil
	}
	if err := f.build(old); err != nil {
		return 0, err
	}
	Logger().Info("swapchain rebuilt", "images", f.swapchain.ImageCount(),
		"width", f.swapchain.Config.Extent.Width, "height", f.swapchain.Config.Extent.Height)
	return f.swapchain.ImageCount(), nil
}

// build creates a generation. old, when not null, is consumed.
func (f *swapchainFrames) build(old vk.Swapchain) error {
	support, err := f.querySupport()
	if err != nil {
		if old != vk.NullSwapchain {
			f.driver.DestroySwapchain(old)
		}
		return kindf(ErrSwapchainCreate, err, "query surface support")
	}
	w, h := f.window.DrawableSize()
	drawable := vk.Extent2D{Width: uint32(w), Height: uint32(h)}
	cfg, err := NegotiateSwapchain(support, drawable, f.queues, f.preferred, f.vsync)
	if err != nil {
		if old != vk.NullSwapchain {
			f.driver.DestroySwapchain(old)
		}
		return err
	}

	swapchain, err := CreateSwapchain(f.driver, f.surface, cfg, old)
	if err != nil {
		return err
	}
	f.swapchain = swapchain

	if err := f.ensurePass(cfg); err != nil {
		f.destroyGeneration()
		return err
	}

	f.framebuffers, err = CreateFramebuffers(f.driver, f.pass, swapchain.Views.Views, cfg.Extent)
	if err != nil {
		f.destroyGeneration()
		return err
	}

	f.commands, err = RecordCommands(f.driver, f.pool.Handle, f.framebuffers.Handles, RenderTarget{
		Pass:     f.pass,
		Pipeline: f.pipeline.Handle(),
		Extent:   cfg.Extent,
		Clear:    f.clear,
	})
	if err != nil {
		f.destroyGeneration()
		return err
	}
	return nil
}

// ensurePass (re)creates the render pass and pipeline when the format differs
// from the one they were built for.
func (f *swapchainFrames) ensurePass(cfg SwapchainConfig) error {
	if f.pipeline != nil && f.passFormat == cfg.Format.Format {
		return nil
	}
	f.destroyPass()

	pass, err := CreateRenderPass(f.driver, cfg.Format.Format)
	if err != nil {
		return err
	}
	pipeline, err := f.pipelines.CreatePipeline(f.driver, pass, cfg.Extent)
	if err != nil {
		f.driver.DestroyRenderPass(pass)
		return err
	}
	f.pass, f.passFormat, f.pipeline = pass, cfg.Format.Format, pipeline
	return nil
}

func (f *swapchainFrames) destroyTargets() {
	if f.commands != nil {
		f.commands.Destroy()
		f.commands = nil
	}
	if f.framebuffers != nil {
		f.framebuffers.Destroy()
		f.framebuffers = nil
	}
}

func (f *swapchainFrames) destroyGeneration() {
	f.destroyTargets()
	if f.swapchain != nil {
		f.swapchain.Destroy()
		f.swapchain = nil
	}
}

func (f *swapchainFrames) destroyPass() {
	if f.pipeline != nil {
		f.pipeline.Destroy()
		f.pipeline = nil
	}
	if f.pass != vk.NullRenderPass {
		f.driver.DestroyRenderPass(f.pass)
		f.pass = vk.NullRenderPass
	}
}

// Destroy releases the generation, then the pipeline and render pass. The
// device must be idle.
func (f *swapchainFrames) Destroy() {
	f.destroyTargets()
	f.destroyPass()
	if f.swapchain != nil {
		f.swapchain.Destroy()
		f.swapchain = nil
	}
}
