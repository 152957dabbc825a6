package vitamin

import (
	vk "github.com/vulkan-go/vulkan"
	lin "github.com/xlab/linmath"
)

// CommandPool allocates buffers for the graphics queue family. Buffers can be
// reset individually.
type CommandPool struct {
	driver Driver
	Handle vk.CommandPool
}

func NewCommandPool(d Driver, graphicsFamily uint32) (*CommandPool, error) {
	pool, err := d.CreateCommandPool(graphicsFamily)
	if err != nil {
		return nil, kindf(ErrSetup, err, "create command pool for family %d", graphicsFamily)
	}
	return &CommandPool{driver: d, Handle: pool}, nil
}

func (p *CommandPool) Destroy() {
	if p.Handle != vk.CommandPool(vk.NullHandle) {
		p.driver.DestroyCommandPool(p.Handle)
		p.Handle = vk.CommandPool(vk.NullHandle)
	}
}

// CommandBuffers holds one pre-recorded primary buffer per framebuffer,
// indexed by swapchain image.
type CommandBuffers struct {
	driver  Driver
	pool    vk.CommandPool
	Buffers []vk.CommandBuffer
}

// RenderTarget is what every recorded buffer draws into.
type RenderTarget struct {
	Pass     vk.RenderPass
	Pipeline vk.Pipeline
	Extent   vk.Extent2D
	Clear    lin.Vec4
}

// RecordCommands records a clear and a 3 vertex draw into one buffer per
// framebuffer. If any buffer fails to record, all buffers recorded so far
// are reset and the batch is freed.
func RecordCommands(d Driver, pool vk.CommandPool, framebuffers []vk.Framebuffer, target RenderTarget) (*CommandBuffers, error) {
	buffers, err := d.AllocateCommandBuffers(pool, len(framebuffers))
	if err != nil {
		return nil, kindf(ErrCommandRecord, err, "allocate %d command buffers", len(framebuffers))
	}
	batch := &CommandBuffers{driver: d, pool: pool, Buffers: buffers}

	for i, framebuffer := range framebuffers {
		if err := record(d, buffers[i], framebuffer, target); err != nil {
			for _, cmd := range buffers[:i+1] {
				if rerr := d.ResetCommandBuffer(cmd); rerr != nil {
					Logger().Warn("command buffer reset failed", "error", rerr)
				}
			}
			batch.Destroy()
			return nil, kindf(ErrCommandRecord, err, "record command buffer %d of %d", i, len(framebuffers))
		}
	}
	Logger().Debug("command buffers recorded", "count", len(buffers))
	return batch, nil
}

func record(d Driver, cmd vk.CommandBuffer, framebuffer vk.Framebuffer, target RenderTarget) error {
	if err := d.BeginCommandBuffer(cmd); err != nil {
		return err
	}
	area := vk.Rect2D{Extent: target.Extent}
	clear := target.Clear
	d.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      target.Pass,
		Framebuffer:     framebuffer,
		RenderArea:      area,
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{vk.NewClearValue(clear[:])},
	})
	d.CmdBindPipeline(cmd, target.Pipeline)
	d.CmdSetViewport(cmd, vk.Viewport{
		Width:    float32(target.Extent.Width),
		Height:   float32(target.Extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	d.CmdSetScissor(cmd, area)
	d.CmdDraw(cmd, 3, 1, 0, 0)
	d.CmdEndRenderPass(cmd)
	return d.EndCommandBuffer(cmd)
}

func (b *CommandBuffers) Destroy() {
	if len(b.Buffers) > 0 {
		b.driver.FreeCommandBuffers(b.pool, b.Buffers)
	}
	b.Buffers = nil
}
