package vitamin

import (
	vk "github.com/vulkan-go/vulkan"
)

// Driver is every device-level Vulkan call the presentation core makes.
// DeviceDriver implements it over vulkan-go; tests substitute a recorder.
type Driver interface {
	CreateSwapchain(info *vk.SwapchainCreateInfo) (vk.Swapchain, error)
	DestroySwapchain(swapchain vk.Swapchain)
	SwapchainImages(swapchain vk.Swapchain) ([]vk.Image, error)

	CreateImageView(info *vk.ImageViewCreateInfo) (vk.ImageView, error)
	DestroyImageView(view vk.ImageView)

	CreateRenderPass(info *vk.RenderPassCreateInfo) (vk.RenderPass, error)
	DestroyRenderPass(pass vk.RenderPass)
	CreateFramebuffer(info *vk.FramebufferCreateInfo) (vk.Framebuffer, error)
	DestroyFramebuffer(framebuffer vk.Framebuffer)

	CreateShaderModule(code []byte) (vk.ShaderModule, error)
	DestroyShaderModule(module vk.ShaderModule)
	CreatePipelineLayout(info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error)
	DestroyPipelineLayout(layout vk.PipelineLayout)
	CreateGraphicsPipeline(info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error)
	DestroyPipeline(pipeline vk.Pipeline)

	CreateCommandPool(queueFamily uint32) (vk.CommandPool, error)
	DestroyCommandPool(pool vk.CommandPool)
	AllocateCommandBuffers(pool vk.CommandPool, count int) ([]vk.CommandBuffer, error)
	FreeCommandBuffers(pool vk.CommandPool, buffers []vk.CommandBuffer)
	ResetCommandBuffer(cmd vk.CommandBuffer) error
	BeginCommandBuffer(cmd vk.CommandBuffer) error
	EndCommandBuffer(cmd vk.CommandBuffer) error
	CmdBeginRenderPass(cmd vk.CommandBuffer, info *vk.RenderPassBeginInfo)
	CmdBindPipeline(cmd vk.CommandBuffer, pipeline vk.Pipeline)
	CmdSetViewport(cmd vk.CommandBuffer, viewport vk.Viewport)
	CmdSetScissor(cmd vk.CommandBuffer, scissor vk.Rect2D)
	CmdDraw(cmd vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32)
	CmdEndRenderPass(cmd vk.CommandBuffer)

	CreateSemaphore() (vk.Semaphore, error)
	DestroySemaphore(semaphore vk.Semaphore)
	CreateFence(signaled bool) (vk.Fence, error)
	DestroyFence(fence vk.Fence)
	WaitForFence(fence vk.Fence) error
	ResetFence(fence vk.Fence) error

	// AcquireNextImage blocks until an image is available. A suboptimal
	// swapchain still yields an image; an out of date one yields
	// ErrSurfaceOutOfDate.
	AcquireNextImage(swapchain vk.Swapchain, signal vk.Semaphore) (uint32, error)
	// QueueSubmit submits to the graphics queue.
	QueueSubmit(info vk.SubmitInfo, fence vk.Fence) error
	// QueuePresent presents on the present queue. Out of date and suboptimal
	// both yield ErrSurfaceOutOfDate.
	QueuePresent(info *vk.PresentInfo) error
	// WaitIdle blocks until the device has no outstanding work.
	WaitIdle() error
}

// DeviceDriver is the vulkan-go Driver bound to one logical device and its
// graphics and present queues.
type DeviceDriver struct {
	device        vk.Device
	graphicsQueue vk.Queue
	presentQueue  vk.Queue
}

func NewDeviceDriver(device vk.Device, graphicsQueue, presentQueue vk.Queue) *DeviceDriver {
	return &DeviceDriver{
		device:        device,
		graphicsQueue: graphicsQueue,
		presentQueue:  presentQueue,
	}
}

func (d *DeviceDriver) Device() vk.Device {
	return d.device
}

func (d *DeviceDriver) CreateSwapchain(info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	var swapchain vk.Swapchain
	ret := vk.CreateSwapchain(d.device, info, nil, &swapchain)
	return swapchain, newError(ret)
}

func (d *DeviceDriver) DestroySwapchain(swapchain vk.Swapchain) {
	vk.DestroySwapchain(d.device, swapchain, nil)
}

func (d *DeviceDriver) SwapchainImages(swapchain vk.Swapchain) ([]vk.Image, error) {
	var count uint32
	ret := vk.GetSwapchainImages(d.device, swapchain, &count, nil)
	if isError(ret) {
		return nil, newError(ret)
	}
	images := make([]vk.Image, count)
	ret = vk.GetSwapchainImages(d.device, swapchain, &count, images)
	if isError(ret) {
		return nil, newError(ret)
	}
	return images[:count], nil
}

func (d *DeviceDriver) CreateImageView(info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	var view vk.ImageView
	ret := vk.CreateImageView(d.device, info, nil, &view)
	return view, newError(ret)
}

func (d *DeviceDriver) DestroyImageView(view vk.ImageView) {
	vk.DestroyImageView(d.device, view, nil)
}

func (d *DeviceDriver) CreateRenderPass(info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	var pass vk.RenderPass
	ret := vk.CreateRenderPass(d.device, info, nil, &pass)
	return pass, newError(ret)
}

func (d *DeviceDriver) DestroyRenderPass(pass vk.RenderPass) {
	vk.DestroyRenderPass(d.device, pass, nil)
}

func (d *DeviceDriver) CreateFramebuffer(info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	var framebuffer vk.Framebuffer
	ret := vk.CreateFramebuffer(d.device, info, nil, &framebuffer)
	return framebuffer, newError(ret)
}

func (d *DeviceDriver) DestroyFramebuffer(framebuffer vk.Framebuffer) {
	vk.DestroyFramebuffer(d.device, framebuffer, nil)
}

func (d *DeviceDriver) CreateShaderModule(code []byte) (vk.ShaderModule, error) {
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(d.device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32(code),
	}, nil, &module)
	return module, newError(ret)
}

func (d *DeviceDriver) DestroyShaderModule(module vk.ShaderModule) {
	vk.DestroyShaderModule(d.device, module, nil)
}

func (d *DeviceDriver) CreatePipelineLayout(info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	var layout vk.PipelineLayout
	ret := vk.CreatePipelineLayout(d.device, info, nil, &layout)
	return layout, newError(ret)
}

func (d *DeviceDriver) DestroyPipelineLayout(layout vk.PipelineLayout) {
	vk.DestroyPipelineLayout(d.device, layout, nil)
}

func (d *DeviceDriver) CreateGraphicsPipeline(info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	pipelines := []vk.Pipeline{vk.NullPipeline}
	ret := vk.CreateGraphicsPipelines(d.device, vk.PipelineCache(vk.NullHandle), 1,
		[]vk.GraphicsPipelineCreateInfo{*info}, nil, pipelines)
	return pipelines[0], newError(ret)
}

func (d *DeviceDriver) DestroyPipeline(pipeline vk.Pipeline) {
	vk.DestroyPipeline(d.device, pipeline, nil)
}

func (d *DeviceDriver) CreateCommandPool(queueFamily uint32) (vk.CommandPool, error) {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(d.device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: queueFamily,
		// ResetCommandBufferBit allows command buffers to be reset individually.
		Flags: vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &pool)
	return pool, newError(ret)
}

func (d *DeviceDriver) DestroyCommandPool(pool vk.CommandPool) {
	vk.DestroyCommandPool(d.device, pool, nil)
}

func (d *DeviceDriver) AllocateCommandBuffers(pool vk.CommandPool, count int) ([]vk.CommandBuffer, error) {
	buffers := make([]vk.CommandBuffer, count)
	ret := vk.AllocateCommandBuffers(d.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}, buffers)
	if isError(ret) {
		return nil, newError(ret)
	}
	return buffers, nil
}

func (d *DeviceDriver) FreeCommandBuffers(pool vk.CommandPool, buffers []vk.CommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	vk.FreeCommandBuffers(d.device, pool, uint32(len(buffers)), buffers)
}

func (d *DeviceDriver) ResetCommandBuffer(cmd vk.CommandBuffer) error {
	return newError(vk.ResetCommandBuffer(cmd,
		vk.CommandBufferResetFlags(vk.CommandBufferResetReleaseResourcesBit)))
}

func (d *DeviceDriver) BeginCommandBuffer(cmd vk.CommandBuffer) error {
	return newError(vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}))
}

func (d *DeviceDriver) EndCommandBuffer(cmd vk.CommandBuffer) error {
	return newError(vk.EndCommandBuffer(cmd))
}

func (d *DeviceDriver) CmdBeginRenderPass(cmd vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	vk.CmdBeginRenderPass(cmd, info, vk.SubpassContentsInline)
}

func (d *DeviceDriver) CmdBindPipeline(cmd vk.CommandBuffer, pipeline vk.Pipeline) {
	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, pipeline)
}

func (d *DeviceDriver) CmdSetViewport(cmd vk.CommandBuffer, viewport vk.Viewport) {
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{viewport})
}

func (d *DeviceDriver) CmdSetScissor(cmd vk.CommandBuffer, scissor vk.Rect2D) {
	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{scissor})
}

func (d *DeviceDriver) CmdDraw(cmd vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(cmd, vertexCount, instanceCount, firstVertex, firstInstance)
}

func (d *DeviceDriver) CmdEndRenderPass(cmd vk.CommandBuffer) {
	vk.CmdEndRenderPass(cmd)
}

func (d *DeviceDriver) CreateSemaphore() (vk.Semaphore, error) {
	var semaphore vk.Semaphore
	ret := vk.CreateSemaphore(d.device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &semaphore)
	return semaphore, newError(ret)
}

func (d *DeviceDriver) DestroySemaphore(semaphore vk.Semaphore) {
	vk.DestroySemaphore(d.device, semaphore, nil)
}

func (d *DeviceDriver) CreateFence(signaled bool) (vk.Fence, error) {
	info := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	ret := vk.CreateFence(d.device, &info, nil, &fence)
	return fence, newError(ret)
}

func (d *DeviceDriver) DestroyFence(fence vk.Fence) {
	vk.DestroyFence(d.device, fence, nil)
}

func (d *DeviceDriver) WaitForFence(fence vk.Fence) error {
	return newError(vk.WaitForFences(d.device, 1, []vk.Fence{fence}, vk.True, vk.MaxUint64))
}

func (d *DeviceDriver) ResetFence(fence vk.Fence) error {
	return newError(vk.ResetFences(d.device, 1, []vk.Fence{fence}))
}

func (d *DeviceDriver) AcquireNextImage(swapchain vk.Swapchain, signal vk.Semaphore) (uint32, error) {
	var index uint32
	ret := vk.AcquireNextImage(d.device, swapchain, vk.MaxUint64, signal, vk.Fence(vk.NullHandle), &index)
	switch ret {
	case vk.Success, vk.Suboptimal:
		return index, nil
	case vk.ErrorOutOfDate:
		return 0, ErrSurfaceOutOfDate
	}
	return 0, newError(ret)
}

func (d *DeviceDriver) QueueSubmit(info vk.SubmitInfo, fence vk.Fence) error {
	return newError(vk.QueueSubmit(d.graphicsQueue, 1, []vk.SubmitInfo{info}, fence))
}

func (d *DeviceDriver) QueuePresent(info *vk.PresentInfo) error {
	ret := vk.QueuePresent(d.presentQueue, info)
	switch ret {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return ErrSurfaceOutOfDate
	}
	return newError(ret)
}

func (d *DeviceDriver) WaitIdle() error {
	return newError(vk.DeviceWaitIdle(d.device))
}
