package vitamin

import (
	"fmt"
	"sort"
	"testing"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

var errFake = errors.New("fake driver failure")

// fakeDriver records calls and tracks live objects. Handles are unique
// non-null pointers that are never passed to Vulkan.
type fakeDriver struct {
	live   map[unsafe.Pointer]string
	calls  map[string]int
	failOn map[string]int
	misuse []string
	chains map[vk.Swapchain][]vk.Image

	images         int
	swapchainInfos []vk.SwapchainCreateInfo
	commands       []string
	submits        []vk.SubmitInfo
	presents       []vk.PresentInfo
	acquireErr     error
	presentErr     error
	nextImage      uint32
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		live:   make(map[unsafe.Pointer]string),
		calls:  make(map[string]int),
		failOn: make(map[string]int),
		chains: make(map[vk.Swapchain][]vk.Image),
		images: 3,
	}
}

// failAt makes the nth call (1 based) of name fail.
func (f *fakeDriver) failAt(name string, n int) {
	f.failOn[name] = n
}

func (f *fakeDriver) call(name string) error {
	f.calls[name]++
	if n, ok := f.failOn[name]; ok && n == f.calls[name] {
		return errors.Wrap(errFake, name)
	}
	return nil
}

func (f *fakeDriver) create(kind string) unsafe.Pointer {
	p := unsafe.Pointer(new(uint64))
	f.live[p] = kind
	return p
}

func (f *fakeDriver) destroy(kind string, p unsafe.Pointer) {
	f.calls["Destroy"+kind]++
	got, ok := f.live[p]
	switch {
	case !ok:
		f.misuse = append(f.misuse, fmt.Sprintf("destroy unknown or dead %s %p", kind, p))
	case got != kind:
		f.misuse = append(f.misuse, fmt.Sprintf("destroy %s %p as %s", got, p, kind))
	default:
		delete(f.live, p)
	}
}

func (f *fakeDriver) count(kind string) int {
	n := 0
	for _, k := range f.live {
		if k == kind {
			n++
		}
	}
	return n
}

func (f *fakeDriver) verify(t *testing.T) {
	t.Helper()
	for _, m := range f.misuse {
		t.Error(m)
	}
}

// verifyClean fails the test if anything is still alive.
func (f *fakeDriver) verifyClean(t *testing.T) {
	t.Helper()
	f.verify(t)
	var kinds []string
	for _, k := range f.live {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	if len(kinds) > 0 {
		t.Errorf("leaked objects: %v", kinds)
	}
}

func (f *fakeDriver) CreateSwapchain(info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	f.swapchainInfos = append(f.swapchainInfos, *info)
	if err := f.call("CreateSwapchain"); err != nil {
		return vk.NullSwapchain, err
	}
	return vk.Swapchain(f.create("Swapchain")), nil
}

func (f *fakeDriver) DestroySwapchain(swapchain vk.Swapchain) {
	for _, image := range f.chains[swapchain] {
		delete(f.live, unsafe.Pointer(image))
	}
	delete(f.chains, swapchain)
	f.destroy("Swapchain", unsafe.Pointer(swapchain))
}

func (f *fakeDriver) SwapchainImages(swapchain vk.Swapchain) ([]vk.Image, error) {
	if err := f.call("SwapchainImages"); err != nil {
		return nil, err
	}
	images := make([]vk.Image, f.images)
	for i := range images {
		images[i] = vk.Image(f.create("Image"))
	}
	f.chains[swapchain] = images
	return images, nil
}

func (f *fakeDriver) CreateImageView(info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	if err := f.call("CreateImageView"); err != nil {
		return vk.NullImageView, err
	}
	return vk.ImageView(f.create("ImageView")), nil
}

func (f *fakeDriver) DestroyImageView(view vk.ImageView) {
	f.destroy("ImageView", unsafe.Pointer(view))
}

func (f *fakeDriver) CreateRenderPass(info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	if err := f.call("CreateRenderPass"); err != nil {
		return vk.NullRenderPass, err
	}
	return vk.RenderPass(f.create("RenderPass")), nil
}

func (f *fakeDriver) DestroyRenderPass(pass vk.RenderPass) {
	f.destroy("RenderPass", unsafe.Pointer(pass))
}

func (f *fakeDriver) CreateFramebuffer(info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	if err := f.call("CreateFramebuffer"); err != nil {
		return vk.Framebuffer(vk.NullHandle), err
	}
	return vk.Framebuffer(f.create("Framebuffer")), nil
}

func (f *fakeDriver) DestroyFramebuffer(framebuffer vk.Framebuffer) {
	f.destroy("Framebuffer", unsafe.Pointer(framebuffer))
}

func (f *fakeDriver) CreateShaderModule(code []byte) (vk.ShaderModule, error) {
	if err := f.call("CreateShaderModule"); err != nil {
		return vk.NullShaderModule, err
	}
	return vk.ShaderModule(f.create("ShaderModule")), nil
}

func (f *fakeDriver) DestroyShaderModule(module vk.ShaderModule) {
	f.destroy("ShaderModule", unsafe.Pointer(module))
}

func (f *fakeDriver) CreatePipelineLayout(info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	if err := f.call("CreatePipelineLayout"); err != nil {
		return vk.NullPipelineLayout, err
	}
	return vk.PipelineLayout(f.create("PipelineLayout")), nil
}

func (f *fakeDriver) DestroyPipelineLayout(layout vk.PipelineLayout) {
	f.destroy("PipelineLayout", unsafe.Pointer(layout))
}

func (f *fakeDriver) CreateGraphicsPipeline(info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	if err := f.call("CreateGraphicsPipeline"); err != nil {
		return vk.NullPipeline, err
	}
	return vk.Pipeline(f.create("Pipeline")), nil
}

func (f *fakeDriver) DestroyPipeline(pipeline vk.Pipeline) {
	f.destroy("Pipeline", unsafe.Pointer(pipeline))
}

func (f *fakeDriver) CreateCommandPool(queueFamily uint32) (vk.CommandPool, error) {
	if err := f.call("CreateCommandPool"); err != nil {
		return vk.CommandPool(vk.NullHandle), err
	}
	return vk.CommandPool(f.create("CommandPool")), nil
}

func (f *fakeDriver) DestroyCommandPool(pool vk.CommandPool) {
	f.destroy("CommandPool", unsafe.Pointer(pool))
}

func (f *fakeDriver) AllocateCommandBuffers(pool vk.CommandPool, count int) ([]vk.CommandBuffer, error) {
	if err := f.call("AllocateCommandBuffers"); err != nil {
		return nil, err
	}
	buffers := make([]vk.CommandBuffer, count)
	for i := range buffers {
		buffers[i] = vk.CommandBuffer(f.create("CommandBuffer"))
	}
	return buffers, nil
}

func (f *fakeDriver) FreeCommandBuffers(pool vk.CommandPool, buffers []vk.CommandBuffer) {
	f.calls["FreeCommandBuffers"]++
	for _, cmd := range buffers {
		f.destroy("CommandBuffer", unsafe.Pointer(cmd))
	}
}

func (f *fakeDriver) ResetCommandBuffer(cmd vk.CommandBuffer) error {
	return f.call("ResetCommandBuffer")
}

func (f *fakeDriver) BeginCommandBuffer(cmd vk.CommandBuffer) error {
	f.commands = append(f.commands, "begin")
	return f.call("BeginCommandBuffer")
}

func (f *fakeDriver) EndCommandBuffer(cmd vk.CommandBuffer) error {
	f.commands = append(f.commands, "end")
	return f.call("EndCommandBuffer")
}

func (f *fakeDriver) CmdBeginRenderPass(cmd vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	f.commands = append(f.commands, "beginPass")
}

func (f *fakeDriver) CmdBindPipeline(cmd vk.CommandBuffer, pipeline vk.Pipeline) {
	f.commands = append(f.commands, "bind")
}

func (f *fakeDriver) CmdSetViewport(cmd vk.CommandBuffer, viewport vk.Viewport) {
	f.commands = append(f.commands, "viewport")
}

func (f *fakeDriver) CmdSetScissor(cmd vk.CommandBuffer, scissor vk.Rect2D) {
	f.commands = append(f.commands, "scissor")
}

func (f *fakeDriver) CmdDraw(cmd vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	f.commands = append(f.commands, fmt.Sprintf("draw(%d,%d,%d,%d)", vertexCount, instanceCount, firstVertex, firstInstance))
}

func (f *fakeDriver) CmdEndRenderPass(cmd vk.CommandBuffer) {
	f.commands = append(f.commands, "endPass")
}

func (f *fakeDriver) CreateSemaphore() (vk.Semaphore, error) {
	if err := f.call("CreateSemaphore"); err != nil {
		return vk.NullSemaphore, err
	}
	return vk.Semaphore(f.create("Semaphore")), nil
}

func (f *fakeDriver) DestroySemaphore(semaphore vk.Semaphore) {
	f.destroy("Semaphore", unsafe.Pointer(semaphore))
}

func (f *fakeDriver) CreateFence(signaled bool) (vk.Fence, error) {
	if err := f.call("CreateFence"); err != nil {
		return vk.Fence(vk.NullHandle), err
	}
	if !signaled {
		f.misuse = append(f.misuse, "fence created unsignaled")
	}
	return vk.Fence(f.create("Fence")), nil
}

func (f *fakeDriver) DestroyFence(fence vk.Fence) {
	f.destroy("Fence", unsafe.Pointer(fence))
}

func (f *fakeDriver) WaitForFence(fence vk.Fence) error {
	return f.call("WaitForFence")
}

func (f *fakeDriver) ResetFence(fence vk.Fence) error {
	return f.call("ResetFence")
}

func (f *fakeDriver) AcquireNextImage(swapchain vk.Swapchain, signal vk.Semaphore) (uint32, error) {
	if err := f.call("AcquireNextImage"); err != nil {
		return 0, err
	}
	if f.acquireErr != nil {
		return 0, f.acquireErr
	}
	image := f.nextImage
	f.nextImage = (f.nextImage + 1) % uint32(len(f.chains[swapchain]))
	return image, nil
}

func (f *fakeDriver) QueueSubmit(info vk.SubmitInfo, fence vk.Fence) error {
	f.submits = append(f.submits, info)
	return f.call("QueueSubmit")
}

func (f *fakeDriver) QueuePresent(info *vk.PresentInfo) error {
	f.presents = append(f.presents, *info)
	if err := f.call("QueuePresent"); err != nil {
		return err
	}
	return f.presentErr
}

func (f *fakeDriver) WaitIdle() error {
	return f.call("WaitIdle")
}

func TestVulkanErrorKinds(t *testing.T) {
	if err := newError(vk.Success); err != nil {
		t.Fatalf("newError(Success) = %v", err)
	}
	err := kindf(ErrSetup, newError(vk.ErrorDeviceLost), "create device")
	if !errors.Is(err, ErrSetup) {
		t.Errorf("%v is not ErrSetup", err)
	}
	if ret, ok := ResultOf(err); !ok || ret != vk.ErrorDeviceLost {
		t.Errorf("ResultOf = %v, %v", ret, ok)
	}
}
