package vitamin

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// Window provides the presentation surface and the drawable size of the
// window behind it.
type Window interface {
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	// DrawableSize is the framebuffer size in pixels. Zero while minimized.
	DrawableSize() (width, height int)
	RequiredInstanceExtensions() []string
	// WaitEvents blocks until the window system reports an event.
	WaitEvents()
	ShouldClose() bool
}

// GLFWWindow adapts a glfw window created with glfw.NoAPI.
type GLFWWindow struct {
	window   *glfw.Window
	onResize func(width, height int)
}

// NewGLFWWindow creates a resizable window without a client API. glfw must be
// initialized on the calling thread.
func NewGLFWWindow(width, height int, title string) (*GLFWWindow, error) {
	if !glfw.VulkanSupported() {
		return nil, kindf(ErrSetup, nil, "glfw: vulkan not supported")
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	window, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, kindf(ErrSetup, err, "glfw: create window")
	}
	w := &GLFWWindow{window: window}
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})
	return w, nil
}

func (w *GLFWWindow) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := w.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "glfw: create window surface")
	}
	return vk.SurfaceFromPointer(ptr), nil
}

func (w *GLFWWindow) DrawableSize() (int, int) {
	return w.window.GetFramebufferSize()
}

func (w *GLFWWindow) RequiredInstanceExtensions() []string {
	return w.window.GetRequiredInstanceExtensions()
}

func (w *GLFWWindow) WaitEvents() {
	glfw.WaitEvents()
}

// OnResize registers fn for framebuffer size changes.
func (w *GLFWWindow) OnResize(fn func(width, height int)) {
	w.onResize = fn
}

func (w *GLFWWindow) ShouldClose() bool {
	return w.window.ShouldClose()
}

// RequestClose flags the window for closing and wakes a blocked WaitEvents.
// Safe to call from any goroutine.
func (w *GLFWWindow) RequestClose() {
	w.window.SetShouldClose(true)
	glfw.PostEmptyEvent()
}

func (w *GLFWWindow) Destroy() {
	w.window.Destroy()
}
