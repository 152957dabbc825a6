package vitamin

import (
	"os"
	"runtime"
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// TestRendererOnGPU draws a few frames on a real device. It needs a display,
// a Vulkan driver and compiled shaders in VITAMIN_SHADERS.
func TestRendererOnGPU(t *testing.T) {
	shaders := os.Getenv("VITAMIN_SHADERS")
	if os.Getenv("VITAMIN_GPU") != "1" || shaders == "" {
		t.Skip("set VITAMIN_GPU=1 and VITAMIN_SHADERS to run")
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := glfw.Init(); err != nil {
		t.Fatal(err)
	}
	defer glfw.Terminate()
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.ShaderDir = shaders
	cfg.Validation = os.Getenv("VITAMIN_VALIDATION") == "1"
	window, err := NewGLFWWindow(cfg.Width, cfg.Height, cfg.AppName)
	if err != nil {
		t.Fatal(err)
	}
	defer window.Destroy()

	r, err := NewRenderer(cfg, window, nil)
	if err != nil {
		t.Fatalf("NewRenderer: %v (exit %d)", err, ExitCode(err))
	}
	if !r.Selection().Device().Eligible() {
		t.Error("picked an ineligible device")
	}
	for i := 0; i < 10; i++ {
		glfw.PollEvents()
		if i == 5 {
			r.Resize()
		}
		if err := r.DrawFrame(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if r.Stats().Count != 10 {
		t.Errorf("stats counted %d frames", r.Stats().Count)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
}
