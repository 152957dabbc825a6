// Command vitamin opens a window and draws a triangle with Vulkan until the
// window is closed.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/closer"

	"github.com/andewx/vitamin"
)

func init() {
	// glfw and the Vulkan loop must stay on the main thread.
	runtime.LockOSThread()
}

func parseFlags(args []string) (vitamin.Config, bool, error) {
	cfg := vitamin.DefaultConfig()
	fs := flag.NewFlagSet("vitamin", flag.ContinueOnError)
	fs.IntVar(&cfg.Width, "width", cfg.Width, "window width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "window height")
	fs.BoolVar(&cfg.Validation, "debug", cfg.Validation, "enable Vulkan validation layers")
	fs.BoolVar(&cfg.VSync, "vsync", cfg.VSync, "force FIFO presentation")
	fs.StringVar(&cfg.ShaderDir, "shaders", cfg.ShaderDir, "directory holding vert.spv and frag.spv")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "also write logs to this file")
	info := fs.Bool("info", false, "report extensions, layers and devices, then exit")
	if err := fs.Parse(args); err != nil {
		return cfg, false, err
	}
	return cfg, *info, cfg.Validate()
}

func main() {
	cfg, infoOnly, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	os.Exit(run(cfg, infoOnly))
}

func run(cfg vitamin.Config, infoOnly bool) int {
	logger, logCloser, err := vitamin.NewLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return vitamin.ExitSetup
	}
	defer logCloser.Close()
	vitamin.SetLogger(logger)

	if err := glfw.Init(); err != nil {
		logger.Error("glfw init", "error", err)
		return vitamin.ExitSetup
	}
	defer glfw.Terminate()
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		logger.Error("vulkan init", "error", err)
		return vitamin.ExitSetup
	}

	window, err := vitamin.NewGLFWWindow(cfg.Width, cfg.Height, cfg.AppName)
	if err != nil {
		logger.Error("create window", "error", err)
		return vitamin.ExitCode(err)
	}
	defer window.Destroy()

	if infoOnly {
		if err := vitamin.ReportInstance(logger, window.RequiredInstanceExtensions()); err != nil {
			logger.Error("report instance", "error", err)
		}
		if err := vitamin.ReportLayers(logger, cfg.RequiredLayers); err != nil {
			logger.Error("report layers", "error", err)
		}
	}

	renderer, err := vitamin.NewRenderer(cfg, window, nil)
	if err != nil {
		logger.Error("renderer setup failed", "error", err)
		return vitamin.ExitCode(err)
	}
	if infoOnly {
		if err := renderer.Close(); err != nil {
			logger.Error("close", "error", err)
		}
		return vitamin.ExitOK
	}
	window.OnResize(func(int, int) { renderer.Resize() })

	// A signal asks the loop to stop, wakes a rebuild blocked on a minimized
	// window, and waits for teardown on this thread.
	quit := make(chan struct{})
	done := make(chan struct{})
	var once sync.Once
	closer.Bind(func() {
		once.Do(func() {
			close(quit)
			window.RequestClose()
		})
		<-done
	})

	code := loop(window, renderer, quit)
	if err := renderer.Close(); err != nil {
		logger.Error("close", "error", err)
	}
	logger.Info("exit", "code", code)
	close(done)
	return code
}

func loop(window *vitamin.GLFWWindow, renderer *vitamin.Renderer, quit <-chan struct{}) int {
	for !window.ShouldClose() {
		select {
		case <-quit:
			return vitamin.ExitOK
		default:
		}
		glfw.PollEvents()
		if err := renderer.DrawFrame(); err != nil {
			code := vitamin.ExitCode(err)
			if code == vitamin.ExitOK {
				vitamin.Logger().Info("frame loop stopped", "reason", err)
			} else {
				vitamin.Logger().Error("frame failed", "error", err)
			}
			return code
		}
	}
	return vitamin.ExitOK
}
