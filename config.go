package vitamin

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
	lin "github.com/xlab/linmath"
)

// MaxFramesInFlight is the number of frame slots cycled by the pacer.
const MaxFramesInFlight = 2

// Config describes how the renderer is built. The zero value is not usable,
// start from DefaultConfig.
type Config struct {
	AppName string

	// Window size requested at startup. The swapchain follows the drawable
	// size afterwards.
	Width  int
	Height int

	// Validation enables the RequiredLayers on instance and device.
	Validation       bool
	RequiredLayers   []string
	DeviceExtensions []string

	// PreferredFormat is chosen when the surface offers it, otherwise the
	// first format the surface reports wins.
	PreferredFormat vk.SurfaceFormat
	// VSync forces FIFO even when MAILBOX is offered.
	VSync bool

	ClearColor lin.Vec4

	// ShaderDir holds vert.spv and frag.spv for the default pipeline.
	ShaderDir string

	LogLevel string
	LogFile  string

	FramesInFlight int
}

func DefaultConfig() Config {
	return Config{
		AppName:          "Vitamin",
		Width:            800,
		Height:           600,
		RequiredLayers:   []string{"VK_LAYER_KHRONOS_validation"},
		DeviceExtensions: []string{vk.KhrSwapchainExtensionName},
		PreferredFormat: vk.SurfaceFormat{
			Format:     vk.FormatB8g8r8a8Srgb,
			ColorSpace: vk.ColorSpaceSrgbNonlinear,
		},
		ClearColor:     lin.Vec4{0, 0, 0, 1},
		ShaderDir:      "shaders",
		LogLevel:       "info",
		FramesInFlight: MaxFramesInFlight,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.AppName == "":
		return errors.New("config: empty app name")
	case c.Width <= 0 || c.Height <= 0:
		return errors.Newf("config: invalid window size %dx%d", c.Width, c.Height)
	case c.FramesInFlight != MaxFramesInFlight:
		return errors.Newf("config: frames in flight must be %d, got %d", MaxFramesInFlight, c.FramesInFlight)
	case len(c.DeviceExtensions) == 0:
		return errors.New("config: swapchain device extension is required")
	}
	for i, v := range c.ClearColor {
		if v < 0 || v > 1 {
			return errors.Newf("config: clear color component %d out of [0,1]: %v", i, v)
		}
	}
	return nil
}

func (c Config) layers() []string {
	if !c.Validation {
		return nil
	}
	return c.RequiredLayers
}
