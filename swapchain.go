package vitamin

import (
	vk "github.com/vulkan-go/vulkan"
)

// ExtentFromWindow is the current extent a surface reports when the swapchain
// size is dictated by the swapchain rather than the window.
const ExtentFromWindow uint32 = 0xFFFFFFFF

// SurfaceSupport is a snapshot of what a surface offers a physical device.
type SurfaceSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// Adequate reports whether a swapchain can be built at all.
func (s SurfaceSupport) Adequate() bool {
	return len(s.Formats) > 0 && len(s.PresentModes) > 0
}

// SwapchainConfig is the negotiated shape of a swapchain.
type SwapchainConfig struct {
	Format         vk.SurfaceFormat
	PresentMode    vk.PresentMode
	Extent         vk.Extent2D
	ImageCount     uint32
	SharingMode    vk.SharingMode
	SharedFamilies []uint32
	PreTransform   vk.SurfaceTransformFlagBits
	CompositeAlpha vk.CompositeAlphaFlagBits
}

// ChooseSurfaceFormat picks preferred if the surface offers it, else the first
// offered format. formats must not be empty.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat, preferred vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range formats {
		if format.Format == preferred.Format && format.ColorSpace == preferred.ColorSpace {
			return format
		}
	}
	return formats[0]
}

// ChoosePresentMode picks MAILBOX when offered and vsync is not forced. FIFO
// is always supported.
func ChoosePresentMode(modes []vk.PresentMode, vsync bool) vk.PresentMode {
	if vsync {
		return vk.PresentModeFifo
	}
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

// ChooseExtent uses the surface's current extent unless it reports
// ExtentFromWindow, in which case the drawable size is clamped into the
// surface limits.
func ChooseExtent(caps vk.SurfaceCapabilities, drawable vk.Extent2D) vk.Extent2D {
	if caps.CurrentExtent.Width != ExtentFromWindow {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(drawable.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(drawable.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image over the minimum. A MaxImageCount of
// zero means unbounded.
func ChooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// ChooseSharing returns CONCURRENT across both families when graphics and
// present differ. Exclusive ownership with two families is undefined access.
func ChooseSharing(indices QueueFamilyIndices) (vk.SharingMode, []uint32) {
	if indices.Separate() {
		graphics, _ := indices.Graphics()
		present, _ := indices.Present()
		return vk.SharingModeConcurrent, []uint32{graphics, present}
	}
	return vk.SharingModeExclusive, nil
}

func chooseTransform(caps vk.SurfaceCapabilities) vk.SurfaceTransformFlagBits {
	if vk.SurfaceTransformFlagBits(caps.SupportedTransforms)&vk.SurfaceTransformIdentityBit != 0 {
		return vk.SurfaceTransformIdentityBit
	}
	return caps.CurrentTransform
}

func chooseCompositeAlpha(caps vk.SurfaceCapabilities) vk.CompositeAlphaFlagBits {
	for _, bit := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(bit) != 0 {
			return bit
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

// NegotiateSwapchain derives the swapchain shape from surface support.
func NegotiateSwapchain(support SurfaceSupport, drawable vk.Extent2D, indices QueueFamilyIndices,
	preferred vk.SurfaceFormat, vsync bool) (SwapchainConfig, error) {

	if !support.Adequate() {
		return SwapchainConfig{}, kindf(ErrSwapchainCreate, nil,
			"surface offers %d formats and %d present modes", len(support.Formats), len(support.PresentModes))
	}
	if !indices.IsComplete() {
		return SwapchainConfig{}, kindf(ErrSwapchainCreate, nil, "queue families incomplete")
	}
	mode, families := ChooseSharing(indices)
	return SwapchainConfig{
		Format:         ChooseSurfaceFormat(support.Formats, preferred),
		PresentMode:    ChoosePresentMode(support.PresentModes, vsync),
		Extent:         ChooseExtent(support.Capabilities, drawable),
		ImageCount:     ChooseImageCount(support.Capabilities),
		SharingMode:    mode,
		SharedFamilies: families,
		PreTransform:   chooseTransform(support.Capabilities),
		CompositeAlpha: chooseCompositeAlpha(support.Capabilities),
	}, nil
}

func (c SwapchainConfig) createInfo(surface vk.Surface, old vk.Swapchain) vk.SwapchainCreateInfo {
	return vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               surface,
		MinImageCount:         c.ImageCount,
		ImageFormat:           c.Format.Format,
		ImageColorSpace:       c.Format.ColorSpace,
		ImageExtent:           c.Extent,
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      c.SharingMode,
		QueueFamilyIndexCount: uint32(len(c.SharedFamilies)),
		PQueueFamilyIndices:   c.SharedFamilies,
		PreTransform:          c.PreTransform,
		CompositeAlpha:        c.CompositeAlpha,
		PresentMode:           c.PresentMode,
		Clipped:               vk.True,
		OldSwapchain:          old,
	}
}

// Swapchain owns the presentable image chain and its views. Images belong to
// the presentation engine, views belong to the Swapchain.
type Swapchain struct {
	driver Driver

	Config SwapchainConfig
	Handle vk.Swapchain
	Images []vk.Image
	Views  *ImageViews
}

// CreateSwapchain builds the chain for surface. When old is not null it is
// handed over to the new chain and destroyed once the new one exists; the
// caller must have drained the device first.
func CreateSwapchain(d Driver, surface vk.Surface, cfg SwapchainConfig, old vk.Swapchain) (*Swapchain, error) {
	info := cfg.createInfo(surface, old)
	handle, err := d.CreateSwapchain(&info)
	if old != vk.NullSwapchain {
		d.DestroySwapchain(old)
	}
	if err != nil {
		return nil, kindf(ErrSwapchainCreate, err, "create swapchain %dx%d", cfg.Extent.Width, cfg.Extent.Height)
	}

	images, err := d.SwapchainImages(handle)
	if err != nil {
		d.DestroySwapchain(handle)
		return nil, kindf(ErrSwapchainCreate, err, "get swapchain images")
	}

	views, err := CreateImageViews(d, images, cfg.Format.Format)
	if err != nil {
		d.DestroySwapchain(handle)
		return nil, kindf(ErrSwapchainCreate, err, "swapchain image views")
	}

	Logger().Info("swapchain created",
		"width", cfg.Extent.Width, "height", cfg.Extent.Height,
		"images", len(images), "format", cfg.Format.Format,
		"presentMode", cfg.PresentMode, "sharing", cfg.SharingMode)

	return &Swapchain{
		driver: d,
		Config: cfg,
		Handle: handle,
		Images: images,
		Views:  views,
	}, nil
}

func (s *Swapchain) ImageCount() int {
	return len(s.Images)
}

// Release destroys the views and hands back the swapchain handle so it can be
// passed as the old swapchain of a rebuild.
func (s *Swapchain) Release() vk.Swapchain {
	if s.Views != nil {
		s.Views.Destroy()
		s.Views = nil
	}
	handle := s.Handle
	s.Handle = vk.NullSwapchain
	s.Images = nil
	return handle
}

// Destroy releases views and the swapchain.
func (s *Swapchain) Destroy() {
	if handle := s.Release(); handle != vk.NullSwapchain {
		s.driver.DestroySwapchain(handle)
	}
}

// querySurfaceSupport snapshots surface support for gpu.
func querySurfaceSupport(gpu vk.PhysicalDevice, surface vk.Surface) (SurfaceSupport, error) {
	var support SurfaceSupport

	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(gpu, surface, &caps)
	if isError(ret) {
		return support, newError(ret)
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	support.Capabilities = caps

	var formatCount uint32
	ret = vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &formatCount, nil)
	if isError(ret) {
		return support, newError(ret)
	}
	if formatCount > 0 {
		formats := make([]vk.SurfaceFormat, formatCount)
		vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &formatCount, formats)
		for _, format := range formats[:formatCount] {
			format.Deref()
			support.Formats = append(support.Formats, format)
		}
	}

	var modeCount uint32
	ret = vk.GetPhysicalDeviceSurfacePresentModes(gpu, surface, &modeCount, nil)
	if isError(ret) {
		return support, newError(ret)
	}
	if modeCount > 0 {
		modes := make([]vk.PresentMode, modeCount)
		vk.GetPhysicalDeviceSurfacePresentModes(gpu, surface, &modeCount, modes)
		support.PresentModes = modes[:modeCount]
	}
	return support, nil
}
