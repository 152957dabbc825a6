package vitamin

import (
	vk "github.com/vulkan-go/vulkan"
)

// CreateRenderPass creates a single-subpass pass with one color attachment
// that is cleared on load and left ready for presentation.
func CreateRenderPass(d Driver, format vk.Format) (vk.RenderPass, error) {
	attachments := []vk.AttachmentDescription{{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}
	colorRefs := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}
	subpasses := []vk.SubpassDescription{{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorRefs)),
		PColorAttachments:    colorRefs,
	}}
	// External dependency so the layout transition waits for the acquire
	// semaphore at color output.
	dependencies := []vk.SubpassDependency{{
		SrcSubpass:    vk.MaxUint32,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}}

	pass, err := d.CreateRenderPass(&vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	})
	if err != nil {
		return vk.NullRenderPass, kindf(ErrSetup, err, "create render pass")
	}
	return pass, nil
}

// Framebuffers is a batch of framebuffers, one per image view.
type Framebuffers struct {
	driver  Driver
	Handles []vk.Framebuffer
}

// CreateFramebuffers binds each view to pass. Partial batches are destroyed
// on failure.
func CreateFramebuffers(d Driver, pass vk.RenderPass, views []vk.ImageView, extent vk.Extent2D) (*Framebuffers, error) {
	batch := &Framebuffers{
		driver:  d,
		Handles: make([]vk.Framebuffer, 0, len(views)),
	}
	for i, view := range views {
		framebuffer, err := d.CreateFramebuffer(&vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      pass,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{view},
			Width:           extent.Width,
			Height:          extent.Height,
			Layers:          1,
		})
		if err != nil {
			batch.Destroy()
			return nil, kindf(ErrSwapchainCreate, err, "framebuffer %d of %d", i, len(views))
		}
		batch.Handles = append(batch.Handles, framebuffer)
	}
	return batch, nil
}

func (b *Framebuffers) Destroy() {
	for _, framebuffer := range b.Handles {
		b.driver.DestroyFramebuffer(framebuffer)
	}
	b.Handles = nil
}
