package vitamin

import (
	vk "github.com/vulkan-go/vulkan"
)

// ImageViews is a batch of color views, one per swapchain image.
type ImageViews struct {
	driver Driver
	Views  []vk.ImageView
}

// CreateImageViews creates a 2D color view per image. If any creation fails
// every view made by this call is destroyed before returning.
func CreateImageViews(d Driver, images []vk.Image, format vk.Format) (*ImageViews, error) {
	batch := &ImageViews{
		driver: d,
		Views:  make([]vk.ImageView, 0, len(images)),
	}
	for i, image := range images {
		view, err := d.CreateImageView(&vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		})
		if err != nil {
			batch.Destroy()
			return nil, kindf(ErrImageViewCreate, err, "image view %d of %d", i, len(images))
		}
		batch.Views = append(batch.Views, view)
	}
	return batch, nil
}

func (b *ImageViews) Destroy() {
	for _, view := range b.Views {
		b.driver.DestroyImageView(view)
	}
	b.Views = nil
}
