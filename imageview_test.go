package vitamin

import (
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

func fakeImages(d *fakeDriver, n int) []vk.Image {
	images := make([]vk.Image, n)
	for i := range images {
		images[i] = vk.Image(d.create("Image"))
	}
	return images
}

func TestCreateImageViews(t *testing.T) {
	d := newFakeDriver()
	views, err := CreateImageViews(d, fakeImages(d, 4), vk.FormatB8g8r8a8Srgb)
	if err != nil {
		t.Fatal(err)
	}
	if len(views.Views) != 4 || d.count("ImageView") != 4 {
		t.Errorf("views %d, live %d", len(views.Views), d.count("ImageView"))
	}
	views.Destroy()
	if d.count("ImageView") != 0 {
		t.Errorf("%d views alive after Destroy", d.count("ImageView"))
	}
	d.verify(t)
}

func TestCreateImageViewsRollback(t *testing.T) {
	for fail := 1; fail <= 4; fail++ {
		d := newFakeDriver()
		d.failAt("CreateImageView", fail)
		_, err := CreateImageViews(d, fakeImages(d, 4), vk.FormatB8g8r8a8Srgb)
		if !errors.Is(err, ErrImageViewCreate) {
			t.Fatalf("fail at %d: err = %v", fail, err)
		}
		if got := d.calls["DestroyImageView"]; got != fail-1 {
			t.Errorf("fail at %d: destroyed %d views, want %d", fail, got, fail-1)
		}
		if d.count("ImageView") != 0 {
			t.Errorf("fail at %d: %d views leaked", fail, d.count("ImageView"))
		}
		d.verify(t)
	}
}
