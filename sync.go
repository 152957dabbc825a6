package vitamin

import (
	vk "github.com/vulkan-go/vulkan"
)

// frameSync holds the per-slot synchronization objects. Fences are created
// signaled so the first wait on each slot returns at once.
type frameSync struct {
	driver Driver

	imageAvailable []vk.Semaphore
	renderFinished []vk.Semaphore
	inFlight       []vk.Fence
}

// newFrameSync creates the objects for every slot. On failure everything
// created so far is destroyed.
func newFrameSync(d Driver, slots int) (*frameSync, error) {
	s := &frameSync{driver: d}
	for i := 0; i < slots; i++ {
		available, err := d.CreateSemaphore()
		if err != nil {
			s.Destroy()
			return nil, kindf(ErrSetup, err, "image available semaphore %d", i)
		}
		s.imageAvailable = append(s.imageAvailable, available)

		finished, err := d.CreateSemaphore()
		if err != nil {
			s.Destroy()
			return nil, kindf(ErrSetup, err, "render finished semaphore %d", i)
		}
		s.renderFinished = append(s.renderFinished, finished)

		fence, err := d.CreateFence(true)
		if err != nil {
			s.Destroy()
			return nil, kindf(ErrSetup, err, "in flight fence %d", i)
		}
		s.inFlight = append(s.inFlight, fence)
	}
	return s, nil
}

func (s *frameSync) Destroy() {
	for _, fence := range s.inFlight {
		s.driver.DestroyFence(fence)
	}
	for _, semaphore := range s.renderFinished {
		s.driver.DestroySemaphore(semaphore)
	}
	for _, semaphore := range s.imageAvailable {
		s.driver.DestroySemaphore(semaphore)
	}
	s.inFlight, s.renderFinished, s.imageAvailable = nil, nil, nil
}
