package vitamin

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

const noSlot = -1

// FramePacer cycles MaxFramesInFlight frame slots over a swapchain. A slot
// is never reused before its fence signals, and an image is never submitted
// while another slot's frame that used it is still pending.
type FramePacer struct {
	frames frameQueue
	slots  int

	slot int
	// shadow maps an image index to the slot whose fence last covered it.
	shadow []int
	frame  uint64

	resized atomic.Bool
	closed  bool
	// failed holds the rebuild error that left the pacer without a swapchain.
	failed error

	stats FrameStats
}

func newFramePacer(frames frameQueue, imageCount int) *FramePacer {
	return &FramePacer{
		frames: frames,
		slots:  MaxFramesInFlight,
		shadow: newShadow(imageCount),
	}
}

func newShadow(images int) []int {
	shadow := make([]int, images)
	for i := range shadow {
		shadow[i] = noSlot
	}
	return shadow
}

// Slot is the frame slot the next DrawFrame uses.
func (p *FramePacer) Slot() int {
	return p.slot
}

// Frame counts presented frames.
func (p *FramePacer) Frame() uint64 {
	return p.frame
}

// Stats returns the frame timings recorded so far.
func (p *FramePacer) Stats() FrameStats {
	return p.stats
}

// Invalidate asks for a swapchain rebuild after the next presented frame.
// Safe to call from any goroutine.
func (p *FramePacer) Invalidate() {
	p.resized.Store(true)
}

// DrawFrame renders and presents one frame. A stale swapchain is rebuilt
// in place; only submission, presentation and rebuild failures are returned.
// A failed rebuild is sticky: every later call returns the same error kind.
func (p *FramePacer) DrawFrame() error {
	if p.closed {
		return errors.New("frame pacer closed")
	}
	if p.failed != nil {
		return errors.Wrap(p.failed, "swapchain unavailable")
	}
	start := p.stats.Start()
	slot := p.slot

	if err := p.frames.WaitFrame(slot); err != nil {
		return kindf(ErrFrameSubmit, err, "wait frame slot %d", slot)
	}

	image, err := p.frames.AcquireImage(slot)
	if errors.Is(err, ErrSurfaceOutOfDate) {
		Logger().Debug("acquire out of date, skipping frame", "frame", p.frame)
		return p.rebuild()
	}
	if err != nil {
		return kindf(ErrPresent, err, "acquire image for slot %d", slot)
	}
	if int(image) >= len(p.shadow) {
		return kindf(ErrPresent, nil, "acquired image %d of %d", image, len(p.shadow))
	}

	if err := p.frames.ResetFrame(slot); err != nil {
		return kindf(ErrFrameSubmit, err, "reset frame slot %d", slot)
	}
	if prev := p.shadow[image]; prev != noSlot && prev != slot {
		if err := p.frames.WaitFrame(prev); err != nil {
			return kindf(ErrFrameSubmit, err, "wait image %d held by slot %d", image, prev)
		}
	}
	p.shadow[image] = slot

	if err := p.frames.SubmitFrame(slot, image); err != nil {
		return kindf(ErrFrameSubmit, err, "submit image %d slot %d", image, slot)
	}

	err = p.frames.PresentFrame(slot, image)
	stale := errors.Is(err, ErrSurfaceOutOfDate)
	if err != nil && !stale {
		return kindf(ErrPresent, err, "present image %d", image)
	}

	p.slot = (slot + 1) % p.slots
	p.frame++
	p.stats.Record(start)
	Logger().Debug("frame presented", "frame", p.frame, "slot", slot, "image", image)

	if p.resized.Swap(false) || stale {
		return p.rebuild()
	}
	return nil
}

func (p *FramePacer) rebuild() error {
	images, err := p.frames.Rebuild()
	if err != nil {
		p.failed = err
		return err
	}
	p.shadow = newShadow(images)
	p.resized.Store(false)
	return nil
}

// Close waits for the device to finish all submitted frames. Resources are
// released by the owner afterwards.
func (p *FramePacer) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	Logger().Info("frame pacer closed", "stats", &p.stats)
	if err := p.frames.WaitIdle(); err != nil {
		return kindf(ErrSetup, err, "wait idle on close")
	}
	return nil
}
