package vitamin

import (
	"fmt"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Error kinds. Every error returned by the package is marked with exactly one
// of these so callers can branch with errors.Is.
var (
	ErrSetup            = errors.New("vulkan setup failed")
	ErrSelection        = errors.New("no device or queue meets requirements")
	ErrNoSuitableDevice = errors.New("no suitable device")
	ErrSwapchainCreate  = errors.New("swapchain creation failed")
	ErrImageViewCreate  = errors.New("image view creation failed")
	ErrCommandRecord    = errors.New("command recording failed")
	ErrFrameSubmit      = errors.New("frame submission failed")
	ErrPresent          = errors.New("presentation failed")

	// ErrSurfaceOutOfDate is returned by acquire/present when the swapchain
	// no longer matches the surface. The pacer consumes it and rebuilds.
	ErrSurfaceOutOfDate = errors.New("surface out of date")

	// ErrWindowClosed ends the frame loop cleanly. It is returned when the
	// window closes while a rebuild waits for it to be restored.
	ErrWindowClosed = errors.New("window closed")
)

// VulkanError carries a failed vk.Result.
type VulkanError struct {
	Result vk.Result
}

func (e VulkanError) Error() string {
	if err := vk.Error(e.Result); err != nil {
		return fmt.Sprintf("vulkan error: %s (%d)", err.Error(), e.Result)
	}
	return fmt.Sprintf("vulkan error: result %d", e.Result)
}

func isError(ret vk.Result) bool {
	return ret != vk.Success
}

// newError returns nil for vk.Success and a stack-annotated VulkanError otherwise.
func newError(ret vk.Result) error {
	if !isError(ret) {
		return nil
	}
	return errors.WithStack(VulkanError{Result: ret})
}

// kindf wraps cause with a message and marks it with kind. A nil cause yields
// a fresh error of that kind.
func kindf(kind error, cause error, format string, args ...interface{}) error {
	if cause == nil {
		return errors.Mark(errors.Newf(format, args...), kind)
	}
	return errors.Mark(errors.Wrapf(cause, format, args...), kind)
}

// ResultOf extracts the vk.Result from err, if any.
func ResultOf(err error) (vk.Result, bool) {
	var verr VulkanError
	if errors.As(err, &verr) {
		return verr.Result, true
	}
	return vk.Success, false
}

// Exit codes for the process driver.
const (
	ExitOK = iota
	ExitSetup
	ExitSelection
	ExitSwapchain
	ExitImageView
	ExitCommandRecord
	ExitFrameSubmit
	ExitPresent
	ExitUnknown
)

// ExitCode maps an error from this package to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, ErrWindowClosed):
		return ExitOK
	case errors.Is(err, ErrSelection), errors.Is(err, ErrNoSuitableDevice):
		return ExitSelection
	case errors.Is(err, ErrImageViewCreate):
		return ExitImageView
	case errors.Is(err, ErrSwapchainCreate):
		return ExitSwapchain
	case errors.Is(err, ErrCommandRecord):
		return ExitCommandRecord
	case errors.Is(err, ErrFrameSubmit):
		return ExitFrameSubmit
	case errors.Is(err, ErrPresent):
		return ExitPresent
	case errors.Is(err, ErrSetup):
		return ExitSetup
	}
	return ExitUnknown
}

// checkErr converts a panic raised below an API boundary into an error.
func checkErr(err *error) {
	if v := recover(); v != nil {
		*err = errors.Mark(errors.Newf("%+v", v), ErrSetup)
	}
}
