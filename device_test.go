package vitamin

import (
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

var swapchainReq = Requirements{Extensions: []string{vk.KhrSwapchainExtensionName}}

func goodSurface() SurfaceSupport {
	return SurfaceSupport{
		Formats:      []vk.SurfaceFormat{{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}},
		PresentModes: []vk.PresentMode{vk.PresentModeFifo},
	}
}

func candidate(name string, typ vk.PhysicalDeviceType) DeviceCandidate {
	return DeviceCandidate{
		Name:               name,
		Type:               typ,
		GeometryShader:     true,
		TessellationShader: true,
		QueueFamilies:      []QueueFamily{bothFamily},
		Extensions:         []string{"VK_KHR_maintenance1", vk.KhrSwapchainExtensionName},
		Surface:            goodSurface(),
	}
}

func TestScoreDevice(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*DeviceCandidate)
		want   int
	}{
		{"discrete", func(c *DeviceCandidate) { c.Type = vk.PhysicalDeviceTypeDiscreteGpu }, 1000},
		{"integrated", func(c *DeviceCandidate) {}, 0},
		{"no geometry shader", func(c *DeviceCandidate) { c.GeometryShader = false }, ScoreNoShaderStages},
		{"no tessellation shader", func(c *DeviceCandidate) { c.TessellationShader = false }, ScoreNoShaderStages},
		{"no present family", func(c *DeviceCandidate) { c.QueueFamilies = []QueueFamily{graphicsFamily} }, ScoreIncompleteQueues},
		{"no swapchain extension", func(c *DeviceCandidate) { c.Extensions = []string{"VK_KHR_maintenance1"} }, ScoreMissingExtension},
		{"no formats", func(c *DeviceCandidate) { c.Surface.Formats = nil }, ScoreNoSurfaceSupport},
		{"no present modes", func(c *DeviceCandidate) { c.Surface.PresentModes = nil }, ScoreNoSurfaceSupport},
		{"later check overrides", func(c *DeviceCandidate) {
			c.Type = vk.PhysicalDeviceTypeDiscreteGpu
			c.GeometryShader = false
			c.Surface.PresentModes = nil
		}, ScoreNoSurfaceSupport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := candidate("gpu", vk.PhysicalDeviceTypeIntegratedGpu)
			tt.modify(&c)
			r := ScoreDevice(c, swapchainReq)
			if r.Score != tt.want {
				t.Errorf("score = %d (%s), want %d", r.Score, r.Reason, tt.want)
			}
			if (r.Score < 0) != (r.Reason != "") {
				t.Errorf("score %d with reason %q", r.Score, r.Reason)
			}
		})
	}
}

func TestSelectDevicePicksHighest(t *testing.T) {
	bad := candidate("bad", vk.PhysicalDeviceTypeDiscreteGpu)
	bad.Extensions = nil
	candidates := []DeviceCandidate{
		candidate("integrated", vk.PhysicalDeviceTypeIntegratedGpu),
		bad,
		candidate("discrete", vk.PhysicalDeviceTypeDiscreteGpu),
	}
	sel, err := SelectDevice(candidates, swapchainReq)
	if err != nil {
		t.Fatal(err)
	}
	if got := sel.Device().Candidate.Name; got != "discrete" {
		t.Errorf("picked %q, want discrete", got)
	}
	if len(sel.Ranked) != 3 {
		t.Fatalf("ranked %d, want 3", len(sel.Ranked))
	}
	if last := sel.Ranked[2]; last.Candidate.Name != "bad" || last.Eligible() {
		t.Errorf("last ranked = %q score %d", last.Candidate.Name, last.Score)
	}
}

func TestSelectDeviceStableTies(t *testing.T) {
	candidates := []DeviceCandidate{
		candidate("first", vk.PhysicalDeviceTypeIntegratedGpu),
		candidate("second", vk.PhysicalDeviceTypeIntegratedGpu),
	}
	sel, err := SelectDevice(candidates, swapchainReq)
	if err != nil {
		t.Fatal(err)
	}
	if got := sel.Device().Candidate.Name; got != "first" {
		t.Errorf("picked %q, want first", got)
	}
}

func TestSelectDeviceNoneEligible(t *testing.T) {
	noShaders := candidate("a", vk.PhysicalDeviceTypeDiscreteGpu)
	noShaders.GeometryShader = false
	noSurface := candidate("b", vk.PhysicalDeviceTypeIntegratedGpu)
	noSurface.Surface = SurfaceSupport{}

	for name, candidates := range map[string][]DeviceCandidate{
		"empty":        nil,
		"disqualified": {noShaders, noSurface},
	} {
		t.Run(name, func(t *testing.T) {
			sel, err := SelectDevice(candidates, swapchainReq)
			if !errors.Is(err, ErrNoSuitableDevice) || !errors.Is(err, ErrSelection) {
				t.Fatalf("err = %v, want ErrNoSuitableDevice marked ErrSelection", err)
			}
			if ExitCode(err) != ExitSelection {
				t.Errorf("ExitCode = %d, want %d", ExitCode(err), ExitSelection)
			}
			if sel.Picked != -1 || len(sel.Ranked) != len(candidates) {
				t.Errorf("selection = picked %d ranked %d", sel.Picked, len(sel.Ranked))
			}
		})
	}
}

func TestRankPicksFirstNonNegative(t *testing.T) {
	ranked := []RankedDevice{
		{Candidate: DeviceCandidate{Name: "a"}, Score: -1},
		{Candidate: DeviceCandidate{Name: "b"}, Score: 1000},
		{Candidate: DeviceCandidate{Name: "c"}, Score: 500},
	}
	rankDevices(ranked)
	i, ok := pickBest(ranked)
	if !ok || ranked[i].Score != 1000 || ranked[i].Candidate.Name != "b" {
		t.Errorf("picked %+v", ranked[i])
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i-1].Score < ranked[i].Score {
			t.Errorf("not descending at %d: %d < %d", i, ranked[i-1].Score, ranked[i].Score)
		}
	}
}

func TestCreateLogicalDeviceNeedsSelection(t *testing.T) {
	_, err := CreateLogicalDevice(Selection{Picked: -1}, swapchainReq)
	if !errors.Is(err, ErrSelection) {
		t.Errorf("err = %v, want ErrSelection", err)
	}
}
