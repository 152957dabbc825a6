package vitamin

import (
	"reflect"
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

var (
	graphicsFamily = QueueFamily{Flags: vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit), Count: 16}
	presentFamily  = QueueFamily{Flags: vk.QueueFlags(vk.QueueTransferBit), Count: 1, PresentSupport: true}
	bothFamily     = QueueFamily{Flags: vk.QueueFlags(vk.QueueGraphicsBit), Count: 4, PresentSupport: true}
	computeFamily  = QueueFamily{Flags: vk.QueueFlags(vk.QueueComputeBit), Count: 2}
)

func TestResolveQueues(t *testing.T) {
	tests := []struct {
		name     string
		families []QueueFamily
		complete bool
		graphics uint32
		present  uint32
		unique   []uint32
	}{
		{"one family serves both", []QueueFamily{bothFamily}, true, 0, 0, []uint32{0}},
		{"separate families", []QueueFamily{computeFamily, graphicsFamily, presentFamily}, true, 1, 2, []uint32{1, 2}},
		{"stops once complete", []QueueFamily{bothFamily, graphicsFamily, presentFamily}, true, 0, 0, []uint32{0}},
		{"graphics only", []QueueFamily{graphicsFamily, computeFamily}, false, 0, 0, []uint32{0}},
		{"no families", nil, false, 0, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ResolveQueues(tt.families)
			if q.IsComplete() != tt.complete {
				t.Fatalf("IsComplete = %v, want %v", q.IsComplete(), tt.complete)
			}
			if tt.complete {
				g, _ := q.Graphics()
				p, _ := q.Present()
				if g != tt.graphics || p != tt.present {
					t.Errorf("graphics, present = %d, %d, want %d, %d", g, p, tt.graphics, tt.present)
				}
			}
			if got := q.UniqueFamilies(); !reflect.DeepEqual(got, tt.unique) {
				t.Errorf("UniqueFamilies = %v, want %v", got, tt.unique)
			}
		})
	}
}

func TestQueueCreateInfos(t *testing.T) {
	infos := queueCreateInfos(NewQueueFamilyIndices(1, 2))
	if len(infos) != 2 {
		t.Fatalf("got %d create infos, want 2", len(infos))
	}
	for i, want := range []uint32{1, 2} {
		if infos[i].QueueFamilyIndex != want || infos[i].QueueCount != 1 {
			t.Errorf("info %d = family %d count %d", i, infos[i].QueueFamilyIndex, infos[i].QueueCount)
		}
	}
	if infos := queueCreateInfos(NewQueueFamilyIndices(3, 3)); len(infos) != 1 {
		t.Errorf("shared family: got %d create infos, want 1", len(infos))
	}
}
