package vitamin

import (
	vk "github.com/vulkan-go/vulkan"
)

// QueueFamily is the part of vk.QueueFamilyProperties the core looks at, plus
// whether the family can present to the target surface.
type QueueFamily struct {
	Flags          vk.QueueFlags
	Count          uint32
	PresentSupport bool
}

func (f QueueFamily) graphics() bool {
	return f.Flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0
}

type optionalIndex struct {
	value uint32
	ok    bool
}

func (o *optionalIndex) set(v uint32) {
	o.value, o.ok = v, true
}

// QueueFamilyIndices holds the graphics and present family indices resolved
// against a surface.
type QueueFamilyIndices struct {
	graphics optionalIndex
	present  optionalIndex
}

func NewQueueFamilyIndices(graphics, present uint32) QueueFamilyIndices {
	var q QueueFamilyIndices
	q.graphics.set(graphics)
	q.present.set(present)
	return q
}

// IsComplete returns true if both families have been found.
func (q QueueFamilyIndices) IsComplete() bool {
	return q.graphics.ok && q.present.ok
}

func (q QueueFamilyIndices) Graphics() (uint32, bool) {
	return q.graphics.value, q.graphics.ok
}

func (q QueueFamilyIndices) Present() (uint32, bool) {
	return q.present.value, q.present.ok
}

// Separate is true when presentation uses a different family than graphics.
func (q QueueFamilyIndices) Separate() bool {
	return q.IsComplete() && q.graphics.value != q.present.value
}

// UniqueFamilies lists each distinct family once, graphics first.
func (q QueueFamilyIndices) UniqueFamilies() []uint32 {
	var out []uint32
	if q.graphics.ok {
		out = append(out, q.graphics.value)
	}
	if q.present.ok && (!q.graphics.ok || q.present.value != q.graphics.value) {
		out = append(out, q.present.value)
	}
	return out
}

// ResolveQueues scans families once. A single family may fill both roles.
func ResolveQueues(families []QueueFamily) QueueFamilyIndices {
	var indices QueueFamilyIndices
	for i, family := range families {
		if family.graphics() {
			indices.graphics.set(uint32(i))
		}
		if family.PresentSupport {
			indices.present.set(uint32(i))
		}
		if indices.IsComplete() {
			break
		}
	}
	return indices
}

// queueCreateInfos builds one create info per unique family with a single
// queue each.
func queueCreateInfos(indices QueueFamilyIndices) []vk.DeviceQueueCreateInfo {
	families := indices.UniqueFamilies()
	infos := make([]vk.DeviceQueueCreateInfo, 0, len(families))
	for _, family := range families {
		infos = append(infos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}
	return infos
}

// probeQueueFamilies snapshots the queue families of gpu and their present
// support for surface.
func probeQueueFamilies(gpu vk.PhysicalDevice, surface vk.Surface) []QueueFamily {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, props)

	families := make([]QueueFamily, 0, count)
	for i := range props {
		props[i].Deref()
		var supported vk.Bool32
		ret := vk.GetPhysicalDeviceSurfaceSupport(gpu, uint32(i), surface, &supported)
		if isError(ret) {
			Logger().Warn("surface support query failed",
				"family", i, "error", newError(ret))
		}
		families = append(families, QueueFamily{
			Flags:          props[i].QueueFlags,
			Count:          props[i].QueueCount,
			PresentSupport: !isError(ret) && supported.B(),
		})
	}
	return families
}
