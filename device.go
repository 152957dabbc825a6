package vitamin

import (
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Disqualification scores. A later failing check overrides an earlier one.
const (
	ScoreNoShaderStages   = -10
	ScoreIncompleteQueues = -20
	ScoreMissingExtension = -30
	ScoreNoSurfaceSupport = -40

	scoreDiscrete = 1000
)

// DeviceCandidate is a snapshot of one physical device taken at probe time.
type DeviceCandidate struct {
	Handle vk.PhysicalDevice
	Name   string
	ID     uint32
	Type   vk.PhysicalDeviceType

	GeometryShader     bool
	TessellationShader bool

	QueueFamilies []QueueFamily
	Extensions    []string
	Surface       SurfaceSupport
}

// Requirements is what a device must provide to be selected.
type Requirements struct {
	Extensions []string
	// Layers are enabled on the logical device for older loaders.
	Layers []string
}

// RankedDevice is a scored candidate.
type RankedDevice struct {
	Candidate DeviceCandidate
	Score     int
	Reason    string
	Queues    QueueFamilyIndices
}

func (r RankedDevice) Eligible() bool {
	return r.Score >= 0
}

// Selection is the outcome of SelectDevice. Ranked holds every candidate in
// rank order; Picked indexes into it.
type Selection struct {
	Ranked []RankedDevice
	Picked int
}

func (s Selection) Device() RankedDevice {
	return s.Ranked[s.Picked]
}

// ScoreDevice rates a candidate. Negative scores disqualify it, Reason
// names the check that did.
func ScoreDevice(c DeviceCandidate, req Requirements) RankedDevice {
	r := RankedDevice{
		Candidate: c,
		Queues:    ResolveQueues(c.QueueFamilies),
	}
	if c.Type == vk.PhysicalDeviceTypeDiscreteGpu {
		r.Score += scoreDiscrete
	}
	if !c.GeometryShader || !c.TessellationShader {
		r.Score, r.Reason = ScoreNoShaderStages, "missing geometry or tessellation shader"
	}
	if !r.Queues.IsComplete() {
		r.Score, r.Reason = ScoreIncompleteQueues, "no graphics and present queue families"
	}
	if _, missing := checkExisting(c.Extensions, req.Extensions); missing > 0 {
		r.Score, r.Reason = ScoreMissingExtension, fmt.Sprintf("missing %d required extensions", missing)
	}
	if !c.Surface.Adequate() {
		r.Score, r.Reason = ScoreNoSurfaceSupport, "no surface formats or present modes"
	}
	return r
}

// rankDevices sorts by score, highest first. Equal scores keep probe order.
func rankDevices(ranked []RankedDevice) {
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
}

func pickBest(ranked []RankedDevice) (int, bool) {
	for i := range ranked {
		if ranked[i].Eligible() {
			return i, true
		}
	}
	return -1, false
}

// SelectDevice scores and ranks candidates and picks the best eligible one.
func SelectDevice(candidates []DeviceCandidate, req Requirements) (Selection, error) {
	sel := Selection{Picked: -1}
	for _, c := range candidates {
		r := ScoreDevice(c, req)
		Logger().Debug("device scored", "name", c.Name, "id", c.ID, "score", r.Score, "reason", r.Reason)
		sel.Ranked = append(sel.Ranked, r)
	}
	rankDevices(sel.Ranked)

	picked, ok := pickBest(sel.Ranked)
	if !ok {
		err := kindf(ErrNoSuitableDevice, nil, "%d devices probed, none eligible", len(candidates))
		return sel, errors.Mark(err, ErrSelection)
	}
	sel.Picked = picked

	best := sel.Ranked[picked]
	graphics, _ := best.Queues.Graphics()
	present, _ := best.Queues.Present()
	Logger().Info("device selected",
		"name", best.Candidate.Name, "id", best.Candidate.ID, "score", best.Score,
		"graphicsFamily", graphics, "presentFamily", present)
	return sel, nil
}

// ProbeDevices snapshots every physical device of instance against surface.
func ProbeDevices(instance vk.Instance, surface vk.Surface) (candidates []DeviceCandidate, err error) {
	defer checkErr(&err)

	var count uint32
	ret := vk.EnumeratePhysicalDevices(instance, &count, nil)
	if isError(ret) {
		return nil, kindf(ErrSelection, newError(ret), "enumerate physical devices")
	}
	if count == 0 {
		return nil, nil
	}
	gpus := make([]vk.PhysicalDevice, count)
	ret = vk.EnumeratePhysicalDevices(instance, &count, gpus)
	if isError(ret) {
		return nil, kindf(ErrSelection, newError(ret), "enumerate physical devices")
	}

	for _, gpu := range gpus[:count] {
		candidates = append(candidates, probeDevice(gpu, surface))
	}
	return candidates, nil
}

func probeDevice(gpu vk.PhysicalDevice, surface vk.Surface) DeviceCandidate {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(gpu, &props)
	props.Deref()

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(gpu, &features)
	features.Deref()

	c := DeviceCandidate{
		Handle:             gpu,
		Name:               vk.ToString(props.DeviceName[:]),
		ID:                 props.DeviceID,
		Type:               props.DeviceType,
		GeometryShader:     features.GeometryShader.B(),
		TessellationShader: features.TessellationShader.B(),
		QueueFamilies:      probeQueueFamilies(gpu, surface),
	}

	extensions, err := DeviceExtensions(gpu)
	if err != nil {
		Logger().Warn("device extensions unavailable", "name", c.Name, "error", err)
	}
	c.Extensions = extensions

	support, err := querySurfaceSupport(gpu, surface)
	if err != nil {
		Logger().Warn("surface support unavailable", "name", c.Name, "error", err)
	}
	c.Surface = support
	return c
}

// LogicalDevice is the created device with one queue per role. Graphics and
// Present are the same queue when one family serves both.
type LogicalDevice struct {
	Handle   vk.Device
	Graphics vk.Queue
	Present  vk.Queue
	Queues   QueueFamilyIndices
}

// CreateLogicalDevice creates the device for the selected candidate with the
// required extensions enabled.
func CreateLogicalDevice(sel Selection, req Requirements) (ld *LogicalDevice, err error) {
	defer checkErr(&err)

	if sel.Picked < 0 || sel.Picked >= len(sel.Ranked) {
		return nil, kindf(ErrSelection, nil, "no device selected")
	}
	picked := sel.Device()
	extensions, _ := checkExisting(picked.Candidate.Extensions, safeStrings(req.Extensions))
	layers := safeStrings(req.Layers)
	queueInfos := queueCreateInfos(picked.Queues)

	var device vk.Device
	ret := vk.CreateDevice(picked.Candidate.Handle, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}, nil, &device)
	if isError(ret) {
		return nil, kindf(ErrSetup, newError(ret), "create device %s", picked.Candidate.Name)
	}

	graphics, _ := picked.Queues.Graphics()
	present, _ := picked.Queues.Present()
	ld = &LogicalDevice{
		Handle: device,
		Queues: picked.Queues,
	}
	vk.GetDeviceQueue(device, graphics, 0, &ld.Graphics)
	if picked.Queues.Separate() {
		vk.GetDeviceQueue(device, present, 0, &ld.Present)
	} else {
		ld.Present = ld.Graphics
	}
	Logger().Info("logical device created",
		"extensions", len(extensions), "queues", len(queueInfos))
	return ld, nil
}

func (ld *LogicalDevice) Destroy() {
	if ld.Handle != nil {
		vk.DestroyDevice(ld.Handle, nil)
		ld.Handle = nil
	}
}
