package vitamin

import (
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slog"
)

// InstanceExtensions gets a list of instance extensions available on the platform.
func InstanceExtensions() (names []string, err error) {
	defer checkErr(&err)

	var count uint32
	ret := vk.EnumerateInstanceExtensionProperties("", &count, nil)
	if isError(ret) {
		return nil, newError(ret)
	}
	list := make([]vk.ExtensionProperties, count)
	ret = vk.EnumerateInstanceExtensionProperties("", &count, list)
	if isError(ret) {
		return nil, newError(ret)
	}
	for _, ext := range list[:count] {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// DeviceExtensions gets a list of extensions available on the provided physical device.
func DeviceExtensions(gpu vk.PhysicalDevice) (names []string, err error) {
	defer checkErr(&err)

	var count uint32
	ret := vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil)
	if isError(ret) {
		return nil, newError(ret)
	}
	list := make([]vk.ExtensionProperties, count)
	ret = vk.EnumerateDeviceExtensionProperties(gpu, "", &count, list)
	if isError(ret) {
		return nil, newError(ret)
	}
	for _, ext := range list[:count] {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// ValidationLayers gets a list of validation layers available on the platform.
func ValidationLayers() (names []string, err error) {
	defer checkErr(&err)

	var count uint32
	ret := vk.EnumerateInstanceLayerProperties(&count, nil)
	if isError(ret) {
		return nil, newError(ret)
	}
	list := make([]vk.LayerProperties, count)
	ret = vk.EnumerateInstanceLayerProperties(&count, list)
	if isError(ret) {
		return nil, newError(ret)
	}
	for _, layer := range list[:count] {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

// NameSet matches required and wanted names (extensions or layers) against what
// the platform actually offers. Wanted names are enabled when available and
// never cause a failure.
type NameSet struct {
	Required []string
	Wanted   []string
	Actual   []string
}

// Missing lists required names the platform lacks.
func (s NameSet) Missing() []string {
	var missing []string
	for _, name := range s.Required {
		if _, n := checkExisting(s.Actual, []string{name}); n > 0 {
			missing = append(missing, trimNull(name))
		}
	}
	return missing
}

// Enabled lists available required names followed by available wanted names,
// each once and null terminated, ready for a create info.
func (s NameSet) Enabled() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(names []string) {
		existing, _ := checkExisting(s.Actual, names)
		for _, name := range existing {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	add(s.Required)
	add(s.Wanted)
	return out
}

// ReportInstance logs the available instance extensions and whether each
// required one is present.
func ReportInstance(logger *slog.Logger, required []string) error {
	actual, err := InstanceExtensions()
	if err != nil {
		return kindf(ErrSetup, err, "enumerate instance extensions")
	}
	reportNames(logger, "instance extension", NameSet{Required: required, Actual: actual})
	return nil
}

// ReportLayers logs the available instance layers against required.
func ReportLayers(logger *slog.Logger, required []string) error {
	actual, err := ValidationLayers()
	if err != nil {
		return kindf(ErrSetup, err, "enumerate layers")
	}
	reportNames(logger, "layer", NameSet{Required: required, Actual: actual})
	return nil
}

func reportNames(logger *slog.Logger, what string, set NameSet) {
	for _, name := range set.Actual {
		logger.Debug("available "+what, "name", name)
	}
	for _, name := range set.Missing() {
		logger.Warn("missing "+what, "name", name)
	}
	logger.Info(what+"s", "available", len(set.Actual), "required", len(set.Required),
		"missing", len(set.Missing()))
}

// ReportDevices logs the ranked device table. The picked row is starred.
func ReportDevices(logger *slog.Logger, sel Selection) {
	for i, r := range sel.Ranked {
		mark := " "
		if i == sel.Picked {
			mark = "*"
		}
		logger.Info(mark+" device",
			"score", r.Score,
			"id", r.Candidate.ID,
			"name", r.Candidate.Name,
			"type", deviceTypeName(r.Candidate.Type),
			"reason", r.Reason)
	}
}

func deviceTypeName(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	}
	return "other"
}
