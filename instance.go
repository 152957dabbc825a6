package vitamin

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Instance is the Vulkan instance and its optional debug report callback.
type Instance struct {
	Handle vk.Instance
	Layers []string

	debugCallback vk.DebugReportCallback
}

// CreateInstance creates an instance with the extensions the window needs.
// With cfg.Validation the required layers and the debug report extension are
// enabled when available; missing ones are logged and skipped.
func CreateInstance(cfg Config, window Window) (inst *Instance, err error) {
	defer checkErr(&err)

	actualExtensions, err := InstanceExtensions()
	if err != nil {
		return nil, kindf(ErrSetup, err, "enumerate instance extensions")
	}
	extensions := NameSet{
		Required: safeStrings(window.RequiredInstanceExtensions()),
		Actual:   actualExtensions,
	}
	if cfg.Validation {
		extensions.Wanted = []string{safeString(vk.ExtDebugReportExtensionName)}
	}
	if missing := extensions.Missing(); len(missing) > 0 {
		return nil, kindf(ErrSetup, nil, "missing instance extensions %v", missing)
	}

	var layers []string
	if required := cfg.layers(); len(required) > 0 {
		actualLayers, err := ValidationLayers()
		if err != nil {
			return nil, kindf(ErrSetup, err, "enumerate layers")
		}
		set := NameSet{Wanted: safeStrings(required), Actual: actualLayers}
		for _, name := range (NameSet{Required: required, Actual: actualLayers}).Missing() {
			Logger().Warn("validation layer unavailable", "layer", name)
		}
		layers = set.Enabled()
	}

	enabled := extensions.Enabled()
	var handle vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
			ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
			PApplicationName:   safeString(cfg.AppName),
			PEngineName:        "vitamin\x00",
		},
		EnabledExtensionCount:   uint32(len(enabled)),
		PpEnabledExtensionNames: enabled,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}, nil, &handle)
	if isError(ret) {
		return nil, kindf(ErrSetup, newError(ret), "create instance")
	}
	if err := vk.InitInstance(handle); err != nil {
		vk.DestroyInstance(handle, nil)
		return nil, kindf(ErrSetup, err, "init instance")
	}
	inst = &Instance{Handle: handle, Layers: layers}
	Logger().Info("instance created", "extensions", len(enabled), "layers", len(layers))

	if cfg.Validation && hasName(enabled, vk.ExtDebugReportExtensionName) {
		ret := vk.CreateDebugReportCallback(handle, &vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: debugReport,
		}, nil, &inst.debugCallback)
		if isError(ret) {
			Logger().Warn("debug report callback unavailable", "error", newError(ret))
		}
	}
	return inst, nil
}

func hasName(list []string, name string) bool {
	_, missing := checkExisting(list, []string{name})
	return missing == 0
}

func (inst *Instance) Destroy() {
	if inst.Handle == nil {
		return
	}
	if inst.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(inst.Handle, inst.debugCallback, nil)
		inst.debugCallback = vk.NullDebugReportCallback
	}
	vk.DestroyInstance(inst.Handle, nil)
	inst.Handle = nil
}

func debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	l := Logger().With("layer", pLayerPrefix, "code", messageCode)
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		l.Error(pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		l.Warn(pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		l.Warn(pMessage, "performance", true)
	default:
		l.Debug(pMessage)
	}
	return vk.Bool32(vk.False)
}
