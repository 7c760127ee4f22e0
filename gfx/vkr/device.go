// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	vk "github.com/devblok/vulkan"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/presenter/gfx"
)

// QueueFamilies are the queue family indices a device renders and presents with.
type QueueFamilies struct {
	Graphics uint32
	Present  uint32
}

// Shared reports whether one family does both.
func (q QueueFamilies) Shared() bool {
	return q.Graphics == q.Present
}

// NewDevice picks the first suitable physical device of the instance,
// creates a logical device on it and the shader modules the pipeline uses.
// The instance surface must be set.
func NewDevice(inst *Instance, shaders []gfx.Shader) (*Device, error) {
	surface := inst.Surface()
	if surface == vk.NullSurface {
		return nil, errors.New("vkr.NewDevice(): instance has no surface")
	}

	var (
		physical vk.PhysicalDevice
		families QueueFamilies
		reasons  []string
	)
	for _, candidate := range inst.AvailableDevices() {
		f, reason := deviceIsSuitable(candidate, surface)
		if reason != "" {
			reasons = append(reasons, reason)
			continue
		}
		physical, families = candidate, f
		break
	}
	if physical == nil {
		return nil, errors.Errorf("vkr.NewDevice(): no suitable device: %v", reasons)
	}

	d := &Device{
		instance: inst,
		physical: physical,
		surface:  surface,
		families: families,
	}
	if err := d.initialise(shaders); err != nil {
		d.Release()
		return nil, err
	}

	log.WithFields(log.Fields{
		"graphicsFamily": families.Graphics,
		"presentFamily":  families.Present,
		"shaders":        len(d.shaders),
	}).Info("vulkan device created")
	return d, nil
}

// Device is the vulkan implementation of gfx.Device.
type Device struct {
	instance *Instance
	physical vk.PhysicalDevice
	surface  vk.Surface
	families QueueFamilies

	device        vk.Device
	graphicsQueue vk.Queue
	presentQueue  vk.Queue
	commandPool   vk.CommandPool
	pipelineCache vk.PipelineCache
	shaders       []shaderModule
}

// deviceIsSuitable checks if the device can present to surface.
// If not suitable string contains the reason
func deviceIsSuitable(device vk.PhysicalDevice, surface vk.Surface) (QueueFamilies, string) {
	var families QueueFamilies

	extensions, err := deviceExtensions(device)
	if err != nil {
		return families, "extensions: " + err.Error()
	}
	if !contains(extensions, vk.KhrSwapchainExtensionName) {
		return families, "no swapchain extension"
	}

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	var graphicsFound, presentFound bool
	for i := uint32(0); i < queueFamilyCount; i++ {
		queueFamilies[i].Deref()
		if !graphicsFound && queueFamilies[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			families.Graphics = i
			graphicsFound = true
		}

		var supportsPresent vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(device, i, surface, &supportsPresent)
		if supportsPresent.B() && (!presentFound || (graphicsFound && families.Graphics == i)) {
			// prefer a single family for both
			families.Present = i
			presentFound = true
		}
		if graphicsFound && presentFound && families.Shared() {
			break
		}
	}
	if !graphicsFound {
		return families, "no graphics queue family"
	}
	if !presentFound {
		return families, "no queue family can present to the surface"
	}

	support, err := surfaceSupport(device, surface)
	if err != nil {
		return families, err.Error()
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return families, "surface has no formats or present modes"
	}
	return families, ""
}

func (d *Device) initialise(shaders []gfx.Shader) error {
	requiredExtensions := []string{
		vk.KhrSwapchainExtensionName,
	}

	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: d.families.Graphics,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}
	if !d.families.Shared() {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: d.families.Present,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(requiredExtensions)),
		PpEnabledExtensionNames: safeStrings(requiredExtensions),
	}
	if layers := d.instance.configuration.Layers; len(layers) > 0 {
		dci.EnabledLayerCount = uint32(len(layers))
		dci.PpEnabledLayerNames = safeStrings(layers)
	}

	var device vk.Device
	if err := vk.Error(vk.CreateDevice(d.physical, &dci, nil, &device)); err != nil {
		return errors.New("vk.CreateDevice(): " + err.Error())
	}
	d.device = device

	var graphicsQueue, presentQueue vk.Queue
	vk.GetDeviceQueue(device, d.families.Graphics, 0, &graphicsQueue)
	vk.GetDeviceQueue(device, d.families.Present, 0, &presentQueue)
	d.graphicsQueue = graphicsQueue
	d.presentQueue = presentQueue

	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.families.Graphics,
	}
	var commandPool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(device, &cpci, nil, &commandPool)); err != nil {
		return errors.New("vk.CreateCommandPool(): " + err.Error())
	}
	d.commandPool = commandPool

	pcci := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}
	var pipelineCache vk.PipelineCache
	if err := vk.Error(vk.CreatePipelineCache(device, &pcci, nil, &pipelineCache)); err != nil {
		return errors.New("vk.CreatePipelineCache(): " + err.Error())
	}
	d.pipelineCache = pipelineCache

	for _, shader := range shaders {
		module, err := newShaderModule(device, shader)
		if err != nil {
			return err
		}
		d.shaders = append(d.shaders, module)
	}
	return nil
}

// SurfaceSupport implements gfx.SurfaceQuerier.
func (d *Device) SurfaceSupport() (gfx.SurfaceSupport, error) {
	return surfaceSupport(d.physical, d.surface)
}

func surfaceSupport(device vk.PhysicalDevice, surface vk.Surface) (gfx.SurfaceSupport, error) {
	var support gfx.SurfaceSupport

	var capabilities vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(device, surface, &capabilities)); err != nil {
		return support, errors.New("vk.GetPhysicalDeviceSurfaceCapabilities(): " + err.Error())
	}
	capabilities.Deref()
	support.Capabilities = gfx.SurfaceCapabilities{
		MinImageCount:  capabilities.MinImageCount,
		MaxImageCount:  capabilities.MaxImageCount,
		CurrentExtent:  fromExtent(capabilities.CurrentExtent),
		MinImageExtent: fromExtent(capabilities.MinImageExtent),
		MaxImageExtent: fromExtent(capabilities.MaxImageExtent),
	}

	var formatCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(device, surface, &formatCount, nil)); err != nil {
		return support, errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	formats := make([]vk.SurfaceFormat, formatCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(device, surface, &formatCount, formats)); err != nil {
		return support, errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	for _, f := range formats {
		f.Deref()
		support.Formats = append(support.Formats, gfx.SurfaceFormat{
			Format:     gfx.Format(f.Format),
			ColorSpace: gfx.ColorSpace(f.ColorSpace),
		})
	}

	var modeCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(device, surface, &modeCount, nil)); err != nil {
		return support, errors.New("vk.GetPhysicalDeviceSurfacePresentModes(): " + err.Error())
	}
	modes := make([]vk.PresentMode, modeCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(device, surface, &modeCount, modes)); err != nil {
		return support, errors.New("vk.GetPhysicalDeviceSurfacePresentModes(): " + err.Error())
	}
	for _, m := range modes {
		support.PresentModes = append(support.PresentModes, gfx.PresentMode(m))
	}
	return support, nil
}

// Release destroys the shader modules, the command pool and the device.
// The device must be idle and every chain object destroyed.
func (d *Device) Release() {
	if d.device == nil {
		return
	}
	for _, shader := range d.shaders {
		shader.Release()
	}
	d.shaders = nil

	if d.pipelineCache != nil {
		vk.DestroyPipelineCache(d.device, d.pipelineCache, nil)
	}
	if d.commandPool != nil {
		vk.DestroyCommandPool(d.device, d.commandPool, nil)
	}
	vk.DestroyDevice(d.device, nil)
	d.device = nil
}
