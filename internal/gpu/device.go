//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/liquidglass"
)

// deviceHandles bundles the HAL objects a renderer needs. When the
// device comes from an external provider, instance is nil and close
// leaves the device alone.
type deviceHandles struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool
}

// openDevice opens the first usable GPU adapter, preferring discrete
// over integrated hardware.
func openDevice() (*deviceHandles, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	liquidglass.Logger().Info("GPU adapter selected", "name", selected.Info.Name)
	return &deviceHandles{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
	}, nil
}

// deviceFromProvider borrows a shared GPU device from an external
// provider (e.g. a gogpu window). The provider must expose HalDevice()
// and HalQueue() returning wgpu/hal types.
func deviceFromProvider(provider any) (*deviceHandles, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("provider HalQueue is not hal.Queue")
	}
	return &deviceHandles{device: device, queue: queue, external: true}, nil
}

// close releases the owned device and instance. Borrowed devices are
// only detached, never destroyed.
func (d *deviceHandles) close() {
	if !d.external {
		if d.device != nil {
			d.device.Destroy()
		}
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
}
