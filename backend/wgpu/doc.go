// Package wgpu implements gfx.Device on top of the gogpu/wgpu HAL.
//
// A Device wraps one hal.Device and hal.Queue. It either presents to a
// hal.Surface (windowed) or renders into an offscreen texture that can be
// read back with ReadPixels (headless).
//
// # Opening a device
//
// Headless, on the first adapter of a registered HAL backend:
//
//	dev, err := wgpu.Open(wgpu.Options{Backend: gputypes.BackendVulkan, Width: 800, Height: 600})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Destroy()
//
// From a host application that already owns a device (gogpu, ggcanvas):
//
//	dev, err := wgpu.NewFromProvider(provider, 800, 600)
//
// # Shaders
//
// The HAL accepts WGSL and SPIR-V. A Vulkan device reports gfx.BackendVulkan
// so resolvers hand it SPIR-V; every other HAL backend reports
// gfx.BackendWebGPU and receives WGSL, which the HAL translates itself.
//
// # Resources
//
// Every pipeline shares one bind group layout: a viewport uniform at
// binding 0, the sampled texture at binding 1 and the sampler at binding 2.
// Bind groups are cached per (target size, texture, sampler) and dropped
// when either resource is released.
package wgpu
