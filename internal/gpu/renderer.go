//go:build !nogpu

// Package gpu implements the liquid-glass distortion pass on wgpu/hal:
// a render pipeline drawing one full-screen quad whose fragment shader
// evaluates the distortion, plus the upload/readback plumbing around
// it. Enabled by importing the public liquidglass/gpu package.
package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/liquidglass"
	"github.com/gogpu/liquidglass/internal/glass"
)

// fenceTimeout bounds the wait for a submitted frame. A hung GPU
// surfaces as a readback error instead of blocking forever.
const fenceTimeout = 5 * time.Second

// Renderer owns the compiled glass pipeline and the per-size textures.
// One renderer serves one pipeline instance; the caller guarantees at
// most one Render call in flight.
type Renderer struct {
	dev *deviceHandles

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	sampler    hal.Sampler

	// Input and output textures, recreated when dimensions change.
	srcTex  hal.Texture
	srcView hal.TextureView
	dstTex  hal.Texture
	dstView hal.TextureView

	width, height uint32
}

var _ liquidglass.Renderer = (*Renderer)(nil)

// New opens a GPU device (or borrows one from cfg.DeviceProvider) and
// compiles the distortion pipeline. On any failure all partially
// created resources are released before returning.
func New(cfg liquidglass.RendererConfig) (*Renderer, error) {
	var dev *deviceHandles
	var err error
	if cfg.DeviceProvider != nil {
		dev, err = deviceFromProvider(cfg.DeviceProvider)
	} else {
		dev, err = openDevice()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", liquidglass.ErrNoGPU, err)
	}

	r := &Renderer{dev: dev}
	if err := r.createPipeline(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// NewWithDevice builds a renderer on an already opened HAL device and
// queue. Used by tests with the noop backend.
func NewWithDevice(device hal.Device, queue hal.Queue) (*Renderer, error) {
	r := &Renderer{dev: &deviceHandles{device: device, queue: queue, external: true}}
	if err := r.createPipeline(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// createPipeline compiles the shader and builds the static pipeline
// objects: bind group layout (uniforms, texture, sampler), pipeline
// layout, sampler, and the render pipeline itself.
func (r *Renderer) createPipeline() error {
	if err := validateShader(glassShaderSource); err != nil {
		return err
	}

	shader, err := r.dev.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "glass_shader",
		Source: hal.ShaderSource{WGSL: glassShaderSource},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", liquidglass.ErrShaderCompile, err)
	}
	r.shader = shader

	// Bind group layout:
	//   Binding 0: GlassUniforms (uniform buffer, fragment)
	//   Binding 1: source frame (texture_2d, fragment)
	//   Binding 2: sampler (fragment)
	bindLayout, err := r.dev.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "glass_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: create bind group layout: %v", liquidglass.ErrResource, err)
	}
	r.bindLayout = bindLayout

	pipeLayout, err := r.dev.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "glass_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("%w: create pipeline layout: %v", liquidglass.ErrResource, err)
	}
	r.pipeLayout = pipeLayout

	// Bilinear filtering with clamp-to-edge, matching the software
	// renderer's sampling.
	sampler, err := r.dev.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "glass_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("%w: create sampler: %v", liquidglass.ErrResource, err)
	}
	r.sampler = sampler

	pipeline, err := r.dev.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "glass_pipeline",
		Layout: r.pipeLayout,
		Vertex: hal.VertexState{
			Module:     r.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     r.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatRGBA8Unorm,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleStrip,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: create render pipeline: %v", liquidglass.ErrResource, err)
	}
	r.pipeline = pipeline

	return nil
}

// Render uploads the frame, runs one distortion pass, and reads the
// result back into dst. Blocks until the GPU finishes.
func (r *Renderer) Render(src []byte, width, height int, p liquidglass.Params, dst []byte) error {
	w, h := uint32(width), uint32(height) //nolint:gosec // dimensions always fit uint32
	if err := r.ensureTextures(w, h); err != nil {
		return err
	}

	// Upload the source frame.
	r.dev.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: r.srcTex, MipLevel: 0},
		src,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)

	u := glass.Uniforms{
		ResolutionX:        float32(width),
		ResolutionY:        float32(height),
		FocalX:             p.FocalX,
		FocalY:             p.FocalY,
		EffectSize:         p.EffectSize,
		BlurIntensity:      p.BlurIntensity,
		DispersionStrength: p.DispersionStrength,
		GlassIntensity:     p.GlassIntensity,
	}
	uniformBuf, err := r.createAndUploadBuffer("glass_uniform", u.Bytes(),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	defer r.dev.device.DestroyBuffer(uniformBuf)

	bindGroup, err := r.dev.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "glass_bind",
		Layout: r.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: glass.UniformsSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: r.srcView.NativeHandle(),
			}},
			{Binding: 2, Resource: gputypes.SamplerBinding{
				Sampler: r.sampler.NativeHandle(),
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: create bind group: %v", liquidglass.ErrResource, err)
	}
	defer r.dev.device.DestroyBindGroup(bindGroup)

	return r.encodeAndReadback(w, h, bindGroup, dst)
}

// ensureTextures creates or recreates the input and output textures
// when the frame dimensions change.
func (r *Renderer) ensureTextures(w, h uint32) error {
	if r.width == w && r.height == h && r.srcTex != nil {
		return nil
	}
	r.destroyTextures()

	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	srcTex, err := r.dev.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "glass_src",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("%w: create source texture: %v", liquidglass.ErrResource, err)
	}
	r.srcTex = srcTex

	srcView, err := r.dev.device.CreateTextureView(srcTex, &hal.TextureViewDescriptor{
		Label:         "glass_src_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		r.destroyTextures()
		return fmt.Errorf("%w: create source view: %v", liquidglass.ErrResource, err)
	}
	r.srcView = srcView

	dstTex, err := r.dev.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "glass_dst",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		r.destroyTextures()
		return fmt.Errorf("%w: create target texture: %v", liquidglass.ErrResource, err)
	}
	r.dstTex = dstTex

	dstView, err := r.dev.device.CreateTextureView(dstTex, &hal.TextureViewDescriptor{
		Label:         "glass_dst_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		r.destroyTextures()
		return fmt.Errorf("%w: create target view: %v", liquidglass.ErrResource, err)
	}
	r.dstView = dstView

	r.width = w
	r.height = h
	return nil
}

// encodeAndReadback encodes the render pass, copies the target texture
// to a staging buffer, submits, waits on a fence, and reads the pixels
// back into dst.
func (r *Renderer) encodeAndReadback(w, h uint32, bindGroup hal.BindGroup, dst []byte) error {
	encoder, err := r.dev.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "glass_encoder",
	})
	if err != nil {
		return fmt.Errorf("%w: create command encoder: %v", liquidglass.ErrResource, err)
	}
	if err := encoder.BeginEncoding("glass_frame"); err != nil {
		return fmt.Errorf("%w: begin encoding: %v", liquidglass.ErrResource, err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "glass_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       r.dstView,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	rp.SetPipeline(r.pipeline)
	rp.SetBindGroup(0, bindGroup, nil)
	rp.Draw(4, 1, 0, 0)
	rp.End()

	// The render pass leaves the target in attachment layout;
	// CopyTextureToBuffer needs transfer-source. No-op on backends
	// without explicit layouts.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.dstTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	pixelBufSize := uint64(w) * uint64(h) * 4
	stagingBuf, err := r.dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glass_staging",
		Size:  pixelBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("%w: create staging buffer: %v", liquidglass.ErrResource, err)
	}
	defer r.dev.device.DestroyBuffer(stagingBuf)

	encoder.CopyTextureToBuffer(r.dstTex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: r.dstTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("%w: end encoding: %v", liquidglass.ErrResource, err)
	}
	defer r.dev.device.FreeCommandBuffer(cmdBuf)

	fence, err := r.dev.device.CreateFence()
	if err != nil {
		return fmt.Errorf("%w: create fence: %v", liquidglass.ErrResource, err)
	}
	defer r.dev.device.DestroyFence(fence)

	if err := r.dev.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("%w: submit: %v", liquidglass.ErrResource, err)
	}
	fenceOK, err := r.dev.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("%w: wait for GPU: ok=%v err=%v", liquidglass.ErrReadback, fenceOK, err)
	}

	if err := r.dev.queue.ReadBuffer(stagingBuf, 0, dst); err != nil {
		return fmt.Errorf("%w: %v", liquidglass.ErrReadback, err)
	}
	return nil
}

// createAndUploadBuffer creates a GPU buffer and uploads data.
func (r *Renderer) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := r.dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", liquidglass.ErrResource, label, err)
	}
	r.dev.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// destroyTextures releases the per-size textures and resets dimensions.
func (r *Renderer) destroyTextures() {
	if r.dstView != nil {
		r.dev.device.DestroyTextureView(r.dstView)
		r.dstView = nil
	}
	if r.dstTex != nil {
		r.dev.device.DestroyTexture(r.dstTex)
		r.dstTex = nil
	}
	if r.srcView != nil {
		r.dev.device.DestroyTextureView(r.srcView)
		r.srcView = nil
	}
	if r.srcTex != nil {
		r.dev.device.DestroyTexture(r.srcTex)
		r.srcTex = nil
	}
	r.width = 0
	r.height = 0
}

// Close releases all GPU resources in reverse creation order. Safe to
// call multiple times.
func (r *Renderer) Close() error {
	if r.dev == nil || r.dev.device == nil {
		return nil
	}
	r.destroyTextures()
	if r.pipeline != nil {
		r.dev.device.DestroyRenderPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.sampler != nil {
		r.dev.device.DestroySampler(r.sampler)
		r.sampler = nil
	}
	if r.pipeLayout != nil {
		r.dev.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.bindLayout != nil {
		r.dev.device.DestroyBindGroupLayout(r.bindLayout)
		r.bindLayout = nil
	}
	if r.shader != nil {
		r.dev.device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
	r.dev.close()
	return nil
}
