package liquidglass

// Backend selects how a pipeline renders frames.
type Backend uint8

const (
	// BackendAuto uses the registered GPU renderer when available and
	// falls back to the software renderer otherwise. This is the
	// default.
	BackendAuto Backend = iota

	// BackendGPU requires the GPU renderer; Init fails with ErrNoGPU
	// when none is registered or the device cannot be opened.
	BackendGPU

	// BackendSoftware always uses the CPU renderer.
	BackendSoftware
)

// String returns a string representation of the backend.
func (b Backend) String() string {
	switch b {
	case BackendAuto:
		return "auto"
	case BackendGPU:
		return "gpu"
	case BackendSoftware:
		return "software"
	default:
		return "unknown"
	}
}

type config struct {
	backend  Backend
	renderer Renderer
	provider any
}

// Option configures a Pipeline at construction time.
type Option func(*config)

// WithBackend selects the rendering backend.
func WithBackend(b Backend) Option {
	return func(c *config) { c.backend = b }
}

// WithRenderer injects a pre-built renderer, bypassing backend
// selection. The pipeline takes ownership and closes it on Dispose.
// Primarily useful for tests and instrumentation.
func WithRenderer(r Renderer) Option {
	return func(c *config) { c.renderer = r }
}

// WithDeviceProvider shares an externally owned GPU device with the
// pipeline's renderer (for example a window's gpucontext provider).
// Only consulted by GPU backends.
func WithDeviceProvider(provider any) Option {
	return func(c *config) { c.provider = provider }
}
