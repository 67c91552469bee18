package liquidglass

import "errors"

// Sentinel errors returned by the pipeline. Callers match them with
// errors.Is; returned errors wrap these with call-specific detail.
var (
	// ErrNoGPU indicates no usable GPU adapter was found. Fatal for
	// the instance; there is no retry path.
	ErrNoGPU = errors.New("liquidglass: no compatible GPU found")

	// ErrShaderCompile indicates the distortion shader failed to
	// build. Fatal; it points at a packaging defect, not a runtime
	// condition.
	ErrShaderCompile = errors.New("liquidglass: shader compilation failed")

	// ErrInvalidInput indicates a caller-supplied buffer or dimension
	// is inconsistent. The frame is rejected before any processing.
	ErrInvalidInput = errors.New("liquidglass: invalid input")

	// ErrResource indicates a transient allocation failure (buffers,
	// textures, command encoders). Safe to retry after backoff.
	ErrResource = errors.New("liquidglass: resource allocation failed")

	// ErrReadback indicates the copy-out failed after a successful
	// render. Treated as transient.
	ErrReadback = errors.New("liquidglass: readback failed")

	// ErrNotInitialized indicates an operation ran before Init
	// succeeded or after Dispose.
	ErrNotInitialized = errors.New("liquidglass: pipeline not initialized")

	// ErrBusy indicates an async frame was rejected because another
	// frame is still in flight on the same pipeline.
	ErrBusy = errors.New("liquidglass: frame already in flight")
)
