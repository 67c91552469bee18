//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"

	"github.com/gogpu/liquidglass"
)

//go:embed shaders/glass.wgsl
var glassShaderSource string

// validateShader runs the WGSL source through naga before handing it to
// the HAL backend. A validation failure here is a packaging defect and
// maps to the fatal compile error.
func validateShader(source string) error {
	if source == "" {
		return fmt.Errorf("%w: shader source is empty", liquidglass.ErrShaderCompile)
	}
	if _, err := naga.Compile(source); err != nil {
		return fmt.Errorf("%w: %v", liquidglass.ErrShaderCompile, err)
	}
	return nil
}
