package utils

import (
	"path/filepath"
	"strings"
)

// stages maps GLSL source extensions to the pipeline stage glslangValidator infers from them
var stages = map[string]string{
	".comp":  "compute",
	".vert":  "vertex",
	".frag":  "fragment",
	".geom":  "geometry",
	".tesc":  "tessellation control",
	".tese":  "tessellation evaluation",
	".mesh":  "mesh",
	".task":  "task",
	".rgen":  "ray generation",
	".rint":  "intersection",
	".rahit": "any hit",
	".rchit": "closest hit",
	".rmiss": "miss",
	".rcall": "callable",
}

// OutputName derives the compiled artifact name for a shader source
func OutputName(source, suffix string) string {
	return source + suffix
}

// ResolvePath returns name as given when it is absolute, else name joined onto dir
func ResolvePath(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}

	return filepath.Join(dir, name)
}

// ShaderStage returns the pipeline stage for a shader source name and
// whether the extension is one glslangValidator recognises
func ShaderStage(name string) (string, bool) {
	stage, ok := stages[strings.ToLower(filepath.Ext(name))]
	return stage, ok
}
