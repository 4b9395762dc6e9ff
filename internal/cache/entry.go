package cache

import "time"

// Entry represents a cached shader build
type Entry struct {
	// Hash is the unique identifier for this cache entry
	// Computed from: source name + source content + compiler + stage flag + output suffix
	Hash string `json:"hash"`

	// SourceFile is the shader source name, relative to the working directory
	SourceFile string `json:"source_file"`

	// Output is the compiled artifact name, relative to the working directory
	Output string `json:"output"`

	// CompilerPath is the compiler that produced the artifact
	CompilerPath string `json:"compiler_path"`

	// StageFlag is the stage selection flag the artifact was compiled with
	StageFlag string `json:"stage_flag"`

	// Size of the cached artifact in bytes
	Size int64 `json:"size"`

	// Timestamp when this entry was created
	Timestamp time.Time `json:"timestamp"`
}
