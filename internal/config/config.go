package config

import (
	"path/filepath"
	"runtime"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"

	"github.com/Norgate-AV/spvc/internal/utils"
)

// Default configuration values
const (
	DefaultCompilerPath    = "glslangValidator"
	DefaultStageFlag       = "-G"
	DefaultOutputSuffix    = ".spv"
	DefaultWorkDir         = "."
	DefaultJobs            = 1
	DefaultMissingCompiler = MissingCompilerFatal
	DefaultCacheDir        = ".spvc-cache"
	DefaultSilent          = false
	DefaultVerbose         = false
	DefaultCache           = false
	DefaultProgress        = false
)

// Policies for a compiler executable that cannot be found
const (
	// MissingCompilerFatal aborts before any shader is compiled
	MissingCompilerFatal = "fatal"

	// MissingCompilerPerFile attempts every shader and reports each one as failed
	MissingCompilerPerFile = "per-file"
)

// DefaultShaders is the shader list used when neither config nor arguments provide one
var DefaultShaders = []string{
	"cells.comp",
	"circles.comp",
	"meta_bg.comp",
	"meta_params.comp",
	"meta_rgb.comp",
	"meta_ro.comp",
}

// Holds the configuration options for spvc
type Config struct {
	// Shader compiler executable, resolved through PATH when not absolute
	CompilerPath string

	// Flag selecting the compilation stage (glslangValidator -G)
	StageFlag string

	// Suffix appended to each source name to form its output name
	OutputSuffix string

	// Ordered shader source names, relative to WorkDir
	Shaders []string

	// Directory the compiler runs in
	WorkDir string

	// Maximum concurrent compiler invocations
	Jobs int

	// What to do when the compiler executable is missing
	MissingCompiler string

	// Output file for build logs
	OutputFile string

	// Build cache location
	CacheDir string

	// Restore unchanged shaders from the build cache instead of recompiling
	Cache bool

	// Suppress console output from the shader compiler
	Silent bool

	// Enable verbose output
	Verbose bool

	// Show a progress bar instead of per-shader log lines
	Progress bool
}

func Load() (*Config, error) {
	cfg := &Config{
		CompilerPath:    viper.GetString("compiler_path"),
		StageFlag:       viper.GetString("stage_flag"),
		OutputSuffix:    viper.GetString("output_suffix"),
		Shaders:         viper.GetStringSlice("shaders"),
		WorkDir:         viper.GetString("work_dir"),
		Jobs:            viper.GetInt("jobs"),
		MissingCompiler: viper.GetString("missing_compiler"),
		OutputFile:      viper.GetString("out"),
		CacheDir:        viper.GetString("cache_dir"),
		Cache:           viper.GetBool("cache"),
		Silent:          viper.GetBool("silent"),
		Verbose:         viper.GetBool("verbose"),
		Progress:        viper.GetBool("progress"),
	}

	// Apply defaults if not set
	if cfg.CompilerPath == "" {
		cfg.CompilerPath = DefaultCompilerPath
	}

	if cfg.StageFlag == "" {
		cfg.StageFlag = DefaultStageFlag
	}

	if cfg.OutputSuffix == "" {
		cfg.OutputSuffix = DefaultOutputSuffix
	}

	if len(cfg.Shaders) == 0 {
		cfg.Shaders = append([]string(nil), DefaultShaders...)
	}

	if cfg.WorkDir == "" {
		cfg.WorkDir = DefaultWorkDir
	}

	if cfg.MissingCompiler == "" {
		cfg.MissingCompiler = DefaultMissingCompiler
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	abs, err := filepath.Abs(c.WorkDir)
	if err != nil {
		return eris.Wrap(err, "invalid working directory")
	}

	c.WorkDir = abs

	// Resolve output file path
	if c.OutputFile != "" {
		abs, err := filepath.Abs(c.OutputFile)
		if err != nil {
			return eris.Wrap(err, "invalid output file path")
		}

		c.OutputFile = abs
	}

	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(c.WorkDir, DefaultCacheDir)
	} else if !filepath.IsAbs(c.CacheDir) {
		c.CacheDir = filepath.Join(c.WorkDir, c.CacheDir)
	}

	if c.CompilerPath == "" {
		return eris.New("compiler path not specified")
	}

	if c.StageFlag == "" {
		return eris.New("stage flag not specified")
	}

	// An empty suffix would make the compiler overwrite its own input
	if c.OutputSuffix == "" {
		return eris.New("output suffix not specified")
	}

	switch {
	case c.Jobs == 0:
		c.Jobs = runtime.NumCPU()
	case c.Jobs < 0:
		return eris.Errorf("invalid job count: %d", c.Jobs)
	}

	if c.MissingCompiler != MissingCompilerFatal && c.MissingCompiler != MissingCompilerPerFile {
		return eris.Errorf("invalid missing compiler policy: %s (expected %s or %s)",
			c.MissingCompiler, MissingCompilerFatal, MissingCompilerPerFile)
	}

	return validateShaders(c.Shaders)
}

// UnknownStages lists shaders whose extension does not name a shader stage
func (c *Config) UnknownStages() []string {
	var unknown []string
	for _, shader := range c.Shaders {
		if _, ok := utils.ShaderStage(shader); !ok {
			unknown = append(unknown, shader)
		}
	}

	return unknown
}

func validateShaders(shaders []string) error {
	if len(shaders) == 0 {
		return eris.New("no shaders specified")
	}

	seen := make(map[string]struct{}, len(shaders))
	for i, shader := range shaders {
		if shader == "" {
			return eris.Errorf("empty shader name at position %d", i+1)
		}

		if _, ok := seen[shader]; ok {
			return eris.Errorf("duplicate shader: %s", shader)
		}

		seen[shader] = struct{}{}
	}

	return nil
}
