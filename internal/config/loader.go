package config

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flags to their viper keys
var flagKeys = map[string]string{
	"compiler":         "compiler_path",
	"stage-flag":       "stage_flag",
	"suffix":           "output_suffix",
	"dir":              "work_dir",
	"jobs":             "jobs",
	"missing-compiler": "missing_compiler",
	"out":              "out",
	"cache-dir":        "cache_dir",
	"cache":            "cache",
	"silent":           "silent",
	"verbose":          "verbose",
	"progress":         "progress",
}

// Loader handles configuration loading from various sources
type Loader struct{}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadForBuild loads configuration specifically for build operations.
// Positional args, when present, replace the configured shader list.
func (l *Loader) LoadForBuild(cmd *cobra.Command, args []string) (*Config, error) {
	l.setupViperDefaults()
	l.loadGlobalConfig()
	l.loadLocalConfig(workDirFlag(cmd))
	l.bindCommandFlags(cmd)

	if len(args) > 0 {
		viper.Set("shaders", args)
	}

	return Load()
}

// setupViperDefaults sets up default values for viper
func (l *Loader) setupViperDefaults() {
	viper.SetDefault("compiler_path", DefaultCompilerPath)
	viper.SetDefault("stage_flag", DefaultStageFlag)
	viper.SetDefault("output_suffix", DefaultOutputSuffix)
	viper.SetDefault("shaders", DefaultShaders)
	viper.SetDefault("work_dir", DefaultWorkDir)
	viper.SetDefault("jobs", DefaultJobs)
	viper.SetDefault("missing_compiler", DefaultMissingCompiler)
	viper.SetDefault("cache", DefaultCache)
	viper.SetDefault("silent", DefaultSilent)
	viper.SetDefault("verbose", DefaultVerbose)
	viper.SetDefault("progress", DefaultProgress)
}

// loadGlobalConfig loads the per-user configuration file
func (l *Loader) loadGlobalConfig() {
	dir := globalConfigDir()
	if dir == "" {
		return
	}

	if path := FindGlobalConfig(dir); path != "" {
		viper.SetConfigFile(path)
		_ = viper.ReadInConfig()
	}
}

// loadLocalConfig merges the nearest .spvc.* file above dir
func (l *Loader) loadLocalConfig(dir string) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return // silently ignore, config.Load() will handle validation
	}

	localPath := FindLocalConfig(abs)
	if localPath != "" {
		viper.SetConfigFile(localPath)
		_ = viper.MergeInConfig()
	}
}

// bindCommandFlags binds command flags to viper
func (l *Loader) bindCommandFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}

func workDirFlag(cmd *cobra.Command) string {
	if cmd == nil {
		return DefaultWorkDir
	}

	dir, err := cmd.Flags().GetString("dir")
	if err != nil || dir == "" {
		return DefaultWorkDir
	}

	return dir
}
