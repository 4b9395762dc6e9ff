package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Norgate-AV/spvc/internal/config"
	"github.com/Norgate-AV/spvc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "spvc [shaders...]",
	Short: "Batch SPIR-V shader compiler",
	Long: `Compile a list of GLSL shaders to SPIR-V with glslangValidator.

Each shader is compiled with one compiler invocation:
  glslangValidator -G <shader> -o <shader>.spv

Shaders are taken from the arguments, or from the "shaders" list in
.spvc.yml when no arguments are given.`,
	RunE:         runBuild,
	SilenceUsage: true,
	Args:         cobra.ArbitraryArgs,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (%s) %s", version.Version, version.Commit, version.BuildTime)
	rootCmd.PersistentFlags().StringP("compiler", "c", "", "Shader compiler executable (default \"glslangValidator\")")
	rootCmd.PersistentFlags().StringP("dir", "C", "", "Directory containing the shader sources")
	rootCmd.PersistentFlags().IntP("jobs", "j", config.DefaultJobs, "Concurrent compiler invocations (0 = one per CPU)")
	rootCmd.PersistentFlags().String("stage-flag", "", "Compiler flag selecting the shader stage (default \"-G\")")
	rootCmd.PersistentFlags().String("suffix", "", "Suffix appended to each shader name for its output (default \".spv\")")
	rootCmd.PersistentFlags().String("missing-compiler", "", "Missing compiler policy: fatal or per-file (default \"fatal\")")
	rootCmd.PersistentFlags().BoolP("silent", "s", false, "Suppress console output from the shader compiler")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().Bool("progress", false, "Show a progress bar; only warnings and failures are logged")
	rootCmd.PersistentFlags().StringP("out", "o", "", "Output file for build logs")
	rootCmd.PersistentFlags().Bool("cache", false, "Restore unchanged shaders from the build cache instead of recompiling")
	rootCmd.PersistentFlags().String("cache-dir", "", "Build cache directory (default \"<dir>/.spvc-cache\")")
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(cacheCmd)

	viper.SetDefault("compiler_path", config.DefaultCompilerPath)
	viper.SetDefault("jobs", config.DefaultJobs)
	viper.SetDefault("silent", config.DefaultSilent)
	viper.SetDefault("verbose", config.DefaultVerbose)
}
