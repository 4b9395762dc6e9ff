package cmd

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Norgate-AV/spvc/internal/build"
	"github.com/Norgate-AV/spvc/internal/cache"
	"github.com/Norgate-AV/spvc/internal/compiler"
	"github.com/Norgate-AV/spvc/internal/config"
	"github.com/Norgate-AV/spvc/internal/logging"
)

var buildCmd = &cobra.Command{
	Use:          "build [shaders...]",
	Short:        "Compile shaders to SPIR-V",
	Long:         `Compile each shader with one invocation of the shader compiler and report every failure.`,
	RunE:         runBuild,
	SilenceUsage: true,
	Args:         cobra.ArbitraryArgs,
}

// newRunner is swapped out in tests
var newRunner = func() build.Runner {
	return compiler.NewCommandBuilder()
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader().LoadForBuild(cmd, args)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(logging.Options{
		Console: cmd.ErrOrStderr(),
		Color:   useColor(cmd.ErrOrStderr()),
		Verbose: cfg.Verbose,
		Quiet:   cfg.Progress,
		LogFile: cfg.OutputFile,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ctx = logging.WithLogger(ctx, &logger)

	printBuildInfo(&logger, cfg)

	for _, shader := range cfg.UnknownStages() {
		logger.Warn().Str("shader", shader).Msg("Unrecognised shader extension")
	}

	var opts []build.Option

	if cfg.Cache {
		c, err := cache.New(cfg.CacheDir)
		if err != nil {
			// Build without the cache rather than fail
			logger.Warn().Err(err).Msg("Build cache unavailable")
		} else {
			defer c.Close()
			opts = append(opts, build.WithCache(c))
		}
	}

	if cfg.Progress {
		bar := progressbar.NewOptions(len(cfg.Shaders),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("Compiling shaders"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		opts = append(opts, build.WithProgress(func(*compiler.Result) {
			_ = bar.Add(1)
		}))
	}

	report, err := build.New(cfg, newRunner(), opts...).Build(ctx)
	if err != nil {
		return err
	}

	if err := report.Print(cmd.OutOrStdout()); err != nil {
		return err
	}

	return report.Err()
}

// printBuildInfo logs the effective configuration at debug level
func printBuildInfo(logger *zerolog.Logger, cfg *config.Config) {
	logger.Debug().
		Str("compiler", cfg.CompilerPath).
		Str("stage_flag", cfg.StageFlag).
		Str("suffix", cfg.OutputSuffix).
		Str("dir", cfg.WorkDir).
		Int("jobs", cfg.Jobs).
		Str("missing_compiler", cfg.MissingCompiler).
		Strs("shaders", cfg.Shaders).
		Bool("cache", cfg.Cache).
		Msg("Build configuration")
}

// useColor reports whether w is a terminal and NO_COLOR is unset
func useColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	info, err := f.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}
