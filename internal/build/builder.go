// Package build compiles a list of shaders, one compiler invocation per
// shader, and aggregates the outcomes into a Report.
package build

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Norgate-AV/spvc/internal/cache"
	"github.com/Norgate-AV/spvc/internal/compiler"
	"github.com/Norgate-AV/spvc/internal/config"
	"github.com/Norgate-AV/spvc/internal/logging"
)

// Runner executes a single compiler invocation
type Runner interface {
	ExecuteCommand(ctx context.Context, sc *compiler.ShellCommand) *compiler.Result
}

// Cache is the subset of the build cache the builder needs
type Cache interface {
	Get(source string, cfg *config.Config) (*cache.Entry, error)
	Store(source string, cfg *config.Config) error
	Restore(entry *cache.Entry, destDir string) error
}

// Option configures a Builder
type Option func(*Builder)

// WithCache enables the build cache
func WithCache(c Cache) Option {
	return func(b *Builder) {
		b.cache = c
	}
}

// WithProgress registers a callback invoked once per finished shader
func WithProgress(fn func(*compiler.Result)) Option {
	return func(b *Builder) {
		b.onDone = fn
	}
}

// WithLocator overrides how the compiler executable is looked up
func WithLocator(fn func(path string) (string, error)) Option {
	return func(b *Builder) {
		b.locate = fn
	}
}

// Builder compiles the configured shader list
type Builder struct {
	cfg    *config.Config
	runner Runner
	cache  Cache
	locate func(path string) (string, error)

	onDone func(*compiler.Result)
	doneMu sync.Mutex
}

// New creates a builder for cfg
func New(cfg *config.Config, runner Runner, opts ...Option) *Builder {
	b := &Builder{
		cfg:    cfg,
		runner: runner,
		locate: compiler.LocateCompiler,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Build runs one compiler invocation per configured shader and waits for
// all of them. A failed shader never stops the others. Results are
// reported in list order whatever the job count.
//
// The only error returned is a pre-flight failure: under the fatal missing
// compiler policy, a compiler that cannot be found aborts before any
// shader is attempted.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	log := logging.FromContext(ctx)
	shaders := b.cfg.Shaders

	if b.cfg.MissingCompiler == config.MissingCompilerFatal {
		path, err := b.locate(b.cfg.CompilerPath)
		if err != nil {
			return nil, err
		}

		log.Debug().Str("compiler", path).Msg("Using shader compiler")
	}

	jobs := b.cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}

	log.Debug().Int("shaders", len(shaders)).Int("jobs", jobs).Msg("Starting build")

	results := make([]*compiler.Result, len(shaders))

	var g errgroup.Group
	g.SetLimit(jobs)

	for i, shader := range shaders {
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = skipped(b.cfg, shader)
			} else {
				results[i] = b.compile(ctx, shader)
			}

			b.done(results[i])
			return nil
		})
	}

	_ = g.Wait()

	return &Report{Results: results}, nil
}

func (b *Builder) compile(ctx context.Context, shader string) *compiler.Result {
	log := logging.FromContext(ctx).With().Str("shader", shader).Logger()
	sc := compiler.GetBuildCommand(b.cfg, shader)

	if res := b.restore(&log, sc); res != nil {
		return res
	}

	log.Debug().Str("command", sc.String()).Msg("Compiling")
	res := b.runner.ExecuteCommand(ctx, sc)

	// A compiler killed by cancellation did not fail the shader
	if res.Err != nil && ctx.Err() != nil {
		log.Warn().Msg("Compilation cancelled")
		res.Skipped = true
		res.Err = eris.Wrap(ctx.Err(), "build cancelled")
		return res
	}

	b.logResult(&log, res)

	if res.Err == nil && b.cache != nil {
		if err := b.cache.Store(shader, b.cfg); err != nil {
			log.Warn().Err(err).Msg("Failed to cache artifact")
		}
	}

	return res
}

// restore returns a result when the shader's artifact was restored from the cache
func (b *Builder) restore(log *zerolog.Logger, sc *compiler.ShellCommand) *compiler.Result {
	if b.cache == nil {
		return nil
	}

	entry, err := b.cache.Get(sc.Source, b.cfg)
	if err != nil {
		// Let the compiler report unreadable sources
		log.Debug().Err(err).Msg("Cache lookup failed")
		return nil
	}

	if entry == nil {
		return nil
	}

	if err := b.cache.Restore(entry, b.cfg.WorkDir); err != nil {
		log.Warn().Err(err).Msg("Failed to restore cached artifact")
		return nil
	}

	log.Info().Msg("Restored from cache")

	return &compiler.Result{
		Source:  sc.Source,
		Output:  sc.Output,
		Command: sc,
		Cached:  true,
	}
}

func (b *Builder) logResult(log *zerolog.Logger, res *compiler.Result) {
	var evt *zerolog.Event
	if res.Err != nil {
		evt = log.Error().Err(res.Err).Int("exit_code", res.ExitCode)
	} else {
		evt = log.Info()
	}

	if !b.cfg.Silent && len(res.Log) > 0 {
		evt = evt.Bytes("log", res.Log)
	}

	if res.Err != nil {
		evt.Msg("Compilation failed")
		return
	}

	evt.Dur("took", res.Duration).Msg("Compiled")
}

func (b *Builder) done(res *compiler.Result) {
	if b.onDone == nil {
		return
	}

	b.doneMu.Lock()
	defer b.doneMu.Unlock()

	b.onDone(res)
}

func skipped(cfg *config.Config, shader string) *compiler.Result {
	sc := compiler.GetBuildCommand(cfg, shader)

	return &compiler.Result{
		Source:   sc.Source,
		Output:   sc.Output,
		ExitCode: -1,
		Skipped:  true,
		Err:      eris.New("build cancelled"),
	}
}
