package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/spvc/internal/build"
	"github.com/Norgate-AV/spvc/internal/compiler"
	"github.com/Norgate-AV/spvc/internal/utils"
)

var persistentFlags = []string{
	"compiler", "dir", "jobs", "stage-flag", "suffix", "missing-compiler",
	"silent", "verbose", "progress", "out", "cache", "cache-dir",
}

// fakeCompiler stands in for glslangValidator: it writes the output file
// for every shader except those in fail
type fakeCompiler struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeCompiler) ExecuteCommand(ctx context.Context, sc *compiler.ShellCommand) *compiler.Result {
	f.mu.Lock()
	f.calls = append(f.calls, sc.String())
	f.mu.Unlock()

	res := &compiler.Result{Source: sc.Source, Output: sc.Output, Command: sc}
	if f.fail[sc.Source] {
		res.ExitCode = 2
		res.Log = []byte("ERROR: " + sc.Source + ":1: syntax error\n")
		res.Err = eris.Errorf("%s: Compile errors (exit code 2)", sc.Source)
		return res
	}

	if err := os.WriteFile(utils.ResolvePath(sc.Dir, sc.Output), []byte("SPIR-V "+sc.Source), 0o644); err != nil {
		res.ExitCode = -1
		res.Err = err
	}

	return res
}

func useFakeCompiler(t *testing.T, fc *fakeCompiler) {
	t.Helper()

	original := newRunner
	t.Cleanup(func() { newRunner = original })

	newRunner = func() build.Runner { return fc }
}

func setupProject(t *testing.T, shaders ...string) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("APPDATA", filepath.Join(dir, "appdata"))
	t.Setenv("NO_COLOR", "1")

	for _, shader := range shaders {
		err := os.WriteFile(filepath.Join(dir, shader), []byte("#version 450\nvoid main() {}\n"), 0o644)
		require.NoError(t, err)
	}

	return dir
}

// execute runs the root command with every persistent flag back at its default
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	viper.Reset()

	for _, name := range persistentFlags {
		f := rootCmd.PersistentFlags().Lookup(name)
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	}

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand_Flags(t *testing.T) {
	for _, name := range persistentFlags {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "flag %q should be registered", name)
	}
}

func TestRunBuild_AllSucceed(t *testing.T) {
	dir := setupProject(t, "cells.comp", "circles.comp")
	fc := &fakeCompiler{}
	useFakeCompiler(t, fc)

	stdout, _, err := execute(t, "--dir", dir, "--missing-compiler", "per-file", "cells.comp", "circles.comp")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"glslangValidator -G cells.comp -o cells.comp.spv",
		"glslangValidator -G circles.comp -o circles.comp.spv",
	}, fc.calls)
	assert.FileExists(t, filepath.Join(dir, "cells.comp.spv"))
	assert.Contains(t, stdout, "2 compiled, 0 cached, 0 failed, 0 skipped")
}

func TestRunBuild_RepeatedDefaultRunsCompileEveryTime(t *testing.T) {
	dir := setupProject(t, "cells.comp", "circles.comp")
	fc := &fakeCompiler{}
	useFakeCompiler(t, fc)

	args := []string{"--dir", dir, "--missing-compiler", "per-file", "cells.comp", "circles.comp"}

	_, _, err := execute(t, args...)
	require.NoError(t, err)

	stdout, _, err := execute(t, args...)
	require.NoError(t, err)

	assert.Len(t, fc.calls, 4, "each run invokes the compiler once per shader")
	assert.Contains(t, stdout, "2 compiled, 0 cached, 0 failed, 0 skipped")
	assert.NoDirExists(t, filepath.Join(dir, ".spvc-cache"))
}

func TestRunBuild_FailureExitsNonZero(t *testing.T) {
	dir := setupProject(t, "cells.comp", "circles.comp", "meta_bg.comp")
	fc := &fakeCompiler{fail: map[string]bool{"circles.comp": true}}
	useFakeCompiler(t, fc)

	stdout, stderr, err := execute(t, "--dir", dir, "--missing-compiler", "per-file",
		"cells.comp", "circles.comp", "meta_bg.comp")
	require.Error(t, err)

	// Every shader is attempted despite the failure
	assert.Len(t, fc.calls, 3)
	assert.Contains(t, err.Error(), "1 of 3 shaders failed: circles.comp")
	assert.Regexp(t, `circles\.comp\s+circles\.comp\.spv\s+failed \(exit code 2\)`, stdout)
	assert.Contains(t, stderr, "circles.comp: Error: Compilation failed")
	assert.Contains(t, stderr, "    ERROR: circles.comp:1: syntax error")
}

func TestRunBuild_SilentHidesCompilerOutput(t *testing.T) {
	dir := setupProject(t, "cells.comp")
	fc := &fakeCompiler{fail: map[string]bool{"cells.comp": true}}
	useFakeCompiler(t, fc)

	_, stderr, err := execute(t, "--dir", dir, "--silent", "--missing-compiler", "per-file", "cells.comp")
	require.Error(t, err)

	assert.Contains(t, stderr, "Compilation failed")
	assert.NotContains(t, stderr, "syntax error")
}

func TestRunBuild_MissingCompilerFatal(t *testing.T) {
	dir := setupProject(t, "cells.comp")
	fc := &fakeCompiler{}
	useFakeCompiler(t, fc)

	_, _, err := execute(t, "--dir", dir, "--compiler", "spvc-no-such-compiler",
		"--missing-compiler", "fatal", "cells.comp")
	require.Error(t, err)

	assert.True(t, eris.Is(err, compiler.ErrCompilerNotFound))
	assert.Empty(t, fc.calls)
}

func TestRunBuild_CacheAndCacheCommands(t *testing.T) {
	dir := setupProject(t, "cells.comp", "circles.comp")
	fc := &fakeCompiler{}
	useFakeCompiler(t, fc)

	args := []string{"--dir", dir, "--cache", "--missing-compiler", "per-file", "cells.comp", "circles.comp"}

	_, _, err := execute(t, args...)
	require.NoError(t, err)
	assert.Len(t, fc.calls, 2)

	// Second build is served from the cache
	require.NoError(t, os.Remove(filepath.Join(dir, "cells.comp.spv")))
	stdout, _, err := execute(t, args...)
	require.NoError(t, err)
	assert.Len(t, fc.calls, 2, "cached shaders must not invoke the compiler")
	assert.Contains(t, stdout, "0 compiled, 2 cached, 0 failed, 0 skipped")
	assert.FileExists(t, filepath.Join(dir, "cells.comp.spv"))

	stdout, _, err = execute(t, "cache", "stats", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Entries:  2")
	assert.Contains(t, stdout, filepath.Join(dir, ".spvc-cache"))

	stdout, _, err = execute(t, "cache", "clean", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Cleared build cache")

	stdout, _, err = execute(t, "cache", "stats", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Entries:  0")
}

func TestRunBuild_CacheAbsoluteShaderPath(t *testing.T) {
	dir := setupProject(t)
	source := filepath.Join(t.TempDir(), "meta_ro.comp")
	require.NoError(t, os.WriteFile(source, []byte("#version 450\nvoid main() {}\n"), 0o644))

	fc := &fakeCompiler{}
	useFakeCompiler(t, fc)

	args := []string{"--dir", dir, "--cache", "--missing-compiler", "per-file", source}

	_, stderr, err := execute(t, args...)
	require.NoError(t, err)
	assert.FileExists(t, source+".spv")
	assert.NotContains(t, stderr, "Failed to cache artifact")

	require.NoError(t, os.Remove(source+".spv"))
	stdout, stderr, err := execute(t, args...)
	require.NoError(t, err)

	assert.Len(t, fc.calls, 1, "the second run is served from the cache")
	assert.Contains(t, stdout, "0 compiled, 1 cached, 0 failed, 0 skipped")
	assert.NotContains(t, stderr, "Failed to restore cached artifact")

	data, err := os.ReadFile(source + ".spv")
	require.NoError(t, err)
	assert.Equal(t, "SPIR-V "+source, string(data))
}

func TestUseColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	assert.False(t, useColor(&bytes.Buffer{}))

	t.Setenv("NO_COLOR", "1")
	assert.False(t, useColor(os.Stderr))
}
