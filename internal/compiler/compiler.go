// Package compiler builds and runs shader compiler invocations.
package compiler

import (
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/Norgate-AV/spvc/internal/config"
	"github.com/Norgate-AV/spvc/internal/utils"
)

// ErrCompilerNotFound is returned when the shader compiler executable cannot be found
var ErrCompilerNotFound = eris.New("shader compiler not found")

// ShellCommand is a single compiler invocation
type ShellCommand struct {
	Path string
	Args []string

	// Directory the compiler runs in
	Dir string

	// Shader source name and derived artifact name, relative to Dir
	Source string
	Output string
}

func (sc *ShellCommand) String() string {
	return sc.Path + " " + strings.Join(sc.Args, " ")
}

// GetBuildCommand returns the invocation that compiles one shader:
// <compiler> <stage flag> <source> -o <source><suffix>
func GetBuildCommand(cfg *config.Config, shader string) *ShellCommand {
	output := utils.OutputName(shader, cfg.OutputSuffix)

	return &ShellCommand{
		Path:   cfg.CompilerPath,
		Args:   []string{cfg.StageFlag, shader, "-o", output},
		Dir:    cfg.WorkDir,
		Source: shader,
		Output: output,
	}
}

// LocateCompiler resolves the compiler executable through PATH
func LocateCompiler(path string) (string, error) {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", eris.Wrapf(ErrCompilerNotFound, "%s", path)
	}

	return resolved, nil
}
