package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/Norgate-AV/spvc/internal/config"
	"github.com/Norgate-AV/spvc/internal/utils"
)

// HashSource creates a unique hash for a shader source and its build configuration
// The hash is based on:
// - Source name (two shaders with identical content still get distinct entries)
// - Source file content
// - Compiler path
// - Stage flag and output suffix
func HashSource(source string, cfg *config.Config) (string, error) {
	h := sha256.New()

	// Fields are NUL-separated so adjacent values cannot run together
	writeField := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}

	writeField(filepath.ToSlash(source))

	f, err := os.Open(utils.ResolvePath(cfg.WorkDir, source))
	if err != nil {
		return "", eris.Wrap(err, "failed to open source file")
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", eris.Wrap(err, "failed to hash source file")
	}

	h.Write([]byte{0})
	writeField(cfg.CompilerPath)
	writeField(cfg.StageFlag)
	writeField(cfg.OutputSuffix)

	return hex.EncodeToString(h.Sum(nil)), nil
}
