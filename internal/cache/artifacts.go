package cache

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// artifactName is the fixed file name of an artifact inside its hash directory
const artifactName = "artifact"

// CopyArtifact copies a compiled output into the cache
func CopyArtifact(src, dst string) error {
	if err := copyFile(src, dst); err != nil {
		return eris.Wrapf(err, "failed to copy %s", src)
	}

	return nil
}

// RestoreArtifact copies a cached output back to the working tree
func RestoreArtifact(src, dst string) error {
	if err := copyFile(src, dst); err != nil {
		return eris.Wrapf(err, "failed to restore %s", dst)
	}

	return nil
}

// copyFile copies a file from src to dst through a temporary file so a
// partially written artifact is never left at dst
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	// Create parent directory if needed
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, srcFile); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	// Preserve file permissions
	if err := os.Chmod(tmp.Name(), srcInfo.Mode()); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), dst)
}
