// Package cache provides build caching for shader compilation.
//
// Each shader's SPIR-V artifact is cached independently:
//
//  1. The cache key is a SHA256 hash of the source name, source content and
//     the compiler settings that affect the output
//  2. Metadata is stored in BoltDB, the artifact in the filesystem at
//     artifacts/<hash>/artifact whatever the shader's output name is
//  3. A hit copies the cached artifact back next to the source instead of
//     invoking the compiler
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.etcd.io/bbolt"

	"github.com/Norgate-AV/spvc/internal/config"
	"github.com/Norgate-AV/spvc/internal/utils"
)

const (
	// bucketName is the BoltDB bucket name for cache entries
	bucketName = "builds"
)

// Cache manages build artifacts and metadata using BoltDB
type Cache struct {
	db   *bbolt.DB
	root string // Root directory for cache (.spvc-cache/)
}

// New creates a new cache instance
// If cacheDir is empty, uses DefaultCacheDir in current working directory
func New(cacheDir string) (*Cache, error) {
	if cacheDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, eris.Wrap(err, "failed to get working directory")
		}

		cacheDir = filepath.Join(cwd, config.DefaultCacheDir)
	}

	// Ensure cache directory exists
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "failed to create cache directory")
	}

	// Open BoltDB
	dbPath := filepath.Join(cacheDir, "cache.db")
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, eris.Wrap(err, "failed to open cache database")
	}

	// Create bucket if it doesn't exist
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, eris.Wrap(err, "failed to create cache bucket")
	}

	return &Cache{
		db:   db,
		root: cacheDir,
	}, nil
}

// Close closes the cache database
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}

	return nil
}

// Get retrieves a cache entry by shader source and configuration
// Returns nil if cache miss
func (c *Cache) Get(source string, cfg *config.Config) (*Entry, error) {
	hash, err := HashSource(source, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "failed to hash source")
	}

	var entry Entry
	err = c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		data := b.Get([]byte(hash))
		if data == nil {
			return nil // Cache miss
		}

		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, eris.Wrap(err, "failed to read cache entry")
	}

	if entry.Hash == "" {
		return nil, nil // Cache miss
	}

	// An entry whose artifact has gone missing is a miss
	if _, err := os.Stat(c.artifactPath(hash)); err != nil {
		return nil, nil
	}

	return &entry, nil
}

// Store records a successful build and copies its artifact into the cache
func (c *Cache) Store(source string, cfg *config.Config) error {
	hash, err := HashSource(source, cfg)
	if err != nil {
		return eris.Wrap(err, "failed to hash source")
	}

	output := utils.OutputName(source, cfg.OutputSuffix)

	src := utils.ResolvePath(cfg.WorkDir, output)

	info, err := os.Stat(src)
	if err != nil {
		return eris.Wrapf(err, "compiled artifact %s is missing", output)
	}

	// Copy the artifact first so metadata never points at a missing file
	if err := CopyArtifact(src, c.artifactPath(hash)); err != nil {
		return eris.Wrap(err, "failed to copy artifact")
	}

	entry := Entry{
		Hash:         hash,
		SourceFile:   source,
		Output:       output,
		CompilerPath: cfg.CompilerPath,
		StageFlag:    cfg.StageFlag,
		Size:         info.Size(),
		Timestamp:    time.Now(),
	}

	err = c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}

		return b.Put([]byte(hash), data)
	})
	if err != nil {
		return eris.Wrap(err, "failed to store cache entry")
	}

	return nil
}

// Restore copies a cached artifact back to its output path, resolved against destDir
func (c *Cache) Restore(entry *Entry, destDir string) error {
	if entry == nil || entry.Output == "" || entry.Hash == "" {
		return eris.New("cannot restore entry with no output")
	}

	return RestoreArtifact(c.artifactPath(entry.Hash), utils.ResolvePath(destDir, entry.Output))
}

// Clear removes all cache entries and artifacts
func (c *Cache) Clear() error {
	err := c.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil {
			return err
		}

		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
	if err != nil {
		return eris.Wrap(err, "failed to clear cache entries")
	}

	// Remove artifacts directory
	artifactsDir := filepath.Join(c.root, "artifacts")
	if err := os.RemoveAll(artifactsDir); err != nil {
		return eris.Wrap(err, "failed to remove artifacts")
	}

	return nil
}

// Stats returns the number of cache entries and the total artifact size
func (c *Cache) Stats() (int, int64, error) {
	var count int
	var totalSize int64

	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		count = b.Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	// Calculate total artifact size
	artifactsDir := filepath.Join(c.root, "artifacts")
	_ = filepath.Walk(artifactsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}

		if !info.IsDir() {
			totalSize += info.Size()
		}

		return nil
	})

	return count, totalSize, nil
}

// Root returns the cache directory
func (c *Cache) Root() string {
	return c.root
}

// artifactPath returns the stored artifact for a given cache hash
func (c *Cache) artifactPath(hash string) string {
	return filepath.Join(c.root, "artifacts", hash, artifactName)
}
