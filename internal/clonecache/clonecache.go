// Package clonecache maps remote URLs to local clone directories under a
// shared cache root. Entries are never evicted; they persist until removed
// from disk.
package clonecache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zjrosen/paneron/internal/log"
	"github.com/zjrosen/paneron/internal/paths"
)

// HashLen is the number of hex characters of the URL digest used as the
// directory name.
const HashLen = 16

// HashFunc derives a directory name from a remote URL.
type HashFunc func(url string) string

// ShortSHA256 returns the first HashLen hex characters of sha256(url).
func ShortSHA256(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:HashLen]
}

// Cache resolves clone directories for remote URLs.
type Cache struct {
	root string
	hash HashFunc

	ensureOnce sync.Once
	ensureErr  error
}

// Option configures a Cache.
type Option func(*Cache)

// WithHash replaces ShortSHA256.
func WithHash(fn HashFunc) Option {
	return func(c *Cache) {
		c.hash = fn
	}
}

// New creates a cache rooted at root. The directory is created on first use.
func New(root string, opts ...Option) *Cache {
	c := &Cache{
		root: filepath.Clean(root),
		hash: ShortSHA256,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	defaultOnce  sync.Once
	defaultCache *Cache
	defaultErr   error
)

// Default returns the process-wide cache rooted at the user cache directory.
// The root is resolved once.
func Default() (*Cache, error) {
	defaultOnce.Do(func() {
		root, err := paths.CacheDir()
		if err != nil {
			defaultErr = fmt.Errorf("resolving cache directory: %w", err)
			return
		}
		defaultCache = New(root)
	})
	return defaultCache, defaultErr
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

// Path returns the clone directory for url. It does not touch the disk.
func (c *Cache) Path(url string) string {
	return filepath.Join(c.root, c.hash(url))
}

// Ensure creates the cache root if it is missing.
func (c *Cache) Ensure() error {
	c.ensureOnce.Do(func() {
		if err := os.MkdirAll(c.root, 0o750); err != nil {
			c.ensureErr = fmt.Errorf("creating clone cache %s: %w", c.root, err)
			return
		}
		log.Debug(log.CatCache, "clone cache ready", "root", c.root)
	})
	return c.ensureErr
}

// Lookup returns the clone directory for url and whether it already holds a
// clone.
func (c *Cache) Lookup(url string) (string, bool) {
	p := c.Path(url)
	info, err := os.Stat(filepath.Join(p, ".git"))
	return p, err == nil && info.IsDir()
}
