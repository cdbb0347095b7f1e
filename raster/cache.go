package raster

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheCapacity is the capacity of the process-global render cache.
const DefaultCacheCapacity = 128

// Key identifies a rendered glyph.
type Key struct {
	Codepoint rune
	FontPath  string
	Size      int
}

// Cache is a capacity-bounded memoization table for rendered glyphs. Once
// the capacity is exceeded, the least recently used glyph is evicted.
// A Cache is safe for concurrent use.
type Cache struct {
	glyphs *lru.Cache[Key, *Glyph]
}

// NewCache creates a render cache holding at most capacity glyphs.
func NewCache(capacity int) (*Cache, error) {
	glyphs, err := lru.New[Key, *Glyph](capacity)
	if err != nil {
		return nil, fmt.Errorf("cannot create render cache: %w", err)
	}
	return &Cache{glyphs: glyphs}, nil
}

// Get looks up a glyph and marks it as recently used.
func (c *Cache) Get(key Key) (*Glyph, bool) {
	return c.glyphs.Get(key)
}

// Add stores a glyph, possibly evicting the least recently used one.
func (c *Cache) Add(key Key, g *Glyph) {
	if c.glyphs.Add(key, g) {
		tracer().Debugf("render cache full, evicted a glyph")
	}
}

// Contains checks for a key without updating its recency.
func (c *Cache) Contains(key Key) bool {
	return c.glyphs.Contains(key)
}

// Len is the number of glyphs in the cache.
func (c *Cache) Len() int {
	return c.glyphs.Len()
}

// RemoveFont removes all glyphs rendered from the font at fontPath and
// returns their number.
func (c *Cache) RemoveFont(fontPath string) int {
	n := 0
	for _, key := range c.glyphs.Keys() {
		if key.FontPath == fontPath && c.glyphs.Remove(key) {
			n++
		}
	}
	return n
}

// Purge removes all glyphs.
func (c *Cache) Purge() {
	c.glyphs.Purge()
}

var defaultCache struct {
	once  sync.Once
	cache *Cache
}

// DefaultCache returns the process-global render cache. It lives as long as
// the process and is shared between all extractions.
func DefaultCache() *Cache {
	defaultCache.once.Do(func() {
		c, err := NewCache(DefaultCacheCapacity)
		if err != nil {
			panic(err)
		}
		defaultCache.cache = c
	})
	return defaultCache.cache
}

// --- Disk cache ------------------------------------------------------------

// DiskCache mirrors rendered glyphs to a directory as PNG images, named
// "<codepoint>_<glyph identifier>.png" with the code-point in decimal.
//
// Files are written at most once: an existing file is never overwritten and
// never checked against the current font. If a font changes while its cache
// directory is re-used, the directory will contain stale images.
// Concurrent processes sharing a directory may render a glyph twice, but will
// not corrupt each other's files.
type DiskCache struct {
	Dir string
}

// NewDiskCache creates a disk cache for directory dir, creating dir if
// necessary.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory: %w", err)
	}
	return &DiskCache{Dir: dir}, nil
}

// Path returns the file path for a code-point and glyph identifier.
func (dc *DiskCache) Path(codepoint rune, glyphID string) string {
	name := fmt.Sprintf("%d_%s.png", codepoint, sanitizeFilename(glyphID))
	return filepath.Join(dc.Dir, name)
}

// Has reports whether an image for a code-point and glyph identifier exists.
func (dc *DiskCache) Has(codepoint rune, glyphID string) bool {
	_, err := os.Stat(dc.Path(codepoint, glyphID))
	return err == nil
}

// Store writes a glyph image, unless a file of the same name already exists.
// It returns true if the file has been written by this call.
func (dc *DiskCache) Store(codepoint rune, glyphID string, g *Glyph) (bool, error) {
	path := dc.Path(codepoint, glyphID)
	data, err := g.PNG()
	if err != nil {
		return false, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return false, err
	}
	tracer().Debugf("cached glyph image %s", path)
	return true, nil
}

// sanitizeFilename replaces characters which would leave the cache directory
// or are not allowed in file names on common platforms.
func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, s)
}
