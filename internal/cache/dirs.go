package cache

import (
	"os"
	"time"

	"go.uber.org/zap"
)

// DirCache tracks resource directories compiled as a unit, such as resource
// directories shared by several configurations.
//
// It is populated by one goroutine and may be read concurrently afterwards.
type DirCache struct {
	store   *store
	entries map[string]DirEntry
}

// OpenDirCache loads the directory cache stored in dir. Like OpenFileCache
// it degrades to an empty cache instead of failing.
func OpenDirCache(dir string, logger *zap.Logger) *DirCache {
	s, raw := openStore(dir, logger)

	return &DirCache{
		store:   s,
		entries: decodeEntries[DirEntry](s, raw),
	}
}

// NeedsRecompile reports whether dir has no entry, any recorded artifact is
// missing, or the combined hash of its files has changed
func (c *DirCache) NeedsRecompile(dir string) bool {
	entry, ok := c.entries[dir]
	if !ok {
		return true
	}

	for _, artifact := range entry.Artifacts {
		if _, err := os.Stat(artifact); err != nil {
			return true
		}
	}

	hash, err := HashDir(dir)
	if err != nil {
		c.store.logger.Debug("hash failed, recompiling", zap.String("dir", dir), zap.Error(err))
		return true
	}

	return hash != entry.Hash
}

// RecordCompiled stores the current combined hash of dir with its artifacts
func (c *DirCache) RecordCompiled(dir string, artifacts []string) error {
	hash, err := HashDir(dir)
	if err != nil {
		return err
	}

	c.entries[dir] = DirEntry{
		Hash:      hash,
		Timestamp: time.Now(),
		Artifacts: append([]string(nil), artifacts...),
	}

	return nil
}

// Lookup returns the recorded entry for dir
func (c *DirCache) Lookup(dir string) (DirEntry, bool) {
	entry, ok := c.entries[dir]
	return entry, ok
}

// Len returns the number of recorded directories
func (c *DirCache) Len() int {
	return len(c.entries)
}

// Stats returns entry and artifact statistics
func (c *DirCache) Stats() Stats {
	stats := Stats{Entries: len(c.entries)}
	for _, e := range c.entries {
		for _, artifact := range e.Artifacts {
			if size, ok := fileSize(artifact); ok {
				stats.Artifacts++
				stats.Size += size
			}
		}
	}

	return stats
}

// Clear removes every entry
func (c *DirCache) Clear() {
	c.entries = make(map[string]DirEntry)
}

// Save persists the entries to disk
func (c *DirCache) Save() error {
	raw, err := encodeEntries(c.entries)
	if err != nil {
		return err
	}

	return c.store.save(raw)
}

// Close releases the database file
func (c *DirCache) Close() error {
	return c.store.close()
}
