package cache

import (
	"os"
	"time"

	"go.uber.org/zap"
)

// FileCache tracks which resource files need recompiling.
//
// A FileCache is owned by a single build pipeline and is not safe for
// concurrent mutation.
type FileCache struct {
	store   *store
	entries map[string]FileEntry
}

// OpenFileCache loads the file cache stored in dir. It never fails: an
// unreadable cache is logged and replaced with an empty one.
func OpenFileCache(dir string, logger *zap.Logger) *FileCache {
	s, raw := openStore(dir, logger)

	return &FileCache{
		store:   s,
		entries: decodeEntries[FileEntry](s, raw),
	}
}

// NeedsRecompile reports whether source has no entry, its recorded artifact
// is gone, or its content has changed since it was recorded. A file that
// cannot be hashed always needs recompiling.
func (c *FileCache) NeedsRecompile(source string) bool {
	entry, ok := c.entries[source]
	if !ok {
		return true
	}

	if _, err := os.Stat(entry.Artifact); err != nil {
		return true
	}

	hash, err := HashFile(source)
	if err != nil {
		c.store.logger.Debug("hash failed, recompiling", zap.String("file", source), zap.Error(err))
		return true
	}

	return hash != entry.Hash
}

// RecordCompiled stores the current hash of source and the artifact it
// produced, replacing any earlier entry
func (c *FileCache) RecordCompiled(source, artifact string) error {
	hash, err := HashFile(source)
	if err != nil {
		return err
	}

	c.entries[source] = FileEntry{
		Hash:      hash,
		Timestamp: time.Now(),
		Artifact:  artifact,
	}

	return nil
}

// Lookup returns the recorded entry for source
func (c *FileCache) Lookup(source string) (FileEntry, bool) {
	entry, ok := c.entries[source]
	return entry, ok
}

// Len returns the number of recorded files
func (c *FileCache) Len() int {
	return len(c.entries)
}

// Stats returns entry and artifact statistics
func (c *FileCache) Stats() Stats {
	stats := Stats{Entries: len(c.entries)}
	for _, e := range c.entries {
		if size, ok := fileSize(e.Artifact); ok {
			stats.Artifacts++
			stats.Size += size
		}
	}

	return stats
}

// Clear removes every entry
func (c *FileCache) Clear() {
	c.entries = make(map[string]FileEntry)
}

// Save persists the entries to disk
func (c *FileCache) Save() error {
	raw, err := encodeEntries(c.entries)
	if err != nil {
		return err
	}

	return c.store.save(raw)
}

// Close releases the database file
func (c *FileCache) Close() error {
	return c.store.close()
}
