// Package cache provides content-hash caching for incremental resource
// compilation.
//
// Two caches share one storage design. FileCache maps a single resource file
// to the artifact aapt2 produced for it; DirCache maps a whole resource
// directory to every artifact produced by compiling it in one pass. Entries
// are kept in memory during a build and persisted to a BoltDB file in the
// cache directory on Save.
//
// A cache whose database is missing, corrupt, or written with a different
// schema version starts empty. A broken cache only ever costs a full rebuild,
// it never fails the build.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	bolterrors "go.etcd.io/bbolt/errors"
	"go.uber.org/zap"

	"github.com/Norgate-AV/asb/internal/codes"
)

const (
	// SchemaVersion is bumped whenever the entry encoding changes
	SchemaVersion = "2"

	dbFile        = "cache.db"
	entriesBucket = "entries"
	metaBucket    = "meta"
	versionKey    = "schema_version"
)

var errSchemaMismatch = errors.New("cache schema version mismatch")

// store is the BoltDB file behind a cache. A nil db means the cache is
// memory-only and Save does nothing.
type store struct {
	dir    string
	db     *bbolt.DB
	logger *zap.Logger
}

// openStore opens (or creates) the database in dir and returns the raw
// encoded entries it holds. Any failure is logged and degrades to an empty,
// possibly memory-only, store.
func openStore(dir string, logger *zap.Logger) (*store, map[string][]byte) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &store{dir: dir, logger: logger}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.warn("cannot create cache directory", err)
		return s, map[string][]byte{}
	}

	raw, err := s.open()
	if err == nil {
		return s, raw
	}

	if errors.Is(err, bolterrors.ErrTimeout) {
		s.warn("cache locked by another process, running in memory only", err)
		return s, map[string][]byte{}
	}

	s.warn("discarding unreadable cache", err)
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}

	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		s.warn("cannot remove cache database", err)
		return s, map[string][]byte{}
	}

	if _, err := s.open(); err != nil {
		s.warn("cache running in memory only", err)
		if s.db != nil {
			s.db.Close()
			s.db = nil
		}
	}

	return s, map[string][]byte{}
}

func (s *store) path() string {
	return filepath.Join(s.dir, dbFile)
}

func (s *store) warn(msg string, err error) {
	s.logger.Warn(msg,
		zap.String("dir", s.dir),
		zap.Error(codes.Wrap(err, codes.Cache, "cache %s", s.dir)),
	)
}

func (s *store) open() (map[string][]byte, error) {
	db, err := bbolt.Open(s.path(), 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	s.db = db

	raw := make(map[string][]byte)
	err = db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		if err != nil {
			return err
		}

		entries := tx.Bucket([]byte(entriesBucket))
		version := meta.Get([]byte(versionKey))

		switch {
		case version == nil && entries == nil:
			// Fresh database
			if err := meta.Put([]byte(versionKey), []byte(SchemaVersion)); err != nil {
				return err
			}
			_, err := tx.CreateBucket([]byte(entriesBucket))
			return err
		case string(version) != SchemaVersion:
			return fmt.Errorf("%w: have %q, want %q", errSchemaMismatch, version, SchemaVersion)
		case entries == nil:
			return fmt.Errorf("cache database has no %s bucket", entriesBucket)
		}

		return entries.ForEach(func(k, v []byte) error {
			raw[string(k)] = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return raw, nil
}

// save replaces every stored entry with raw in a single transaction
func (s *store) save(raw map[string][]byte) error {
	if s.db == nil {
		return nil
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(entriesBucket)) != nil {
			if err := tx.DeleteBucket([]byte(entriesBucket)); err != nil {
				return err
			}
		}

		b, err := tx.CreateBucket([]byte(entriesBucket))
		if err != nil {
			return err
		}

		for k, v := range raw {
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return codes.Wrap(err, codes.Cache, "failed to save cache %s", s.dir)
	}

	return nil
}

func (s *store) close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	return err
}

// decodeEntries unmarshals every raw entry into out. An entry that cannot be
// decoded is dropped with a warning.
func decodeEntries[E any](s *store, raw map[string][]byte) map[string]E {
	out := make(map[string]E, len(raw))
	for k, v := range raw {
		var e E
		if err := json.Unmarshal(v, &e); err != nil {
			s.warn("dropping undecodable cache entry "+k, err)
			continue
		}
		out[k] = e
	}

	return out
}

func encodeEntries[E any](entries map[string]E) (map[string][]byte, error) {
	raw := make(map[string][]byte, len(entries))
	for k, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, codes.Wrap(err, codes.Cache, "failed to encode cache entry %s", k)
		}
		raw[k] = data
	}

	return raw, nil
}

// Stats describes the contents of a cache
type Stats struct {
	// Entries is the number of recorded sources
	Entries int
	// Artifacts is the number of recorded artifacts still on disk
	Artifacts int
	// Size is the total size in bytes of those artifacts
	Size int64
}
