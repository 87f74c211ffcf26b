package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colors.xml")
	writeFile(t, path, "<resources/>")

	hash1, err := HashFile(path)
	require.NoError(t, err)
	assert.Len(t, hash1, 64)

	hash2, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2, "Hash should be consistent")

	writeFile(t, path, "<resources></resources>")
	hash3, err := HashFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, hash1, hash3, "Different content should produce different hash")

	_, err = HashFile(filepath.Join(t.TempDir(), "missing.xml"))
	assert.Error(t, err)
}

func TestHashDir(t *testing.T) {
	files := map[string]string{
		"drawable/icon.xml":  "<vector/>",
		"values/colors.xml":  "<resources/>",
		"mipmap-hdpi/ic.png": "png",
	}

	// Two directories populated in different orders hash the same
	dirA := t.TempDir()
	dirB := t.TempDir()
	for _, rel := range []string{"drawable/icon.xml", "values/colors.xml", "mipmap-hdpi/ic.png"} {
		writeFile(t, filepath.Join(dirA, rel), files[rel])
	}
	for _, rel := range []string{"mipmap-hdpi/ic.png", "values/colors.xml", "drawable/icon.xml"} {
		writeFile(t, filepath.Join(dirB, rel), files[rel])
	}

	hashA, err := HashDir(dirA)
	require.NoError(t, err)
	hashB, err := HashDir(dirB)
	require.NoError(t, err)
	assert.Equal(t, hashA, hashB)

	t.Run("content change", func(t *testing.T) {
		writeFile(t, filepath.Join(dirB, "values/colors.xml"), "<resources><color/></resources>")
		hash, err := HashDir(dirB)
		require.NoError(t, err)
		assert.NotEqual(t, hashA, hash)
		writeFile(t, filepath.Join(dirB, "values/colors.xml"), files["values/colors.xml"])
	})

	t.Run("added file", func(t *testing.T) {
		extra := filepath.Join(dirB, "values/dimens.xml")
		writeFile(t, extra, "<resources/>")
		hash, err := HashDir(dirB)
		require.NoError(t, err)
		assert.NotEqual(t, hashA, hash)
		require.NoError(t, os.Remove(extra))
	})

	t.Run("renamed file", func(t *testing.T) {
		from := filepath.Join(dirB, "drawable/icon.xml")
		to := filepath.Join(dirB, "drawable/icon2.xml")
		require.NoError(t, os.Rename(from, to))
		hash, err := HashDir(dirB)
		require.NoError(t, err)
		assert.NotEqual(t, hashA, hash)
		require.NoError(t, os.Rename(to, from))
	})

	t.Run("restored", func(t *testing.T) {
		hash, err := HashDir(dirB)
		require.NoError(t, err)
		assert.Equal(t, hashA, hash)
	})
}

func TestFileCache_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "res", "values", "colors.xml")
	artifact := filepath.Join(dir, "compiled", "values_colors.arsc.flat")
	writeFile(t, source, "<resources/>")
	writeFile(t, artifact, "flat")

	c := OpenFileCache(filepath.Join(dir, "cache"), nil)
	defer c.Close()

	assert.True(t, c.NeedsRecompile(source), "Unknown file should need recompile")

	require.NoError(t, c.RecordCompiled(source, artifact))
	assert.False(t, c.NeedsRecompile(source))

	entry, ok := c.Lookup(source)
	require.True(t, ok)
	assert.Equal(t, artifact, entry.Artifact)
	assert.False(t, entry.Timestamp.IsZero())

	// Content change
	writeFile(t, source, "<resources><color name=\"a\">#fff</color></resources>")
	assert.True(t, c.NeedsRecompile(source))

	require.NoError(t, c.RecordCompiled(source, artifact))
	assert.False(t, c.NeedsRecompile(source))

	// Deleted artifact
	require.NoError(t, os.Remove(artifact))
	assert.True(t, c.NeedsRecompile(source))
}

func TestFileCache_UnreadableSourceNeedsRecompile(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "drawable", "bg.xml")
	artifact := filepath.Join(dir, "drawable_bg.xml.flat")
	writeFile(t, source, "<shape/>")
	writeFile(t, artifact, "flat")

	c := OpenFileCache(filepath.Join(dir, "cache"), nil)
	defer c.Close()

	require.NoError(t, c.RecordCompiled(source, artifact))
	require.NoError(t, os.Remove(source))

	assert.True(t, c.NeedsRecompile(source))
	assert.Error(t, c.RecordCompiled(source, artifact))
}

func TestFileCache_Persistence(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	source := filepath.Join(dir, "drawable", "icon.xml")
	artifact := filepath.Join(dir, "drawable_icon.xml.flat")
	writeFile(t, source, "<vector/>")
	writeFile(t, artifact, "flat!")

	c := OpenFileCache(cacheDir, nil)
	require.NoError(t, c.RecordCompiled(source, artifact))
	require.NoError(t, c.Save())
	require.NoError(t, c.Close())

	reopened := OpenFileCache(cacheDir, nil)
	defer reopened.Close()

	assert.Equal(t, 1, reopened.Len())
	assert.False(t, reopened.NeedsRecompile(source))

	stats := reopened.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 1, stats.Artifacts)
	assert.Equal(t, int64(5), stats.Size)

	reopened.Clear()
	assert.Equal(t, 0, reopened.Len())
	assert.True(t, reopened.NeedsRecompile(source))
}

func TestFileCache_SchemaMismatchStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	source := filepath.Join(dir, "values", "x.xml")
	artifact := filepath.Join(dir, "values_x.arsc.flat")
	writeFile(t, source, "<resources/>")
	writeFile(t, artifact, "flat")

	c := OpenFileCache(cacheDir, nil)
	require.NoError(t, c.RecordCompiled(source, artifact))
	require.NoError(t, c.Save())
	require.NoError(t, c.Close())

	// Rewrite the stored schema version as an older release would have
	db, err := bbolt.Open(filepath.Join(cacheDir, dbFile), 0o600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(metaBucket)).Put([]byte(versionKey), []byte("1.0"))
	}))
	require.NoError(t, db.Close())

	reopened := OpenFileCache(cacheDir, nil)
	defer reopened.Close()

	assert.Equal(t, 0, reopened.Len())
	assert.True(t, reopened.NeedsRecompile(source))

	// The recreated database is usable
	require.NoError(t, reopened.RecordCompiled(source, artifact))
	assert.NoError(t, reopened.Save())
}

func TestFileCache_CorruptDatabaseStartsEmpty(t *testing.T) {
	cacheDir := t.TempDir()
	writeFile(t, filepath.Join(cacheDir, dbFile), "this is not a bolt database")

	c := OpenFileCache(cacheDir, nil)
	defer c.Close()

	assert.Equal(t, 0, c.Len())
	assert.NoError(t, c.Save())
}

func TestFileCache_UndecodableEntryDropped(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	source := filepath.Join(dir, "values", "x.xml")
	artifact := filepath.Join(dir, "values_x.arsc.flat")
	writeFile(t, source, "<resources/>")
	writeFile(t, artifact, "flat")

	c := OpenFileCache(cacheDir, nil)
	require.NoError(t, c.RecordCompiled(source, artifact))
	require.NoError(t, c.Save())
	require.NoError(t, c.Close())

	db, err := bbolt.Open(filepath.Join(cacheDir, dbFile), 0o600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(entriesBucket)).Put([]byte("garbage"), []byte("{not json"))
	}))
	require.NoError(t, db.Close())

	reopened := OpenFileCache(cacheDir, nil)
	defer reopened.Close()

	assert.Equal(t, 1, reopened.Len())
	assert.False(t, reopened.NeedsRecompile(source))
}

func TestDirCache_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	res := filepath.Join(dir, "common", "res")
	writeFile(t, filepath.Join(res, "values", "colors.xml"), "<resources/>")
	writeFile(t, filepath.Join(res, "drawable", "bg.xml"), "<shape/>")

	artifacts := []string{
		filepath.Join(dir, "out", "drawable_bg.xml.flat"),
		filepath.Join(dir, "out", "values_colors.arsc.flat"),
	}
	for _, a := range artifacts {
		writeFile(t, a, "flat")
	}

	cacheDir := filepath.Join(dir, "cache")
	c := OpenDirCache(cacheDir, nil)

	assert.True(t, c.NeedsRecompile(res))
	require.NoError(t, c.RecordCompiled(res, artifacts))
	assert.False(t, c.NeedsRecompile(res))

	entry, ok := c.Lookup(res)
	require.True(t, ok)
	assert.Equal(t, artifacts, entry.Artifacts)

	require.NoError(t, c.Save())
	require.NoError(t, c.Close())

	c = OpenDirCache(cacheDir, nil)
	defer c.Close()
	assert.False(t, c.NeedsRecompile(res), "Entry should survive a reopen")
	assert.Equal(t, 2, c.Stats().Artifacts)

	// New file in the directory
	extra := filepath.Join(res, "values", "dimens.xml")
	writeFile(t, extra, "<resources/>")
	assert.True(t, c.NeedsRecompile(res))
	require.NoError(t, os.Remove(extra))
	assert.False(t, c.NeedsRecompile(res))

	// Any artifact missing
	require.NoError(t, os.Remove(artifacts[1]))
	assert.True(t, c.NeedsRecompile(res))
}

func TestCollectArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "values_colors.arsc.flat"), "a")
	writeFile(t, filepath.Join(dir, "drawable_bg.xml.flat"), "bb")
	writeFile(t, filepath.Join(dir, "nested", "layout_main.xml.flat"), "ccc")
	writeFile(t, filepath.Join(dir, "notes.txt"), "dddd")

	artifacts, err := CollectArtifacts(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "drawable_bg.xml.flat"),
		filepath.Join(dir, "nested", "layout_main.xml.flat"),
		filepath.Join(dir, "values_colors.arsc.flat"),
	}, artifacts)

	count, size, err := DirSize(dir)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, int64(10), size)

	artifacts, err = CollectArtifacts(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, artifacts)

	count, size, err = DirSize(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, size)
}
