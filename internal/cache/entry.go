package cache

import "time"

// FileEntry is the cached state of one compiled resource file
type FileEntry struct {
	// Hash is the SHA-256 of the source file content when it was compiled
	Hash string `json:"hash"`

	// Timestamp is when the entry was last recorded
	Timestamp time.Time `json:"timestamp"`

	// Artifact is the path of the .flat file aapt2 produced
	Artifact string `json:"artifact"`
}

// DirEntry is the cached state of one resource directory compiled as a unit
type DirEntry struct {
	// Hash is the combined hash of every file beneath the directory
	Hash string `json:"hash"`

	Timestamp time.Time `json:"timestamp"`

	// Artifacts lists every .flat file produced for the directory
	Artifacts []string `json:"artifacts"`
}
