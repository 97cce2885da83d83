// Package storage defines the data-directory file abstraction. Session
// documents, finalize snapshots, and rectified images all live under one
// root; every write is atomic so a crash mid-write never leaves a corrupt
// document behind.
package storage

// Provider is the interface for data-directory file operations.
// All paths are relative to the data root.
type Provider interface {
	// List returns the relative paths of files under dir with the given
	// extension (e.g. ".json").
	List(dir, ext string) ([]string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (tmp file, fsync, rename).
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Abs resolves path against the data root, rejecting escapes.
	Abs(path string) (string, error)
}
