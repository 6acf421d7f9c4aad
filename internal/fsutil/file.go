// Package fsutil holds the file primitives the generator relies on: an
// atomic replace-on-commit writer for the artifact and a scoped temporary
// file for the engine's dump routine.
package fsutil

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File permission constants
const (
	// PermPublicFile is the permission for generated artifacts.
	PermPublicFile os.FileMode = 0644

	// PermPublicDir is the permission for directories created on the way to an artifact.
	PermPublicDir os.FileMode = 0755

	// PermPrivateFile is the permission for scratch files.
	PermPrivateFile os.FileMode = 0600
)

// File operation errors
var (
	ErrAtomicWriteFailed = errors.New("fsutil: atomic write failed")
	ErrTempFileFailed    = errors.New("fsutil: temporary file creation failed")
	ErrWriterClosed      = errors.New("fsutil: writer already committed or aborted")
)

// AtomicWriter writes to a sibling temporary file and renames it over the
// target on Commit. Readers of the target never observe a partial file.
type AtomicWriter struct {
	path     string
	tempFile *os.File
	tempPath string
	done     bool
}

// NewAtomicWriter creates the parent directories of path and opens a
// temporary file next to it.
func NewAtomicWriter(path string, perm os.FileMode) (*AtomicWriter, error) {
	cleanPath := filepath.Clean(path)

	dir := filepath.Dir(cleanPath)
	if err := os.MkdirAll(dir, PermPublicDir); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	// Same directory so the rename stays on one filesystem.
	tempPath := cleanPath + ".tmp." + randomSuffix()
	tempFile, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTempFileFailed, err)
	}

	return &AtomicWriter{
		path:     cleanPath,
		tempFile: tempFile,
		tempPath: tempPath,
	}, nil
}

// Write writes data to the temporary file.
func (w *AtomicWriter) Write(p []byte) (int, error) {
	if w.done {
		return 0, ErrWriterClosed
	}
	return w.tempFile.Write(p)
}

// Commit flushes the temporary file and moves it over the destination.
func (w *AtomicWriter) Commit() error {
	if w.done {
		return ErrWriterClosed
	}
	w.done = true

	if err := w.tempFile.Sync(); err != nil {
		w.tempFile.Close()
		os.Remove(w.tempPath)
		return fmt.Errorf("sync: %w", err)
	}

	if err := w.tempFile.Close(); err != nil {
		os.Remove(w.tempPath)
		return fmt.Errorf("close: %w", err)
	}

	if err := os.Rename(w.tempPath, w.path); err != nil {
		os.Remove(w.tempPath)
		return fmt.Errorf("%w: %v", ErrAtomicWriteFailed, err)
	}

	return nil
}

// Abort discards the temporary file. Safe to call after Commit.
func (w *AtomicWriter) Abort() {
	if w.done {
		return
	}
	w.done = true
	w.tempFile.Close()
	os.Remove(w.tempPath)
}

// WriteFileAtomic writes data to path through an AtomicWriter.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	writer, err := NewAtomicWriter(path, perm)
	if err != nil {
		return err
	}

	if _, err := writer.Write(data); err != nil {
		writer.Abort()
		return err
	}

	return writer.Commit()
}

// WithTempFile writes content to a fresh file in dir (os.TempDir when
// empty) named after pattern as in os.CreateTemp, calls fn with its path,
// and removes the file afterwards whatever fn returns.
func WithTempFile(dir, pattern string, content []byte, fn func(path string) error) (err error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTempFileFailed, err)
	}
	path := f.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
			err = fmt.Errorf("remove %s: %w", path, rmErr)
		}
	}()

	if _, werr := f.Write(content); werr != nil {
		f.Close()
		return fmt.Errorf("%w: %v", ErrTempFileFailed, werr)
	}
	if cerr := f.Close(); cerr != nil {
		return fmt.Errorf("%w: %v", ErrTempFileFailed, cerr)
	}

	return fn(path)
}

// FindUp walks from start towards the filesystem root and returns the first
// directory that contains marker.
func FindUp(start, marker string) (string, bool) {
	dir := filepath.Clean(start)
	for {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// randomSuffix generates a random suffix for temporary files.
func randomSuffix() string {
	var b [8]byte
	rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
