// Package source provides read access to the files of an analysis workspace.
package source

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// HeadReader is implemented by sources that can read a bounded prefix of a
// file without loading all of it.
type HeadReader interface {
	ReadHead(path string, n int) ([]byte, error)
}

// ErrTooLarge is returned when a file exceeds the source's size limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// Head returns at most n bytes from the start of path.
func Head(src ContentSource, path string, n int) ([]byte, error) {
	if hr, ok := src.(HeadReader); ok {
		return hr.ReadHead(path, n)
	}
	content, err := src.Read(path)
	if err != nil {
		return nil, err
	}
	if len(content) > n {
		content = content[:n]
	}
	return content, nil
}

// FilesystemSource reads files from the local filesystem. Relative paths are
// resolved against Root when it is set.
type FilesystemSource struct {
	Root        string
	MaxFileSize int64 // 0 = no limit
}

// NewFilesystem creates a source that reads paths as given.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// NewRooted creates a source that resolves relative paths against root.
func NewRooted(root string, maxFileSize int64) *FilesystemSource {
	return &FilesystemSource{Root: root, MaxFileSize: maxFileSize}
}

// Abs returns the filesystem path for path.
func (f *FilesystemSource) Abs(path string) string {
	if f.Root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(f.Root, path)
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	full := f.Abs(path)
	if f.MaxFileSize > 0 {
		info, err := os.Stat(full)
		if err != nil {
			return nil, err
		}
		if info.Size() > f.MaxFileSize {
			return nil, &fs.PathError{Op: "read", Path: path, Err: ErrTooLarge}
		}
	}
	return os.ReadFile(full)
}

// ReadHead implements HeadReader.
func (f *FilesystemSource) ReadHead(path string, n int) ([]byte, error) {
	file, err := os.Open(f.Abs(path))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:read], nil
}

// MapSource serves content from memory. It is safe for concurrent use.
type MapSource struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMap creates an in-memory source from path → content pairs.
func NewMap(files map[string]string) *MapSource {
	m := &MapSource{files: make(map[string][]byte, len(files))}
	for path, content := range files {
		m.files[path] = []byte(content)
	}
	return m
}

// Read implements ContentSource.
func (m *MapSource) Read(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
	}
	return content, nil
}
