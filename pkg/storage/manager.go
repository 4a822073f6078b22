package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	mirrorerrors "coursemirror/pkg/errors"
)

// DefaultChunkSize is the copy buffer size used when none is configured
const DefaultChunkSize = 8192

// partSuffix marks files that are still being written
const partSuffix = ".part"

// Manager handles file storage operations below a mirror root
type Manager struct {
	root      string
	chunkSize int
	written   map[string]bool
	mu        sync.Mutex
}

// NewManager creates a new storage manager rooted at root
func NewManager(root string, chunkSize int) (*Manager, error) {
	if root == "" {
		return nil, mirrorerrors.New(mirrorerrors.ErrorTypeFilesystem, "", "output directory is empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, mirrorerrors.Wrap(mirrorerrors.ErrorTypeFilesystem, "", "failed to create output directory", err)
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return &Manager{
		root:      root,
		chunkSize: chunkSize,
		written:   make(map[string]bool),
	}, nil
}

// Root returns the mirror root directory
func (m *Manager) Root() string {
	return m.root
}

// EnsureDir creates dir and all its ancestors
func (m *Manager) EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return mirrorerrors.Wrap(mirrorerrors.ErrorTypeFilesystem, "", fmt.Sprintf("failed to create directory %s", dir), err)
	}
	return nil
}

// Save streams r into dir/name and returns the final path and bytes written.
//
// The data is copied in fixed-size chunks into a ".part" file that is renamed
// into place once complete. On any error the partial file is removed. If the
// same path was already written during this Manager's lifetime, a " (n)"
// counter is inserted before the extension.
func (m *Manager) Save(ctx context.Context, r io.Reader, dir, name string) (string, int64, error) {
	if err := m.EnsureDir(dir); err != nil {
		return "", 0, err
	}

	path := m.claim(filepath.Join(dir, name))
	tempFile := path + partSuffix

	out, err := os.Create(tempFile)
	if err != nil {
		m.release(path)
		return "", 0, mirrorerrors.Wrap(mirrorerrors.ErrorTypeFilesystem, "", "failed to create temporary file", err)
	}

	n, err := m.copyChunks(ctx, out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		m.release(path)
		return "", n, err
	}

	if closeErr != nil {
		os.Remove(tempFile)
		m.release(path)
		return "", n, mirrorerrors.Wrap(mirrorerrors.ErrorTypeFilesystem, "", "failed to close file", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		m.release(path)
		return "", n, mirrorerrors.Wrap(mirrorerrors.ErrorTypeFilesystem, "", "failed to rename temporary file", err)
	}

	return path, n, nil
}

func (m *Manager) copyChunks(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, m.chunkSize)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		nr, readErr := src.Read(buf)
		if nr > 0 {
			nw, writeErr := dst.Write(buf[:nr])
			total += int64(nw)
			if writeErr != nil {
				return total, mirrorerrors.Wrap(mirrorerrors.ErrorTypeFilesystem, "", "failed to write file data", writeErr)
			}
			if nw != nr {
				return total, mirrorerrors.Wrap(mirrorerrors.ErrorTypeFilesystem, "", "failed to write file data", io.ErrShortWrite)
			}
		}
		if readErr == io.EOF {
			return total, nil
		}
		if readErr != nil {
			return total, mirrorerrors.Wrap(mirrorerrors.ErrorTypeNetwork, "", "failed to read response body", readErr)
		}
	}
}

// claim reserves a path that has not been written yet in this run
func (m *Manager) claim(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidate := path
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 2; m.written[candidate]; i++ {
		candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
	}
	m.written[candidate] = true
	return candidate
}

func (m *Manager) release(path string) {
	m.mu.Lock()
	delete(m.written, path)
	m.mu.Unlock()
}

// WrittenCount returns the number of files saved by this manager
func (m *Manager) WrittenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.written)
}
