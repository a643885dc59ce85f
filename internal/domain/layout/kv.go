package layout

import (
	"os"
	"path/filepath"
	"sync"
)

// KV is the synchronous string-keyed persistence boundary. Implementations
// must tolerate high-frequency reads; writes happen only on gesture
// completion.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// MemoryKV is an in-process KV for tests and ephemeral mode
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKV creates an empty in-memory KV
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

// Get returns the stored value for key
func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	return v, ok, nil
}

// Set overwrites the value for key
func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

// FileKV stores one document per key under a directory. Writes go through a
// temp file and rename so readers never observe a partial document.
type FileKV struct {
	dir string
	mu  sync.Mutex
}

// NewFileKV creates a file-backed KV rooted at dir
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileKV{dir: dir}, nil
}

// Get reads the document for key. A missing file is absence, not an error.
func (f *FileKV) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// Set atomically overwrites the document for key
func (f *FileKV) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tmp := f.path(key) + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path(key))
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}
