// Package assets loads model and material files from directories on disk
// and caches them.
package assets

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no root holds the requested file.
var ErrNotFound = errors.New("file not found")

// Manager reads files from one or more root directories and caches their
// contents. It implements formats.FileReader.
type Manager struct {
	roots []string
	cache *Cache
	log   *zap.Logger
	mu    sync.RWMutex

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewManager creates a new asset manager.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cache: NewCache(),
		log:   log,
	}
}

// AddRoot adds a directory to the manager.
// Roots are searched in reverse order (last added = highest priority).
func (m *Manager) AddRoot(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrapf(err, "resolving root %s", dir)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return errors.Wrapf(err, "opening root %s", dir)
	}
	if !info.IsDir() {
		return errors.Errorf("root %s is not a directory", dir)
	}

	m.mu.Lock()
	m.roots = append(m.roots, abs)
	watcher := m.watcher
	m.mu.Unlock()

	if watcher != nil {
		return m.watchTree(watcher, abs)
	}
	return nil
}

// ReadFile returns the contents of name, a slash-separated path relative
// to the roots. Names escaping the roots are rejected.
func (m *Manager) ReadFile(name string) ([]byte, error) {
	key := filepath.ToSlash(filepath.Clean(name))
	if !filepath.IsLocal(filepath.FromSlash(key)) {
		return nil, errors.Errorf("invalid path %q", name)
	}

	// Check cache first
	if data, ok := m.cache.Get(key); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.roots) - 1; i >= 0; i-- {
		data, err := os.ReadFile(filepath.Join(m.roots[i], filepath.FromSlash(key)))
		if err == nil {
			m.cache.Set(key, data)
			return data, nil
		}
	}

	return nil, errors.Wrap(ErrNotFound, name)
}

// Watch starts evicting cached files when they change on disk. It returns
// once every root is being watched.
func (m *Manager) Watch() error {
	m.mu.Lock()
	if m.watcher != nil {
		m.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.mu.Unlock()
		return errors.Wrap(err, "creating file watcher")
	}
	m.watcher = watcher
	m.done = make(chan struct{})
	roots := append([]string(nil), m.roots...)
	m.mu.Unlock()

	for _, root := range roots {
		if err := m.watchTree(watcher, root); err != nil {
			return err
		}
	}

	m.wg.Add(1)
	go m.watch(watcher, m.done)
	return nil
}

// watchTree adds dir and every directory below it to the watch list.
func (m *Manager) watchTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return errors.Wrapf(w.Add(path), "watching %s", path)
		}
		return nil
	})
}

func (m *Manager) watch(w *fsnotify.Watcher, done chan struct{}) {
	defer m.wg.Done()
	for {
		select {
		case e, ok := <-w.Events:
			if !ok {
				return
			}
			if e.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
					if err := m.watchTree(w, e.Name); err != nil {
						m.log.Warn("watching new directory", zap.String("dir", e.Name), zap.Error(err))
					}
				}
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				m.evict(e.Name)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			m.log.Warn("file watcher error", zap.Error(err))

		case <-done:
			return
		}
	}
}

// evict drops the cache entry of an absolute path below any root.
func (m *Manager) evict(path string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, root := range m.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || !filepath.IsLocal(rel) {
			continue
		}
		key := filepath.ToSlash(rel)
		if m.cache.Delete(key) {
			m.log.Debug("evicted changed file", zap.String("file", key))
		}
	}
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Close stops watching and clears the cache.
func (m *Manager) Close() error {
	m.mu.Lock()
	watcher, done := m.watcher, m.done
	m.watcher, m.done = nil, nil
	m.mu.Unlock()

	var err error
	if watcher != nil {
		close(done)
		err = watcher.Close()
		m.wg.Wait()
	}

	m.mu.Lock()
	m.roots = nil
	m.mu.Unlock()
	m.cache.Clear()
	return err
}

// Cache is a simple in-memory cache for loaded files.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Delete removes an item and reports whether it was cached.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	delete(c.data, key)
	return ok
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
