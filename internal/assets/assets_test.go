package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestManager_ReadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "models", "cube.obj"), "v 0 0 0")

	m := NewManager(nil)
	defer m.Close()
	if err := m.AddRoot(dir); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}

	data, err := m.ReadFile("models/cube.obj")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "v 0 0 0" {
		t.Errorf("ReadFile = %q", data)
	}

	// second read is served from cache
	if _, err := m.ReadFile("models/../models/cube.obj"); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	hits, misses := m.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Stats() = %d hits, %d misses, want 1, 1", hits, misses)
	}
}

func TestManager_RootPriority(t *testing.T) {
	base, override := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(base, "a.mtl"), "base")
	writeFile(t, filepath.Join(base, "b.mtl"), "base")
	writeFile(t, filepath.Join(override, "a.mtl"), "override")

	m := NewManager(nil)
	defer m.Close()
	for _, dir := range []string{base, override} {
		if err := m.AddRoot(dir); err != nil {
			t.Fatalf("AddRoot: %v", err)
		}
	}

	tests := []struct {
		name string
		want string
	}{
		{"a.mtl", "override"},
		{"b.mtl", "base"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := m.ReadFile(tt.name)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("ReadFile(%s) = %q, want %q", tt.name, data, tt.want)
			}
		})
	}
}

func TestManager_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "secret.txt"), "x")
	inner := filepath.Join(dir, "inner")
	writeFile(t, filepath.Join(inner, "m.obj"), "x")

	m := NewManager(nil)
	defer m.Close()
	if err := m.AddRoot(inner); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}

	if _, err := m.ReadFile("missing.obj"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadFile(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := m.ReadFile("../secret.txt"); err == nil {
		t.Error("ReadFile outside root succeeded")
	}
	if err := m.AddRoot(filepath.Join(inner, "m.obj")); err == nil {
		t.Error("AddRoot on a file succeeded")
	}
}

func TestManager_WatchEvicts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.mtl")
	writeFile(t, path, "newmtl a")

	m := NewManager(nil)
	defer m.Close()
	if err := m.AddRoot(dir); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}
	if err := m.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if _, err := m.ReadFile("scene.mtl"); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	writeFile(t, path, "newmtl b")

	deadline := time.Now().Add(5 * time.Second)
	for m.cache.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("cache entry was not evicted after the file changed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	data, err := m.ReadFile("scene.mtl")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "newmtl b" {
		t.Errorf("ReadFile after change = %q", data)
	}
}

func TestCache(t *testing.T) {
	c := NewCache()
	c.Set("a", []byte("1"))

	if _, ok := c.Get("a"); !ok {
		t.Error("Get(a) missed")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("Get(b) hit")
	}
	if !c.Delete("a") || c.Delete("a") {
		t.Error("Delete did not report the cached entry once")
	}

	c.Set("x", nil)
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d", c.Len())
	}
	if hits, misses := c.Stats(); hits != 0 || misses != 0 {
		t.Errorf("Stats after Clear = %d, %d", hits, misses)
	}
}
