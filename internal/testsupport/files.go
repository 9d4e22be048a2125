package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"tempo/internal/config"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteMedia writes a fake audio file of 4 KiB into the configured media
// directory for each name.
func WriteMedia(t testing.TB, cfg *config.Config, names ...string) {
	t.Helper()
	for _, name := range names {
		WriteFile(t, filepath.Join(cfg.Paths.MediaDir, name), 4096)
	}
}

// ReadDirNames lists the entries of dir.
func ReadDirNames(t testing.TB, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}
