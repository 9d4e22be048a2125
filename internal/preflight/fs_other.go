//go:build !unix

package preflight

import (
	"errors"
	"os"
	"path/filepath"
)

func accessReadWrite(path string) error {
	probe, err := os.CreateTemp(path, ".tempo-access-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(filepath.Clean(name))
}

func freeBytes(string) (uint64, error) {
	return 0, errors.New("free space check unsupported on this platform")
}
