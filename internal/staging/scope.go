package staging

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// ScopePrefix names every preview scope directory.
const ScopePrefix = "tempo-preview-"

// Scope is a temporary directory owned by one session.
type Scope struct {
	path string
	once sync.Once
	err  error
}

// Acquire creates a new scope under root. An empty root uses the OS temp
// directory.
func Acquire(root string) (*Scope, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create preview root: %w", err)
	}
	dir, err := os.MkdirTemp(root, ScopePrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("create preview scope: %w", err)
	}
	return &Scope{path: dir}, nil
}

// Path returns the scope directory.
func (s *Scope) Path() string {
	return s.path
}

// Release removes the scope and everything in it. Later calls are no-ops and
// return the first result.
func (s *Scope) Release() error {
	if s == nil {
		return nil
	}
	s.once.Do(func() {
		if err := os.RemoveAll(s.path); err != nil {
			s.err = fmt.Errorf("remove preview scope: %w", err)
		}
	})
	return s.err
}
