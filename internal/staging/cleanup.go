package staging

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tempo/internal/logging"
)

// CleanStaleResult lists what a sweep removed and what it could not.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a scope path with the error that kept it on disk.
type CleanupError struct {
	Path  string
	Error error
}

// DirInfo describes one preview scope.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// CleanStale removes preview scopes under root older than maxAge. Scopes left
// by crashed sessions are the only expected victims; directories without
// ScopePrefix are never touched, so root may be shared.
func CleanStale(ctx context.Context, root string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	var result CleanStaleResult
	if logger == nil {
		logger = logging.NewNop()
	}
	scopes, err := scopeEntries(root)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, scope := range scopes {
		if ctx.Err() != nil {
			break
		}
		if !scope.ModTime.Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(scope.Path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: scope.Path, Error: err})
			logging.WarnWithContext(logger, "failed to remove stale preview scope", "preview_cleanup_failed",
				logging.String("scope_path", scope.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check preview_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, scope.Path)
		logger.Debug("removed stale preview scope",
			logging.String("scope_path", scope.Path),
			logging.Duration("age", time.Since(scope.ModTime)),
			logging.String(logging.FieldEventType, "preview_cleanup"),
		)
	}
	return result
}

// ListScopes returns the preview scopes under root with their sizes. A
// missing root has no scopes.
func ListScopes(root string) ([]DirInfo, error) {
	scopes, err := scopeEntries(root)
	if err != nil {
		return nil, err
	}
	for i := range scopes {
		scopes[i].Size = dirSize(scopes[i].Path)
	}
	return scopes, nil
}

// scopeEntries reads the ScopePrefix directories directly under root.
func scopeEntries(root string) ([]DirInfo, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var scopes []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), ScopePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		scopes = append(scopes, DirInfo{
			Name:    entry.Name(),
			Path:    filepath.Join(root, entry.Name()),
			ModTime: info.ModTime(),
		})
	}
	return scopes, nil
}

// dirSize sums regular file sizes below path. Unreadable entries count as 0.
func dirSize(path string) int64 {
	var size int64
	_ = filepath.WalkDir(path, func(_ string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return nil
		}
		if info, err := entry.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}
