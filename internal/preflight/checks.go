package preflight

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"tempo/internal/config"
	"tempo/internal/deps"
	"tempo/internal/logging"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := accessReadWrite(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies that the filesystem holding path has at least
// minBytes available.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	free, err := freeBytes(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s free", logging.FormatBytes(int64(free)))
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s, need %s", detail, logging.FormatBytes(int64(minBytes)))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckTranscoder verifies that ffmpeg can be resolved.
func CheckTranscoder(cfg *config.Config) Result {
	const name = "FFmpeg"
	path, err := deps.ResolveTranscoder(cfg.Transcoder.Binary, cfg.Transcoder.SearchPaths)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckCollectionLock reports whether another tempo process is writing to
// the collection.
func CheckCollectionLock(path string) Result {
	const name = "Collection lock"
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !locked {
		return Result{Name: name, Detail: "held by another tempo process"}
	}
	_ = lock.Unlock()
	return Result{Name: name, Passed: true, Detail: "available"}
}

// CheckSystemDeps evaluates the executables tempo shells out to.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	ffmpeg, err := deps.ResolveTranscoder(cfg.Transcoder.Binary, cfg.Transcoder.SearchPaths)
	if err != nil {
		ffmpeg = cfg.Transcoder.Binary
		if ffmpeg == "" {
			ffmpeg = "ffmpeg"
		}
	}
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpeg,
			Description: "Required for speed changes and previews",
		},
		{
			Name:        "FFprobe",
			Command:     deps.ResolveFFprobe(cfg.FFprobeBinary(), ffmpeg),
			Description: "Verifies transcoded output",
			Optional:    !cfg.Transcoder.ProbeOutput,
		},
	}
	return deps.CheckBinaries(requirements)
}
