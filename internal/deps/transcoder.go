package deps

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"tempo/internal/services"
)

// Resolver locates the ffmpeg executable.
//
// Lookup order: Override (when set, it is the only candidate), then PATH,
// then SearchPaths, then Platform. A nil Platform uses the well-known install
// locations for the running OS.
type Resolver struct {
	Override    string
	SearchPaths []string
	Platform    []string
	LookPath    func(string) (string, error)
}

// ResolveTranscoder resolves ffmpeg using the platform defaults.
func ResolveTranscoder(override string, searchPaths []string) (string, error) {
	return Resolver{Override: override, SearchPaths: searchPaths}.Resolve()
}

// Resolve returns the path (or PATH-relative name) of the transcoder.
func (r Resolver) Resolve() (string, error) {
	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	if override := strings.TrimSpace(r.Override); override != "" {
		if strings.ContainsAny(override, `/\`) {
			if fileExecutable(override) {
				return override, nil
			}
		} else if resolved, err := lookPath(override); err == nil {
			return resolved, nil
		}
		return "", services.Wrap(services.ErrTranscoderNotFound, "deps", "resolve ffmpeg",
			fmt.Sprintf("configured binary %q is not executable", override), nil)
	}

	if resolved, err := lookPath(ffmpegName()); err == nil {
		return resolved, nil
	}

	platform := r.Platform
	if platform == nil {
		platform = PlatformCandidates(runtime.GOOS, os.Getenv)
	}
	candidates := append(append([]string(nil), r.SearchPaths...), platform...)
	for _, candidate := range candidates {
		if candidate != "" && fileExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", services.Wrap(services.ErrTranscoderNotFound, "deps", "resolve ffmpeg",
		fmt.Sprintf("not on PATH and not in %d known locations", len(candidates)), nil)
}

// PlatformCandidates lists the install locations probed after PATH. Windows
// entries expand LOCALAPPDATA and PROGRAMFILES; unset variables drop the entry.
func PlatformCandidates(goos string, getenv func(string) string) []string {
	switch goos {
	case "darwin":
		return []string{
			"/Applications/Anki.app/Contents/MacOS/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/opt/homebrew/bin/ffmpeg",
		}
	case "windows":
		var out []string
		if dir := getenv("LOCALAPPDATA"); dir != "" {
			out = append(out, dir+`\Programs\Anki\ffmpeg.exe`)
		}
		if dir := getenv("PROGRAMFILES"); dir != "" {
			out = append(out, dir+`\Anki\ffmpeg.exe`)
		}
		return out
	default:
		return []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
		}
	}
}

// ResolveFFprobe returns the ffprobe path, preferring one installed next to
// the resolved ffmpeg.
func ResolveFFprobe(configured, ffmpegPath string) string {
	configured = strings.TrimSpace(configured)
	if configured != "" && configured != "ffprobe" {
		return configured
	}
	if strings.ContainsAny(ffmpegPath, `/\`) {
		name := "ffprobe"
		if strings.HasSuffix(strings.ToLower(ffmpegPath), ".exe") {
			name += ".exe"
		}
		sibling := siblingPath(ffmpegPath, name)
		if fileExecutable(sibling) {
			return sibling
		}
	}
	return "ffprobe"
}

func siblingPath(path, name string) string {
	idx := strings.LastIndexAny(path, `/\`)
	return path[:idx+1] + name
}

func ffmpegName() string {
	if runtime.GOOS == "windows" {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}

func fileExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && isExecutable(info)
}
