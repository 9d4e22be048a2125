package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	MediaDir   string `toml:"media_dir"`
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
	PreviewDir string `toml:"preview_dir"`
}

// Transcoder contains settings for the external ffmpeg process.
type Transcoder struct {
	// Binary overrides transcoder discovery when set.
	Binary string `toml:"binary"`
	// SearchPaths are probed after PATH and before the platform defaults.
	SearchPaths     []string `toml:"search_paths"`
	FFprobeBinary   string   `toml:"ffprobe_binary"`
	TimeoutSeconds  int      `toml:"timeout_seconds"`
	MinOutputBytes  int64    `toml:"min_output_bytes"`
	DiagnosticLimit int      `toml:"diagnostic_limit"`
	ProbeOutput     bool     `toml:"probe_output"`
}

// Speed bounds the playback rates accepted from the command line.
type Speed struct {
	Default float64 `toml:"default"`
	Min     float64 `toml:"min"`
	Max     float64 `toml:"max"`
}

// Batch contains batch selection defaults.
type Batch struct {
	SkipProcessed bool `toml:"skip_processed"`
}

// Preview contains settings for sample previews.
type Preview struct {
	SampleMin  int `toml:"sample_min"`
	SampleMax  int `toml:"sample_max"`
	StaleHours int `toml:"stale_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tempo.
//
// Configuration sections by subsystem:
//   - Paths: media directory, database/lock directory, logs, preview scratch space
//   - Transcoder: ffmpeg discovery, timeout, and output validation thresholds
//   - Speed: default and accepted playback rate range
//   - Batch: whether already processed references are skipped
//   - Preview: sample size and stale scratch cleanup
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Transcoder Transcoder `toml:"transcoder"`
	Speed      Speed      `toml:"speed"`
	Batch      Batch      `toml:"batch"`
	Preview    Preview    `toml:"preview"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv reads a .env file next to the config file. Variables already
// present in the environment win.
func loadDotEnv(dir string) error {
	envPath := filepath.Join(dir, ".env")
	info, err := os.Stat(envPath)
	if err != nil || info.IsDir() {
		return nil
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("load %s: %w", envPath, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tempo.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories tempo writes to. The media
// directory belongs to the collection and is never created here.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir}
	if c.Paths.PreviewDir != "" {
		dirs = append(dirs, c.Paths.PreviewDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CollectionPath returns the SQLite database holding notes and cards.
func (c *Config) CollectionPath() string {
	return filepath.Join(c.Paths.DataDir, "collection.db")
}

// LedgerPath returns the SQLite database holding undo ledgers.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.DataDir, "ledger.db")
}

// LockPath returns the advisory lock serializing collection writes.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "collection.lock")
}

// PreviewRoot returns the parent directory for preview scopes.
func (c *Config) PreviewRoot() string {
	if c.Paths.PreviewDir != "" {
		return c.Paths.PreviewDir
	}
	return os.TempDir()
}

// TranscodeTimeout returns the per-file transcoder deadline.
func (c *Config) TranscodeTimeout() time.Duration {
	return time.Duration(c.Transcoder.TimeoutSeconds) * time.Second
}

// PreviewStaleAge returns how old a leftover preview scope must be before it is swept.
func (c *Config) PreviewStaleAge() time.Duration {
	return time.Duration(c.Preview.StaleHours) * time.Hour
}

// FFprobeBinary returns the ffprobe executable name used for output verification.
func (c *Config) FFprobeBinary() string {
	if c.Transcoder.FFprobeBinary != "" {
		return c.Transcoder.FFprobeBinary
	}
	return "ffprobe"
}

// CheckSpeed reports whether speed falls inside the configured range.
func (c *Config) CheckSpeed(speed float64) error {
	if speed < c.Speed.Min || speed > c.Speed.Max {
		return fmt.Errorf("speed %.2f outside configured range %.2f-%.2f", speed, c.Speed.Min, c.Speed.Max)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
