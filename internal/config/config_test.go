package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"tempo/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "tempo")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.MediaDir != filepath.Join(wantData, "media") {
		t.Fatalf("unexpected media dir: %q", cfg.Paths.MediaDir)
	}
	if cfg.Transcoder.TimeoutSeconds != 120 {
		t.Fatalf("unexpected timeout: %d", cfg.Transcoder.TimeoutSeconds)
	}
	if cfg.Transcoder.MinOutputBytes != 100 {
		t.Fatalf("unexpected min output bytes: %d", cfg.Transcoder.MinOutputBytes)
	}
	if cfg.Transcoder.DiagnosticLimit != 500 {
		t.Fatalf("unexpected diagnostic limit: %d", cfg.Transcoder.DiagnosticLimit)
	}
	if !cfg.Batch.SkipProcessed {
		t.Fatal("expected skip_processed to default to true")
	}
	if cfg.Speed.Default != 1.2 {
		t.Fatalf("unexpected default speed: %v", cfg.Speed.Default)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if _, err := os.Stat(cfg.Paths.MediaDir); !os.IsNotExist(err) {
		t.Fatalf("expected media dir to be left alone, got err=%v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "tempo.toml")

	type payload struct {
		Paths struct {
			MediaDir string `toml:"media_dir"`
			DataDir  string `toml:"data_dir"`
		} `toml:"paths"`
		Transcoder struct {
			TimeoutSeconds int      `toml:"timeout_seconds"`
			SearchPaths    []string `toml:"search_paths"`
		} `toml:"transcoder"`
		Speed struct {
			Default float64 `toml:"default"`
		} `toml:"speed"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.MediaDir = filepath.Join(tempDir, "media")
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.Transcoder.TimeoutSeconds = 30
	custom.Transcoder.SearchPaths = []string{"/opt/ffmpeg/bin/ffmpeg", " ", "/opt/ffmpeg/bin/ffmpeg"}
	custom.Speed.Default = 1.5
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Transcoder.TimeoutSeconds != 30 {
		t.Fatalf("unexpected timeout: %d", cfg.Transcoder.TimeoutSeconds)
	}
	if len(cfg.Transcoder.SearchPaths) != 1 {
		t.Fatalf("expected deduplicated search paths, got %v", cfg.Transcoder.SearchPaths)
	}
	if cfg.Speed.Default != 1.5 {
		t.Fatalf("unexpected default speed: %v", cfg.Speed.Default)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized log format, got %q", cfg.Logging.Format)
	}
	if cfg.CollectionPath() != filepath.Join(tempDir, "data", "collection.db") {
		t.Fatalf("unexpected collection path: %q", cfg.CollectionPath())
	}
}

func TestLoadReadsDotEnvNextToConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "tempo.toml")
	mediaDir := filepath.Join(tempDir, "from-env")
	if err := os.WriteFile(configPath, []byte("[logging]\nlevel = \"info\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, ".env"), []byte("TEMPO_MEDIA_DIR="+mediaDir+"\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("TEMPO_MEDIA_DIR", "")
	os.Unsetenv("TEMPO_MEDIA_DIR")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.MediaDir != mediaDir {
		t.Fatalf("expected media dir from .env, got %q", cfg.Paths.MediaDir)
	}
}

func TestEnvOverridesTranscoderBinary(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TEMPO_FFMPEG", "/custom/ffmpeg")
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Transcoder.Binary != "/custom/ffmpeg" {
		t.Fatalf("expected env transcoder, got %q", cfg.Transcoder.Binary)
	}
}

func TestValidateRejectsBadSpeedRange(t *testing.T) {
	cases := map[string]func(*config.Config){
		"min above max":        func(c *config.Config) { c.Speed.Min, c.Speed.Max = 3, 2 },
		"default out of range": func(c *config.Config) { c.Speed.Default = 5 },
		"non-positive min":     func(c *config.Config) { c.Speed.Min = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "verbose"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "logging.level") {
		t.Fatalf("expected logging.level error, got %v", err)
	}
}

func TestCheckSpeed(t *testing.T) {
	cfg := config.Default()
	if err := cfg.CheckSpeed(1.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.CheckSpeed(3.5); err == nil {
		t.Fatal("expected range error")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	t.Setenv("HOME", t.TempDir())
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Preview.SampleMin != 5 || cfg.Preview.SampleMax != 10 {
		t.Fatalf("unexpected preview sample bounds: %+v", cfg.Preview)
	}
}
