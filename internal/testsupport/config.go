package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"tempo/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Every directory exists on return.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.MediaDir = filepath.Join(base, "media")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.PreviewDir = filepath.Join(base, "previews")
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := os.MkdirAll(builder.cfg.Paths.MediaDir, 0o755); err != nil {
		t.Fatalf("mkdir media dir: %v", err)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// stubTranscoder copies the -i input to the final argument, which is how
// ffmpeg is invoked for every plan.
const stubTranscoder = `#!/bin/sh
in=""
out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "-i" ]; then in="$arg"; fi
  prev="$arg"
  out="$arg"
done
cat "$in" > "$out"
`

// WithStubTranscoder installs a fake ffmpeg that copies its input to its
// output and points the config at it.
func WithStubTranscoder() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcoder.Binary = b.writeStub("ffmpeg", stubTranscoder)
	}
}

// WithFailingTranscoder installs a fake ffmpeg that prints message to stderr
// and exits non-zero.
func WithFailingTranscoder(message string) ConfigOption {
	return func(b *configBuilder) {
		script := "#!/bin/sh\necho '" + message + "' >&2\nexit 1\n"
		b.cfg.Transcoder.Binary = b.writeStub("ffmpeg", script)
	}
}

// WithMissingTranscoder points the config at a transcoder that does not
// exist, so resolution fails regardless of the host PATH.
func WithMissingTranscoder() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcoder.Binary = filepath.Join(b.baseDir, "bin", "no-such-ffmpeg")
	}
}

// WithSpeedRange overrides the accepted speed range.
func WithSpeedRange(minSpeed, maxSpeed float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Speed.Min = minSpeed
		b.cfg.Speed.Max = maxSpeed
	}
}

func (b *configBuilder) writeStub(name, script string) string {
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		b.t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.MediaDir)
}
