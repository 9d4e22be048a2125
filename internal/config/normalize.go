package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTranscoder(); err != nil {
		return err
	}
	c.normalizePreview()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("TEMPO_MEDIA_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.MediaDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}

	var err error
	if c.Paths.MediaDir, err = expandPath(strings.TrimSpace(c.Paths.MediaDir)); err != nil {
		return fmt.Errorf("paths.media_dir: %w", err)
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.PreviewDir, err = expandPath(strings.TrimSpace(c.Paths.PreviewDir)); err != nil {
		return fmt.Errorf("paths.preview_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscoder() error {
	c.Transcoder.Binary = strings.TrimSpace(c.Transcoder.Binary)
	if c.Transcoder.Binary == "" {
		if value, ok := os.LookupEnv("TEMPO_FFMPEG"); ok {
			c.Transcoder.Binary = strings.TrimSpace(value)
		}
	}
	c.Transcoder.FFprobeBinary = strings.TrimSpace(c.Transcoder.FFprobeBinary)

	paths := make([]string, 0, len(c.Transcoder.SearchPaths))
	seen := make(map[string]struct{}, len(c.Transcoder.SearchPaths))
	for _, candidate := range c.Transcoder.SearchPaths {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		expanded, err := expandPath(candidate)
		if err != nil {
			return fmt.Errorf("transcoder.search_paths: %w", err)
		}
		if _, dup := seen[expanded]; dup {
			continue
		}
		seen[expanded] = struct{}{}
		paths = append(paths, expanded)
	}
	c.Transcoder.SearchPaths = paths

	if c.Transcoder.TimeoutSeconds <= 0 {
		c.Transcoder.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Transcoder.MinOutputBytes <= 0 {
		c.Transcoder.MinOutputBytes = defaultMinOutputBytes
	}
	if c.Transcoder.DiagnosticLimit <= 0 {
		c.Transcoder.DiagnosticLimit = defaultDiagnosticLimit
	}
	return nil
}

func (c *Config) normalizePreview() {
	if c.Preview.SampleMin <= 0 {
		c.Preview.SampleMin = defaultSampleMin
	}
	if c.Preview.SampleMax <= 0 {
		c.Preview.SampleMax = defaultSampleMax
	}
	if c.Preview.StaleHours <= 0 {
		c.Preview.StaleHours = defaultStaleHours
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if value, ok := os.LookupEnv("TEMPO_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(value))
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
