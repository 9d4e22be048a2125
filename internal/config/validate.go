package config

import (
	"errors"
	"fmt"
	"math"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSpeed(); err != nil {
		return err
	}
	if err := c.validatePreview(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.MediaDir == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("paths.media_dir is required. Set TEMPO_MEDIA_DIR or edit %s (create with 'tempo config init')", defaultPath)
	}
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateSpeed() error {
	for name, value := range map[string]float64{
		"speed.default": c.Speed.Default,
		"speed.min":     c.Speed.Min,
		"speed.max":     c.Speed.Max,
	} {
		if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
			return fmt.Errorf("%s must be a positive number", name)
		}
	}
	if c.Speed.Min > c.Speed.Max {
		return errors.New("speed.min must not exceed speed.max")
	}
	if c.Speed.Default < c.Speed.Min || c.Speed.Default > c.Speed.Max {
		return fmt.Errorf("speed.default %.2f must be within speed.min and speed.max", c.Speed.Default)
	}
	return nil
}

func (c *Config) validatePreview() error {
	if c.Preview.SampleMin > c.Preview.SampleMax {
		return errors.New("preview.sample_min must not exceed preview.sample_max")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
