// Package config loads, normalizes, and validates tempo configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an adjacent .env file, and honours
// environment fallbacks such as TEMPO_MEDIA_DIR and TEMPO_FFMPEG. The Config
// type centralizes the media, transcoder, speed, and preview knobs the CLI
// needs so they are resolved in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
