package config

const (
	defaultConfigPath      = "~/.config/tempo/config.toml"
	defaultMediaDir        = "~/.local/share/tempo/media"
	defaultDataDir         = "~/.local/share/tempo"
	defaultLogDir          = "~/.local/share/tempo/logs"
	defaultTimeoutSeconds  = 120
	defaultMinOutputBytes  = 100
	defaultDiagnosticLimit = 500
	defaultSpeed           = 1.2
	defaultSpeedMin        = 1.0
	defaultSpeedMax        = 3.0
	defaultSampleMin       = 5
	defaultSampleMax       = 10
	defaultStaleHours      = 24
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MediaDir: defaultMediaDir,
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
		},
		Transcoder: Transcoder{
			TimeoutSeconds:  defaultTimeoutSeconds,
			MinOutputBytes:  defaultMinOutputBytes,
			DiagnosticLimit: defaultDiagnosticLimit,
		},
		Speed: Speed{
			Default: defaultSpeed,
			Min:     defaultSpeedMin,
			Max:     defaultSpeedMax,
		},
		Batch: Batch{
			SkipProcessed: true,
		},
		Preview: Preview{
			SampleMin:  defaultSampleMin,
			SampleMax:  defaultSampleMax,
			StaleHours: defaultStaleHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
