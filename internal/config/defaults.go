package config

const (
	defaultConfigPath      = "~/.config/scalabatch/config.toml"
	defaultStateDir        = "~/.local/share/scalabatch"
	defaultLogDir          = "~/.local/share/scalabatch/logs"
	defaultHistoryPath     = "~/.local/share/scalabatch/history.db"
	defaultHistoryKeepRuns = 100
	defaultDecompiler      = "scalap"
	defaultInputExtension  = ".class"
	defaultOutputExtension = ".scala"
	defaultConcurrency     = 50
	defaultNestedPolicy    = "include"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	decompilerEnvVar       = "SCALABATCH_DECOMPILER"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Decompiler: Decompiler{
			Binary:          defaultDecompiler,
			InputExtension:  defaultInputExtension,
			OutputExtension: defaultOutputExtension,
		},
		Batch: Batch{
			Concurrency: defaultConcurrency,
		},
		Discovery: Discovery{
			Nested: defaultNestedPolicy,
		},
		History: History{
			Enabled:  true,
			Path:     defaultHistoryPath,
			KeepRuns: defaultHistoryKeepRuns,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
