package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (FORAGE_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("db", os.Getenv("FORAGE_DB_PATH"), &cfg.DBPath)
	s.setString("log-level", os.Getenv("FORAGE_LOG_LEVEL"), &cfg.LogLevel)
	s.setBoolFromString("watch-file", os.Getenv("FORAGE_WATCH_FILE"), &cfg.WatchFile)

	if err := s.setDuration("shutdown-timeout", os.Getenv("FORAGE_SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := s.setDuration("linger", os.Getenv("FORAGE_LINGER"), &cfg.Linger); err != nil {
		return err
	}
	if err := s.setIntFromString("max-io-workers", os.Getenv("FORAGE_MAX_IO_WORKERS"), &cfg.MaxIOWorkers); err != nil {
		return err
	}
	return nil
}
