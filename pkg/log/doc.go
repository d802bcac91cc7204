// Package log provides the logging abstraction used across forage.
//
// Components depend on the [Logger] interface only. [ZerologAdapter] backs it
// with zerolog for the CLI; [NoopLogger] discards everything and is what
// library callers get when they do not supply a logger.
//
//	logger := log.NewZerologAdapter(os.Stderr, "info")
//	dao := logger.With(log.String("component", "sqlite"))
//	dao.Info("opened", log.String("path", path))
package log
