// Package autolog provides a logger whose verbosity, per-category levels,
// password redaction and slow-call threshold can be changed while the
// program runs, together with CallScope, a bracket that records the entry,
// exit, timing, arguments and failures of an instrumented method.
//
// Settings live in an immutable snapshot. Log calls read the current
// snapshot without locking; property setters and configuration reloads
// build a new snapshot and publish it in one step, so a record is always
// filtered by one consistent set of values.
//
// Key Features:
//
//   - Lock-free level checks on every log call
//   - Hot reload of a watched configuration file (JSON, YAML, TOML, HCL, INI)
//   - Last known good configuration kept when a file cannot be parsed
//   - Per-category thresholds combined with the global level
//   - Case-insensitive redaction of password arguments and settings
//   - Slow data-access calls escalated to Warn regardless of level
//   - Pluggable sinks: console, file, syslog, zap, zerolog, NATS
//
// Basic Usage:
//
//	logger, err := autolog.New(
//		autolog.WithSink(backends.NewConsoleSink(os.Stdout, false)),
//		autolog.WithConfigFile("/etc/app/autolog.yaml"),
//		autolog.WithMonitoring(),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer logger.Close()
//
//	logger.Info("Application started")
//	logger.Category("Cache").Debug("warming")
//
// Instrumenting a Method:
//
//	func (r *Repo) Find(id string) (err error) {
//		scope := logger.AutoLogSQL("Repo.Find", autolog.Arg("id", id))
//		defer scope.Close()
//
//		if err := r.query(id); err != nil {
//			return scope.LogFunction(err)
//		}
//		return nil
//	}
//
// Configuration File:
//
//	LogLevel: debug
//	AutoLogSQLThreshold: 2.5
//	DebugLevels:
//	  Cache: warn
//	MonitoredSettings:
//	  Region: eu-west-1
//	  DbPassword: s3cret
//	IsPassword:
//	  DbPassword: true
//
// A change to the file is picked up within the poll interval plus the
// quiescence window. Subscribers registered with OnConfigFileChanged run
// after the new settings are visible.
package autolog
