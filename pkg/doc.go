// Package pkg provides shared utilities for the softdbm packages.
//
// It contains:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel errors for DBM operations
//   - Component identifiers for log filtering
//   - The [ChannelState] lifecycle enum
//
// # Logging
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentDBM, "channel enabled", "channel", 3)
//
// # Errors
//
//	if errors.Is(err, pkg.ErrNoSuchEndpoint) {
//	    // endpoint was never bound with ConfigureDataFIFO
//	}
package pkg
