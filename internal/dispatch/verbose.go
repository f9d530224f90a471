package dispatch

import "sync/atomic"

// verbose mirrors the showDebugMessages flag of the loaded rule set.
// Set on construction and on every ReloadRules.
var verbose atomic.Bool

// EnableVerbose turns per-rule diagnostics on or off.
func EnableVerbose(enabled bool) {
	verbose.Store(enabled)
}

// IsVerbose returns true if per-rule diagnostics are enabled.
// Use it to guard diagnostics that are expensive to build:
//
//	if dispatch.IsVerbose() {
//	    slog.Info("rule skipped", "suggestions", locate.Suggestions(g, a, spec))
//	}
func IsVerbose() bool {
	return verbose.Load()
}
