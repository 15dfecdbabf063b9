// Package debug provides category-scoped debug logging on top of slog.
//
// Verbosity is controlled on two independent axes. Categories select
// WHICH subsystems log (ZETTEL_DEBUG env or config, comma-separated),
// levels select HOW MUCH each one says (ZETTEL_LOG_LEVEL env or
// config). A category must be enabled for its Log/Trace calls to emit
// anything at all, so instrumented hot paths cost one map lookup when
// debugging is off.
//
//	debug.Log("vector", "embedding request", "texts", len(texts))
//	if debug.Enabled("storage") { /* expensive formatting */ }
//
// Known categories: storage, vector, cache, auth, transport, notes,
// users, config, mcp. The value "all" enables every category.
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
package debug

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// LevelTrace sits below slog.LevelDebug. TRACE output includes full
// untruncated payloads such as query text and embedding request bodies.
const LevelTrace = slog.LevelDebug - 4

// categories is the enabled category set. Written only by init and
// Init, read everywhere else.
var categories map[string]bool

func init() {
	// Pick up the environment immediately so debug output works before
	// configuration is loaded. Init replays this with config values.
	categories = parseCategories(os.Getenv("ZETTEL_DEBUG"))
}

// Init applies the configured categories, level, and output format.
// Environment variables win over the config file values.
func Init(configCategories, configLevel, configFormat string) {
	cats := os.Getenv("ZETTEL_DEBUG")
	if cats == "" {
		cats = configCategories
	}
	categories = parseCategories(cats)

	level := os.Getenv("ZETTEL_LOG_LEVEL")
	if level == "" {
		level = configLevel
	}
	if level == "" {
		level = "INFO"
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if configFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// Enabled reports whether the category (or "all") is switched on.
func Enabled(category string) bool {
	return categories["all"] || categories[category]
}

// Log emits a DEBUG record tagged with the category. No-op when the
// category is off.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a TRACE record tagged with the category. Visible only
// under ZETTEL_LOG_LEVEL=TRACE.
func Trace(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(nil, LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// TraceIsEnabled reports whether a Trace call for the category would
// actually emit.
func TraceIsEnabled(category string) bool {
	return Enabled(category) && slog.Default().Enabled(nil, LevelTrace)
}

// Raw writes plain text to stderr, skipping slog formatting entirely.
// Meant for copy-paste-ready dumps (full request bodies, ranked search
// results). Emits only when the category is on and the level is TRACE.
func Raw(category string, text string) {
	if !TraceIsEnabled(category) {
		return
	}
	fmt.Fprintln(os.Stderr, text)
}

// ParseLevel maps a level name to its slog.Level. Unknown or empty
// names fall back to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Categories returns the enabled category names, for status reporting.
func Categories() []string {
	out := make([]string, 0, len(categories))
	for k := range categories {
		out = append(out, k)
	}
	return out
}

// Truncate caps s at maxLen bytes, marking the cut with "...".
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// parseCategories splits a comma-separated category list into a lookup
// set, trimming whitespace and lowercasing each entry.
func parseCategories(s string) map[string]bool {
	set := make(map[string]bool)
	if s == "" {
		return set
	}
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			set[cat] = true
		}
	}
	return set
}
