// Package staging manages preview scopes: per-session scratch directories
// that hold preview renders and are removed when the session ends. Scopes
// left behind by a crashed session are swept by CleanStale.
package staging
