// Package source loads ruleset documents for the rules registry.
//
// Two sources are provided: MemorySource for tests and embedded catalogs,
// and FileSource for JSON/YAML documents on disk. FileSource validates JSON
// documents against the embedded ruleset schema before parsing, so broken
// documents are rejected at load time, and supports fsnotify-driven reloads
// through Watcher.
package source
