// Package config loads lens provider definitions and serves them to the lens
// engine.
//
// Providers come from a TOML file, from editor settings sent over LSP, or
// both. A Store holds the current provider set and selects the providers that
// apply to a document by matching each provider's file globs against the
// document path. A Watcher reloads the provider file when it changes.
package config
