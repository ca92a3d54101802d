// Package config loads and validates the remapper's configuration: TOML
// daemon settings and the kmonad-style layout file that defines the key
// catalog (defsrc) and the layers (deflayer).
//
// Loading is all-or-nothing. A layout either compiles into a complete,
// validated snapshot or fails with a ConfigError; the reload manager
// keeps the previously active snapshot in force when a reload attempt
// fails.
package config
