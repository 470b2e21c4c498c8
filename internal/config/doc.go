// Package config loads, normalizes, and validates quicklook's TOML
// configuration.
//
// Configuration is resolved from an explicit --config path, then
// ~/.config/quicklook/config.toml, then ./quicklook.toml, falling back to
// built-in defaults when no file exists. All path fields are tilde-expanded
// and made absolute during normalization so downstream code never deals with
// relative paths.
package config
