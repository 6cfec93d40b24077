// Package config loads, validates, and defaults framecull configuration.
//
// Configuration is TOML, resolved from an explicit --config path, then
// ~/.config/framecull/config.toml, then a project-local framecull.toml.
// A missing file is not an error; defaults cover every field so the tools
// run unconfigured.
package config
