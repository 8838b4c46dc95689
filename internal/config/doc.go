// SPDX-License-Identifier: MPL-2.0

// Package config loads shinc project configuration using Viper with TOML as
// the file format.
//
// Configuration is layered: built-in defaults (default.toml), the user file
// (config.toml in ConfigDir), then .shinc/config.toml in the project root.
// Each file is validated against a CUE schema (config_schema.cue) before it
// is merged, so unknown keys and mistyped values are reported with their path.
package config
