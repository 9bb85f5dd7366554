// Package config loads, validates, and defaults the TOML configuration for
// slidesync.
package config
