// Package config loads, normalizes, and validates teamdesk configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and overlays a local .env file plus TEAMDESK_*
// environment variables on the [teamdesk] section. The Config type centralizes
// every knob the client and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
