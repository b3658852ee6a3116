// Package config loads and validates airmatch configuration from TOML.
//
// Threshold values in [matching] only seed the database settings table on
// first open; afterwards the stored values are authoritative and mutated
// through the reconciliation service.
package config
