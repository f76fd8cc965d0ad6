// Package config provides configuration management for tunefetch.
//
// This package handles:
//   - Loading and saving settings from JSON or YAML files
//   - Default configuration values
//   - TUNEFETCH_* environment overrides
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// 3 attempts per track, 5 seconds between attempts
//	// Workspaces under $TMPDIR/tunefetch
//
// # Loading from File
//
//	settings, err := config.Load("/etc/tunefetch/config.yaml")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//	if err := settings.ApplyEnv(); err != nil { ... }
//	if err := settings.Validate(); err != nil { ... }
//
// Retry behavior is set per deployment, never per request.
package config
