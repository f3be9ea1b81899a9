// Package config loads and validates the application configuration.
//
// # Overview
//
// The pipeline has a fixed shape, so the configuration does too: one typed
// section per stage (service, nats, ingest, processor, rules, gateway,
// admin) instead of a free-form component map. Every knob the stages read
// is declared here, defaulted here, and validated here; the rest of the
// codebase receives a *Config that is already known good.
//
// # Loading
//
// Loader merges configuration from three places, lowest precedence first:
//
//	1. Default() - compiled-in defaults, runnable against a local NATS server
//	2. File layers - JSON or YAML, merged key-by-key in AddLayer order
//	3. Environment - CAPSTREAM_* variables for deploy-time overrides
//
// File layers merge recursively: a later layer only has to name the keys it
// changes. YAML files decode through the same JSON field tags as JSON files,
// so both use the camelCase key names (listenAddr, heartbeatInterval).
// Durations accept Go duration strings ("30s", "1m30s") or raw nanosecond
// numbers.
//
//	cfg, err := config.NewLoader().
//		AddLayer("/etc/capstream/config.yaml").
//		AddLayer("config.local.yaml").
//		Load()
//
// Missing layer files are skipped, which makes optional local overrides
// cheap. Load validates the merged result; an invalid config never escapes
// the loader.
//
// # Rules Preload
//
// Alert rules can be seeded at startup either inline (rules.rules) or from
// a separate JSON/YAML document named by rules.file and read with
// LoadRulesFile. Rules are validated at load time so a misspelled operator
// fails the boot, not the first matching reading.
//
// # File Safety
//
// All file reads go through validation: size capped at 10MB, JSON nesting
// depth capped at 100, relative paths confined to the working directory,
// and only .json, .yaml, and .yml extensions accepted.
package config
