// Package config holds every tunable of the recovery pipeline in one
// explicit Config struct: external tool paths, per-stage timeouts, the
// polling cadence and the archive size threshold.
//
// Configuration is layered, later sources winning:
//
//  1. Built-in defaults matching the external command contracts
//  2. An optional config file, JSONC or YAML selected by extension
//  3. GUIDSEARCH_* environment variables
//
// Config files support JSONC (JSON with Comments), so this package uses
// github.com/tidwall/jsonc to strip comments before parsing with the
// standard encoding/json library, and gopkg.in/yaml.v3 for YAML files.
// Environment parsing uses github.com/caarlos0/env.
package config
