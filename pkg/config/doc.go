// Package config loads tpgen configuration.
//
// Configuration comes from a YAML file with TPGEN_* environment overrides:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("tpgen.yaml")
//
// Values are applied in order, later ones winning: built-in defaults, the
// file, then the environment. A missing file is not an error. Variables
// follow TPGEN_SECTION_FIELD, e.g. TPGEN_SERVER_LISTEN_ADDRESS or
// TPGEN_TELEMETRY_LOGGING_LEVEL.
//
// Validate reports every problem at once as a ValidationError whose
// FieldErrors name the offending dotted field.
package config
