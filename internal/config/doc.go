// Package config loads glossa's settings.
//
// Settings are read from layers, later layers overriding earlier ones:
//
//	defaults < config file (TOML or YAML) < .env file < GLOSSA_* environment < overrides
//
// Overrides are set by the caller, typically from command line flags.
// The merged result is exposed as nested maps addressed by dotted paths
// ("storage.namespace") and through typed section accessors:
//
//	cfg := config.New(config.WithFile("glossa.toml"))
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//	store := cfg.Storage()
//
// # Sections
//
//   - storage: backend (sqlite, file, memory), path, namespace
//   - logging: level, format, file, max_size_mb, max_backups, max_age_days
//   - annotation: id_prefix, highlight_class, reconcile, initial_content
//   - interaction: hover_grace, preview_offset
//   - hooks: enabled, script, watch
//
// Load validates the merged settings; Validate can be called again after Set.
package config
