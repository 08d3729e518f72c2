// Package config loads runtime configuration for the cryfox vault.
//
// Sources & precedence
//
//  1. Built-in defaults (see Defaults).
//  2. Optional config file (JSON or YAML): the --config flag, or
//     config.{json,yaml} in the config directory.
//  3. CRYFOX_* environment variables, e.g. CRYFOX_LOG_LEVEL=debug.
//  4. Command-line flags, which override earlier values.
//
// # File schema
//
// Durations accept strings like "30s":
//
//	{
//	  "config_dir": "/home/me/.config/cryfox",
//	  "auth_file": "auth.json",
//	  "database_path": "passwords.db",
//	  "log_level": "info",
//	  "log_format": "text",
//	  "clipboard_clear_after": "30s",
//	  "identity_timeout": "15s",
//	  "uniform_timing": false
//	}
//
// Relative auth_file and database_path values are resolved against
// config_dir.
//
// # Identity service settings
//
// The hosted identity service is configured separately through a plain
// KEY=VALUE file named .supabase.config, looked up in the working directory
// and then in $HOME/.config/cryfox. See ParseKeyValue and
// LoadIdentitySettings.
package config
