// Package config provides configuration management for the arcboost tweak engine.
package config

// Default configuration values for arcboost.
const (
	// DefaultOutput is the output format used when none is requested.
	DefaultOutput = "pretty"

	// DefaultConfigDir is the default configuration directory path.
	DefaultConfigDir = "~/.config/arcboost"

	// DefaultRetentionDays is the default number of days to retain journal entries.
	DefaultRetentionDays = 30
)

// DefaultComponentLevels contains the per-component log level overrides
// used when the config file sets none.
var DefaultComponentLevels = map[string]string{
	"engine": "info",
	"ops":    "info",
	"state":  "info",
	"tui":    "info",
}
