// Package config provides configuration loading and defaults for cclens.
package config

// DefaultClaudeHome is the default location of the session data directory.
const DefaultClaudeHome = "~/.claude"

// DefaultConfigDir is the default location for cclens configuration.
const DefaultConfigDir = "~/.config/cclens"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "cclens.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// DefaultParser holds the default parsing options.
var DefaultParser = Parser{
	Lenient:     true,
	MaxFileSize: 512 * 1024 * 1024,
}

// DefaultBilling holds the default billing-block settings.
var DefaultBilling = Billing{
	BlockHours: 5,
	BudgetUSD:  0,
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 100,
}

// DefaultWatch holds the default watch-mode settings.
var DefaultWatch = Watch{
	IntervalSeconds: 30,
	DebounceMillis:  500,
	Notify:          false,
}
