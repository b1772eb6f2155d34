package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level cclens configuration.
type Config struct {
	ClaudeHome string  `mapstructure:"claude_home"`
	Parser     Parser  `mapstructure:"parser"`
	Billing    Billing `mapstructure:"billing"`
	Output     Output  `mapstructure:"output"`
	Watch      Watch   `mapstructure:"watch"`

	// Pricing overrides per model family as [input, output, cache_read,
	// cache_write] dollars per million tokens.
	Pricing map[string][4]float64 `mapstructure:"pricing"`
}

// Parser defines session file parsing options.
type Parser struct {
	Lenient     bool  `mapstructure:"lenient"`
	MaxFileSize int64 `mapstructure:"max_file_size"`
}

// Billing defines billing-block settings.
type Billing struct {
	BlockHours int     `mapstructure:"block_hours"`
	BudgetUSD  float64 `mapstructure:"budget_usd"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// Watch defines watch-mode settings.
type Watch struct {
	IntervalSeconds int  `mapstructure:"interval_seconds"`
	DebounceMillis  int  `mapstructure:"debounce_ms"`
	Notify          bool `mapstructure:"notify"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("claude_home", DefaultClaudeHome)
	v.SetDefault("parser.lenient", DefaultParser.Lenient)
	v.SetDefault("parser.max_file_size", DefaultParser.MaxFileSize)
	v.SetDefault("billing.block_hours", DefaultBilling.BlockHours)
	v.SetDefault("billing.budget_usd", DefaultBilling.BudgetUSD)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)
	v.SetDefault("watch.interval_seconds", DefaultWatch.IntervalSeconds)
	v.SetDefault("watch.debounce_ms", DefaultWatch.DebounceMillis)
	v.SetDefault("watch.notify", DefaultWatch.Notify)

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		configDir := expandPath(DefaultConfigDir)
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Missing config file is not an error; everything has a default.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.ClaudeHome = expandPath(cfg.ClaudeHome)

	return &cfg, nil
}

// DBPath returns the full path to the SQLite database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
