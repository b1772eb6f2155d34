package app

import (
	"fmt"

	"github.com/quarryhill/cclens/internal/analyzer"
	"github.com/quarryhill/cclens/internal/billing"
	"github.com/quarryhill/cclens/internal/config"
	"github.com/quarryhill/cclens/internal/discover"
	"github.com/quarryhill/cclens/internal/output"
	"github.com/quarryhill/cclens/internal/parser"
	"github.com/quarryhill/cclens/internal/schema"
)

// loadConfig loads configuration and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagHome != "" {
		cfg.ClaudeHome = flagHome
	}
	if flagStrict {
		cfg.Parser.Lenient = false
	}
	if !cfg.Output.Color && !output.IsNoColor() {
		output.SetNoColor(true)
	}
	return cfg, nil
}

// parserOptions converts config into parser options.
func parserOptions(cfg *config.Config) parser.Options {
	return parser.Options{
		Lenient:  cfg.Parser.Lenient,
		MaxBytes: cfg.Parser.MaxFileSize,
	}
}

// billingOptions converts config into billing options, applying any
// per-family pricing overrides.
func billingOptions(cfg *config.Config) billing.Options {
	opts := billing.Options{WindowHours: cfg.Billing.BlockHours, Price: billing.DefaultPrice}
	if len(cfg.Pricing) > 0 {
		rates := make(map[string]billing.ModelPricing, len(cfg.Pricing))
		for family, r := range cfg.Pricing {
			rates[family] = billing.ModelPricing{
				InputPerMTok:      r[0],
				OutputPerMTok:     r[1],
				CacheReadPerMTok:  r[2],
				CacheWritePerMTok: r[3],
			}
		}
		opts.Price = func(model string, usage schema.Usage) float64 {
			if r, ok := rates[billing.NormalizeModelName(model)]; ok {
				return r.Cost(usage)
			}
			return billing.DefaultPrice(model, usage)
		}
	}
	return opts
}

// loadSummaries discovers, parses, and summarizes every session. Sessions
// that fail to load are skipped with a warning on verbose output.
func loadSummaries(cfg *config.Config) ([]*analyzer.SessionSummary, []discover.LoadedSession, error) {
	files, err := discover.ListSessions(cfg.ClaudeHome)
	if err != nil {
		return nil, nil, fmt.Errorf("listing sessions: %w", err)
	}
	loaded, err := discover.LoadSessions(files, parserOptions(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("loading sessions: %w", err)
	}

	var summaries []*analyzer.SessionSummary
	for _, ls := range loaded {
		if ls.Err != nil {
			if flagVerbose {
				fmt.Printf("skipping %s: %v\n", ls.File.SessionID, ls.Err)
			}
			continue
		}
		sum := analyzer.Summarize(ls.File.SessionID, ls.Records)
		sum.ProjectHash = ls.File.ProjectHash
		summaries = append(summaries, sum)
	}
	return summaries, loaded, nil
}

// allRecords flattens loaded sessions into one record slice.
func allRecords(loaded []discover.LoadedSession) []*schema.Record {
	var records []*schema.Record
	for _, ls := range loaded {
		if ls.Err == nil {
			records = append(records, ls.Records...)
		}
	}
	return records
}
