package billing

import (
	"strings"

	"github.com/quarryhill/cclens/internal/schema"
)

// ModelPricing holds per-million-token rates in USD.
type ModelPricing struct {
	InputPerMTok      float64
	OutputPerMTok     float64
	CacheReadPerMTok  float64
	CacheWritePerMTok float64
}

// Cost prices a usage sample at these rates.
func (p ModelPricing) Cost(usage schema.Usage) float64 {
	return float64(usage.InputTokens)/1e6*p.InputPerMTok +
		float64(usage.OutputTokens)/1e6*p.OutputPerMTok +
		float64(usage.CacheReadInputTokens)/1e6*p.CacheReadPerMTok +
		float64(usage.CacheCreationInputTokens)/1e6*p.CacheWritePerMTok
}

// defaultRates by model family. Unknown families price at the sonnet rate,
// the middle of the range.
var defaultRates = map[string]ModelPricing{
	"opus":   {InputPerMTok: 15, OutputPerMTok: 75, CacheReadPerMTok: 1.5, CacheWritePerMTok: 18.75},
	"sonnet": {InputPerMTok: 3, OutputPerMTok: 15, CacheReadPerMTok: 0.3, CacheWritePerMTok: 3.75},
	"haiku":  {InputPerMTok: 0.8, OutputPerMTok: 4, CacheReadPerMTok: 0.08, CacheWritePerMTok: 1},
}

// NormalizeModelName reduces a full model identifier such as
// "claude-opus-4-6" to its family name.
func NormalizeModelName(model string) string {
	lower := strings.ToLower(model)
	for family := range defaultRates {
		if strings.Contains(lower, family) {
			return family
		}
	}
	return "sonnet"
}

// Rate returns the pricing for a model via family matching.
func Rate(model string) ModelPricing {
	return defaultRates[NormalizeModelName(model)]
}

// DefaultPrice is a PriceFunc using the built-in table.
func DefaultPrice(model string, usage schema.Usage) float64 {
	return Rate(model).Cost(usage)
}
