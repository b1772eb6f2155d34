package output

import (
	"fmt"
	"strings"
	"time"
)

// RateBar renders a visual bar for a 0-100 percentage, colored by how
// healthy the value is. Used for parse success rates and cache hit rates.
// Example: "████████░░ 80%"
func RateBar(percent float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := int((percent / 100.0) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	var style func(string) string
	switch {
	case percent >= 90:
		style = func(s string) string { return StyleSuccess.Render(s) }
	case percent >= 50:
		style = func(s string) string { return StyleWarning.Render(s) }
	default:
		style = func(s string) string { return StyleError.Render(s) }
	}

	return fmt.Sprintf("%s %s", style(bar), StyleMuted.Render(fmt.Sprintf("%.0f%%", percent)))
}

// BlockBar renders how far a billing block has progressed, with the time
// remaining. An exhausted block renders fully filled.
func BlockBar(elapsed, window time.Duration, width int) string {
	if width <= 0 {
		width = 20
	}
	frac := 0.0
	if window > 0 {
		frac = float64(elapsed) / float64(window)
	}
	if frac > 1 {
		frac = 1
	}
	if frac < 0 {
		frac = 0
	}

	filled := int(frac * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	remaining := window - elapsed
	if remaining < 0 {
		remaining = 0
	}
	label := fmt.Sprintf("%s left", remaining.Round(time.Minute))
	if remaining == 0 {
		label = "over"
	}

	return fmt.Sprintf("%s %s", StyleWarning.Render(bar), StyleMuted.Render(label))
}

// TrendArrow returns a styled trend indicator for a delta value.
// Positive delta shows an up arrow, negative shows down, zero shows a dash.
// The higherIsBetter parameter decides which direction renders green.
func TrendArrow(delta float64, higherIsBetter bool) string {
	if delta == 0 {
		return StyleMuted.Render("─")
	}

	isPositive := delta > 0
	isImproved := (isPositive && higherIsBetter) || (!isPositive && !higherIsBetter)

	var arrow string
	if isPositive {
		arrow = fmt.Sprintf("▲ +%.2f", delta)
	} else {
		arrow = fmt.Sprintf("▼ %.2f", delta)
	}

	if isImproved {
		return StyleSuccess.Render(arrow)
	}
	return StyleError.Render(arrow)
}
