package components

import (
	"fmt"
	"strings"
)

// Bar draws fraction (clamped to [0, 1]) as an unstyled bar of the given
// width, brackets included. Use it inside table cells.
func Bar(fraction float64, width int) string {
	fraction = min(max(fraction, 0), 1)
	inner := max(width-2, 4)

	filled := int(fraction * float64(inner))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", inner-filled) + "]"
}

// ProgressBar renders a Bar in the value style, or the focus style once full.
func ProgressBar(s Styles, fraction float64, width int) string {
	if fraction >= 1 {
		return s.Focus.Render(Bar(fraction, width))
	}
	return s.Value.Render(Bar(fraction, width))
}

// Percent formats a fraction as a whole percentage.
func Percent(fraction float64) string {
	return fmt.Sprintf("%3.0f%%", min(max(fraction, 0), 1)*100)
}
