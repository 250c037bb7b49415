package common

// Truncate shortens s to at most width runes, appending an ellipsis when
// anything was cut. Titles come from model output and can be arbitrarily long.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
