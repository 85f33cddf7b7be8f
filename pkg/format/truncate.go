package format

const ellipsis = "..."

// Truncate shortens text to at most maxLength runes, ending in an ellipsis
// when something was cut. Limits below three leave no room for the ellipsis
// and return a plain prefix; non-positive limits return "".
func Truncate(text string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	if maxLength < len(ellipsis) {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-len(ellipsis)]) + ellipsis
}
