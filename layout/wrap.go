package layout

import "strings"

// Measurer reports the advance width of text in points. builder.Canvas and
// fonts.TrueType both satisfy it.
type Measurer interface {
	MeasureText(text string, fontSize float64, fontName string) float64
}

// Wrap breaks text into lines no wider than maxWidth, splitting only on
// whitespace. Words are joined by a single space. A word wider than
// maxWidth is placed on a line of its own. Empty or whitespace-only text
// yields a single empty line.
func Wrap(text string, maxWidth float64, m Measurer, font string, size float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	lines := make([]string, 0, 4)
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if m.MeasureText(candidate, size, font) <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

// WrapLines wraps each line of text separately, keeping explicit line
// breaks. Blank source lines are kept as empty lines.
func WrapLines(text string, maxWidth float64, m Measurer, font string, size float64) []string {
	var out []string
	for _, line := range SplitLines(text) {
		out = append(out, Wrap(line, maxWidth, m, font, size)...)
	}
	return out
}

// SplitLines splits text on line breaks without wrapping. It always returns
// at least one line.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{""}
	}
	return strings.Split(text, "\n")
}
