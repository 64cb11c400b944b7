package sigil

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Preview renders a one-line terminal approximation of a sigil: a band
// of runes picked from the digest, tinted with the same color the SVG
// uses for its inner circle. Deterministic for a given digest.
func Preview(digest string) string {
	if checkDigest(digest) != nil {
		return ""
	}

	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#" + digest[6:12]))

	var runes []string
	for i := 0; i+2 <= 32; i += 2 {
		runes = append(runes, AllRunes[hexPair(digest, i)%len(AllRunes)])
	}
	center := AllRunes[hexPair(digest, 0)%len(AllRunes)]

	band := strings.Join(runes[:8], " ") + "  " + center + "  " + strings.Join(runes[8:], " ")
	return style.Render(band)
}
