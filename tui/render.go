package tui

import (
	"html"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	strongRe = regexp.MustCompile(`<strong>(.*?)</strong>`)
	emRe     = regexp.MustCompile(`<em>(.*?)</em>`)
	codeRe   = regexp.MustCompile(`<code>(.*?)</code>`)

	strongStyle = lipgloss.NewStyle().Bold(true)
	emStyle     = lipgloss.NewStyle().Italic(true)
	codeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

// RenderMarkup converts formatted reply markup into styled terminal text.
// Entities are unescaped exactly once, at the end, so escaped markup typed
// by the model renders as text rather than styling.
func RenderMarkup(s string) string {
	s = replaceTagged(strongRe, s, strongStyle)
	s = replaceTagged(emRe, s, emStyle)
	s = replaceTagged(codeRe, s, codeStyle)
	s = strings.ReplaceAll(s, "<br>", "\n")
	s = strings.ReplaceAll(s, "&bull;", "•")
	return html.UnescapeString(s)
}

func replaceTagged(re *regexp.Regexp, s string, style lipgloss.Style) string {
	return re.ReplaceAllStringFunc(s, func(match string) string {
		return style.Render(re.FindStringSubmatch(match)[1])
	})
}
