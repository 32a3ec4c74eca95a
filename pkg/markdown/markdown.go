// Package markdown implements the widget's markdown-lite formatter: a
// fixed set of textual substitutions applied in a fixed order. It is not
// a markdown parser and deliberately recognizes nothing beyond bold,
// italic, inline code, bullets, and line breaks.
//
// Literal text is escaped before any markup is injected, so the output
// is safe to insert as markup even when the source text came from a
// remote endpoint. Escape is the sanitization boundary; Format is the
// only producer of markup in the system.
package markdown

import (
	"html"
	"regexp"
)

// Substitution order is contractual: bold must run before italic because
// "*" is a substring of "**", and bullets must run before the generic
// newline replacement so the bullet's own break is not doubled.
var (
	boldRe   = regexp.MustCompile("\\*\\*(.*?)\\*\\*")
	italicRe = regexp.MustCompile("\\*(.*?)\\*")
	codeRe   = regexp.MustCompile("`(.*?)`")
	bulletRe = regexp.MustCompile("(?:^|\n)[ \t]*- ")
	newline  = regexp.MustCompile("\n")
)

// Escape neutralizes HTML-significant characters in s. It is exposed as
// the named sanitization seam: callers that bypass Format must escape
// remote text themselves before treating it as markup.
func Escape(s string) string {
	return html.EscapeString(s)
}

// Format renders s as markup. The input is escaped first, then the
// markdown-lite substitutions are applied in order.
func Format(s string) string {
	out := Escape(s)
	out = boldRe.ReplaceAllString(out, "<strong>$1</strong>")
	out = italicRe.ReplaceAllString(out, "<em>$1</em>")
	out = codeRe.ReplaceAllString(out, "<code>$1</code>")
	out = bulletRe.ReplaceAllString(out, "<br>&bull; ")
	out = newline.ReplaceAllString(out, "<br>")
	return out
}
