// Package markup holds the rendering rules shared by every package format:
// the XML and HTML escapers, the chapter content sanitizer and the HTML
// fragments for course content, assignments, discussions and quizzes.
package markup

import "strings"

var (
	xmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	htmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
)

// EscapeXML escapes text for element content and attribute values of generated XML.
func EscapeXML(s string) string { return xmlEscaper.Replace(s) }

// EscapeHTML escapes text for element content and attribute values of generated HTML.
func EscapeHTML(s string) string { return htmlEscaper.Replace(s) }
