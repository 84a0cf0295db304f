package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// The sanitizer is a best-effort strip for content written by trusted course
// authors. Everything it does not remove is passed through byte for byte.
var (
	droppedElements = map[string]bool{"script": true, "iframe": true}
	droppedAttrs    = map[string]bool{"style": true, "class": true}
)

func droppedAttr(key string) bool {
	return droppedAttrs[key] || strings.HasPrefix(key, "on")
}

// SanitizeContent removes script and iframe blocks, inline on* event handlers,
// style attributes and class attributes from rich-text chapter content.
func SanitizeContent(content string) string {
	z := html.NewTokenizer(strings.NewReader(content))
	var b strings.Builder
	inDropped := false
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return b.String()
		}
		// Token lowercases the buffer in place.
		raw := string(z.Raw())
		switch tt {
		case html.TextToken:
			if inDropped {
				inDropped = false
				continue
			}
			b.WriteString(raw)
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			inDropped = false
			tok := z.Token()
			if droppedElements[tok.Data] {
				inDropped = tt != html.EndTagToken
				continue
			}
			if tt == html.EndTagToken {
				b.WriteString(raw)
				continue
			}
			kept := make([]html.Attribute, 0, len(tok.Attr))
			for _, a := range tok.Attr {
				if !droppedAttr(a.Key) {
					kept = append(kept, a)
				}
			}
			if len(kept) == len(tok.Attr) {
				b.WriteString(raw)
				continue
			}
			tok.Attr = kept
			b.WriteString(tok.String())
		default:
			b.WriteString(raw)
		}
	}
}
