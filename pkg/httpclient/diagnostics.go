package httpclient

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxSnippetBytes = 512

// describePayload condenses an error payload for log output. HTML error pages
// served by proxies are reduced to their <title>.
func describePayload(payload any) any {
	text, ok := payload.(string)
	if !ok {
		return payload
	}
	text = strings.TrimSpace(text)
	if looksLikeHTML(text) {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
				return "html: " + title
			}
		}
	}
	if len(text) > maxSnippetBytes {
		return text[:maxSnippetBytes] + "..."
	}
	return text
}

func looksLikeHTML(text string) bool {
	lower := strings.ToLower(text)
	return strings.HasPrefix(lower, "<!doctype html") || strings.HasPrefix(lower, "<html")
}
