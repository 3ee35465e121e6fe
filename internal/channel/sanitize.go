package channel

import (
	"regexp"
	"strings"
)

// Internal markers that must never reach a customer: catalog availability
// sentinels, prompt-side annotations, and any control tag the interpreter
// left behind.
var internalMarkerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)\(INTERNO:.*?\)`),
	regexp.MustCompile(`(?is)\(DESCRIPCIÓN REAL:.*?\)`),
	regexp.MustCompile(`(?i)\[DISPONIBLE\]`),
	regexp.MustCompile(`(?i)\[AGOTADO\]`),
	regexp.MustCompile(`(?is)\[ORDER_CONFIRMED:.*?\]`),
	regexp.MustCompile(`(?is)\[UPDATE_CART:.*?\]`),
	regexp.MustCompile(`(?is)\[PRODUCT:.*?\]`),
	regexp.MustCompile(`(?i)\[SHOW_SUMMARY\]`),
	regexp.MustCompile(`(?is)\[IMAGE_URL:.*?\]`),
}

func stripInternalMarkers(text string) string {
	for _, pattern := range internalMarkerPatterns {
		text = pattern.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// balanceMarkdown removes asterisks or underscores when they appear an odd
// number of times, which Telegram's Markdown parser rejects outright.
func balanceMarkdown(text string) string {
	if strings.Count(text, "*")%2 != 0 {
		text = strings.ReplaceAll(text, "*", "")
	}
	if strings.Count(text, "_")%2 != 0 {
		text = strings.ReplaceAll(text, "_", " ")
	}
	return text
}
