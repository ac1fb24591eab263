package keywordgen

import (
	"regexp"
	"strings"
)

var (
	htmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	bracketRe     = regexp.MustCompile(`[\[\]\(\)\{\}]`)
	punctuationRe = regexp.MustCompile(`[,·/+|~!@#$%^&*=]`)
)

// tokenize splits a product name into whitespace-delimited tokens after
// stripping HTML, bracket characters, and most punctuation. Capacity,
// quantity, and model-code tokens are already single whitespace-delimited
// units by construction, so no further splitting is needed once the
// classifier recognizes them.
func tokenize(name string) []string {
	name = htmlTagRe.ReplaceAllString(name, "")
	name = bracketRe.ReplaceAllString(name, " ")
	name = punctuationRe.ReplaceAllString(name, " ")

	fields := strings.Fields(name)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
