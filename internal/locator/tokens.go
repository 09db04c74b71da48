// internal/locator/tokens.go
package locator

import (
	"regexp"
	"sort"
	"strings"
)

// tokenSplitter breaks selector strings on CSS metacharacters and whitespace.
var tokenSplitter = regexp.MustCompile(`[\s._#\-\[\]>:+~=()"']+`)

// ExtractTokens turns candidate selectors plus an optional semantic hint
// into a normalized, deduplicated, sorted token set. Tokens of length one
// carry no signal and are dropped.
func ExtractTokens(selectors []string, semanticHint string) []string {
	set := make(map[string]struct{})

	for _, selector := range selectors {
		for _, token := range tokenSplitter.Split(strings.ToLower(selector), -1) {
			if len(token) > 1 {
				set[token] = struct{}{}
			}
		}
	}
	for _, token := range strings.Fields(strings.ToLower(semanticHint)) {
		if len(token) > 1 {
			set[token] = struct{}{}
		}
	}

	tokens := make([]string, 0, len(set))
	for token := range set {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
