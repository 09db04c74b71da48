// internal/locator/tokens_test.go
package locator

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTokensFromSelectors(t *testing.T) {
	tokens := ExtractTokens([]string{"#product-price", ".price.amount", "[data-testid='price']"}, "")

	assert.Equal(t, []string{"amount", "data", "price", "product", "testid"}, tokens)
}

func TestExtractTokensHint(t *testing.T) {
	tokens := ExtractTokens(nil, "Total Order PRICE")

	assert.Equal(t, []string{"order", "price", "total"}, tokens)
}

func TestExtractTokensDropsShortTokens(t *testing.T) {
	tokens := ExtractTokens([]string{"a > b#c .x"}, "z q ok")

	assert.Equal(t, []string{"ok"}, tokens)
}

func TestExtractTokensDedup(t *testing.T) {
	tokens := ExtractTokens([]string{".price", "#price", "[name='price']"}, "price")

	assert.Equal(t, []string{"name", "price"}, tokens)
}

func TestExtractTokensEmpty(t *testing.T) {
	assert.Empty(t, ExtractTokens(nil, ""))
	assert.Empty(t, ExtractTokens([]string{"", "#", "..", "> >"}, " "))
}

func FuzzExtractTokens(f *testing.F) {
	f.Add("#product-price .amount", "total price")
	f.Add("div[data-field='x'] > span:nth-of-type(2)", "")
	f.Add("", "UPPER lower MiXeD")
	f.Add(`"quoted" + ~weird~ (parens)`, "a bb ccc")

	f.Fuzz(func(t *testing.T, selector, hint string) {
		tokens := ExtractTokens([]string{selector}, hint)

		assert.True(t, sort.StringsAreSorted(tokens))

		seen := map[string]struct{}{}
		for _, token := range tokens {
			if len(token) <= 1 {
				t.Fatalf("token %q too short", token)
			}
			if token != strings.ToLower(token) {
				t.Fatalf("token %q not lowercased", token)
			}
			if _, dup := seen[token]; dup {
				t.Fatalf("duplicate token %q", token)
			}
			seen[token] = struct{}{}
		}
	})
}
