// internal/browser/element.go
package browser

import (
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/lodestar/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// pageElement is a selector-addressed handle into the live page. Reads
// re-resolve the selector, so a handle stays usable across small DOM
// mutations as long as the selector still matches.
type pageElement struct {
	session  *Session
	selector string
}

var _ schemas.Element = (*pageElement)(nil)

func (e *pageElement) Selector() string { return e.selector }

// Text reads the rendered text of the element, whitespace-normalized.
func (e *pageElement) Text(ctx context.Context) (string, error) {
	var raw string
	if err := e.session.evaluate(ctx, fmt.Sprintf(jsReadText, jsArg(e.selector)), &raw); err != nil {
		return "", fmt.Errorf("failed to read text of %s: %w", e.selector, err)
	}
	return strings.Join(strings.Fields(raw), " "), nil
}

// Attribute reads one attribute, reporting whether it is present at all.
func (e *pageElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	var result struct {
		Present bool   `json:"present"`
		Value   string `json:"value"`
	}
	script := fmt.Sprintf(jsReadAttribute, jsArg(e.selector), jsArg(name))
	if err := e.session.evaluate(ctx, script, &result); err != nil {
		return "", false, fmt.Errorf("failed to read attribute %s of %s: %w", name, e.selector, err)
	}
	return result.Value, result.Present, nil
}

// jsArg renders a Go value as a JS literal. JSON is a subset of JS
// expression syntax, so this is also the escaping layer for selectors
// interpolated into snippets.
func jsArg(v interface{}) string {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(encoded)
}
