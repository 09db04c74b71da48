// internal/query/parser.go
package query

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/lodestar/api/schemas"
)

// Parser turns bare field names into typed candidate selector sets using
// fixed keyword tables. It is purely rule based; no model calls, no I/O.
type Parser struct{}

// NewParser creates a field inference parser.
func NewParser() *Parser {
	return &Parser{}
}

// typeHints pairs a field type with the name substrings that imply it.
// Order matters: the first matching category wins, so a name hitting both
// the table and number tables resolves to table.
var typeHints = []struct {
	fieldType schemas.FieldType
	hints     []string
}{
	{schemas.FieldTable, []string{"table", "rows", "columns"}},
	{schemas.FieldList, []string{"list", "items", "results"}},
	{schemas.FieldNumber, []string{"price", "cost", "amount", "total", "score", "rating", "count", "number"}},
	{schemas.FieldBoolean, []string{"enabled", "available", "active", "checked"}},
	{schemas.FieldLink, []string{"link", "url", "href"}},
	{schemas.FieldButton, []string{"button", "cta", "submit", "buy", "add_to_cart"}},
}

// InferType maps a bare field name to a semantic type. Absence of signal
// falls back to text.
func (p *Parser) InferType(fieldName string) schemas.FieldType {
	name := strings.ToLower(fieldName)
	for _, category := range typeHints {
		for _, hint := range category.hints {
			if strings.Contains(name, hint) {
				return category.fieldType
			}
		}
	}
	return schemas.FieldText
}

// BuildSelectors emits the generic candidates derived from the normalized
// field name, then the type-specific extras, deduplicated in first-seen
// order.
func (p *Parser) BuildSelectors(fieldName string, fieldType schemas.FieldType) []string {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(fieldName)), " ", "_")
	selectors := []string{
		fmt.Sprintf("[data-field='%s']", normalized),
		fmt.Sprintf("[data-testid*='%s']", normalized),
		fmt.Sprintf("[name*='%s']", normalized),
		"#" + normalized,
		"." + normalized,
	}

	switch fieldType {
	case schemas.FieldNumber:
		selectors = append(selectors, "[data-price]", ".price", "[itemprop='price']", ".amount")
	case schemas.FieldButton:
		selectors = append(selectors, "button", "[role='button']", "input[type='submit']")
	case schemas.FieldLink:
		selectors = append(selectors, "a[href]")
	case schemas.FieldTable:
		selectors = append(selectors, "table", "[role='table']")
	case schemas.FieldList:
		selectors = append(selectors, "ul li", "ol li", "[role='listitem']")
	default:
		selectors = append(selectors, "h1", "h2", "h3", ".title", ".name", ".label", "p")
	}

	return uniqueOrdered(selectors)
}

// ParseField resolves one field. Explicit user-supplied selectors are
// prepended before the generated ones so user intent always outranks the
// heuristics. Link fields default their attribute to href.
func (p *Parser) ParseField(fieldName string, spec *schemas.RawFieldSpec) schemas.FieldSpec {
	if spec == nil {
		spec = &schemas.RawFieldSpec{}
	}

	fieldType := schemas.FieldType(strings.ToLower(spec.Type))
	if fieldType == "" {
		fieldType = p.InferType(fieldName)
	}

	var selectors []string
	for _, sel := range spec.Selectors {
		if sel != "" {
			selectors = append(selectors, sel)
		}
	}
	if len(selectors) == 0 && spec.Selector != "" {
		selectors = append(selectors, spec.Selector)
	}
	selectors = append(selectors, p.BuildSelectors(fieldName, fieldType)...)

	attribute := spec.Attribute
	if fieldType == schemas.FieldLink && attribute == "" {
		attribute = "href"
	}

	textHint := spec.TextHint
	if textHint == "" {
		textHint = strings.ReplaceAll(fieldName, "_", " ")
	}

	return schemas.FieldSpec{
		Name:      fieldName,
		Type:      fieldType,
		Selectors: uniqueOrdered(selectors),
		Attribute: attribute,
		TextHint:  textHint,
	}
}

// ParseQuery resolves every field in a query object.
func (p *Parser) ParseQuery(q schemas.Query) map[string]schemas.FieldSpec {
	parsed := make(map[string]schemas.FieldSpec, len(q.Fields))
	for name, raw := range q.Fields {
		spec := raw
		parsed[name] = p.ParseField(name, &spec)
	}
	return parsed
}

// uniqueOrdered deduplicates while preserving first-seen order.
func uniqueOrdered(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
