package schemas

// FieldType classifies the kind of value a logical field is expected to hold.
type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldLink    FieldType = "link"
	FieldButton  FieldType = "button"
	FieldTable   FieldType = "table"
	FieldList    FieldType = "list"
)

// Strategy identifies which resolution strategy produced a location result.
type Strategy string

const (
	StrategyCache    Strategy = "cache"
	StrategyDirect   Strategy = "direct"
	StrategyText     Strategy = "text"
	StrategySemantic Strategy = "semantic"
)

// FieldSpec is the fully resolved specification for one logical field.
// It is built once per extraction query and immutable afterward.
type FieldSpec struct {
	// Name is the logical field name, unique within a query.
	Name string `json:"name"`
	// Type is the declared or inferred field type.
	Type FieldType `json:"type"`
	// Selectors is the ordered candidate list, most trusted first.
	// Deduplicated, insertion order preserved.
	Selectors []string `json:"selectors"`
	// Attribute, when set, is read instead of the text content.
	Attribute string `json:"attribute,omitempty"`
	// TextHint is free text used for fuzzy text matching.
	TextHint string `json:"text_hint,omitempty"`
}

// RawFieldSpec is the user-facing shape of a field in a query file.
// Everything is optional; absent signal falls back to inference.
type RawFieldSpec struct {
	Type      string   `json:"type,omitempty" yaml:"type,omitempty"`
	Selector  string   `json:"selector,omitempty" yaml:"selector,omitempty"`
	Selectors []string `json:"selectors,omitempty" yaml:"selectors,omitempty"`
	Attribute string   `json:"attribute,omitempty" yaml:"attribute,omitempty"`
	TextHint  string   `json:"text_hint,omitempty" yaml:"text_hint,omitempty"`
}

// Query is a named set of fields to extract from one document.
type Query struct {
	Fields map[string]RawFieldSpec `json:"fields" yaml:"fields"`
}

// CandidateRecord is a flat snapshot of one tree node at a point in time.
// Produced fresh on every semantic pass, never persisted. The JSON tags
// match the payload returned by the in-page snapshot script.
type CandidateRecord struct {
	Selector string `json:"selector"`
	Tag      string `json:"tag"`
	ID       string `json:"id"`
	Class    string `json:"class_name"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Text     string `json:"text"`
	Visible  bool   `json:"visible"`
}

// LocationResult is the outcome of a successful locate call. The caller
// owns the element handle; the locator does not retain it.
type LocationResult struct {
	Element  Element
	Selector string
	Strategy Strategy
	// Healed is true iff the winning selector was not a verbatim candidate.
	Healed bool
	// Score is 0 for cache/direct and the heuristic value for text/semantic.
	Score float64
}

// ContentBlock is one content-bearing node from a page snapshot, before
// relevance scoring.
type ContentBlock struct {
	Selector string `json:"selector"`
	Text     string `json:"text"`
	Tag      string `json:"tag"`
}

// RelevanceItem is a scored content block. Ephemeral, produced and
// consumed within one filter call.
type RelevanceItem struct {
	Selector string  `json:"selector"`
	Text     string  `json:"text"`
	Tag      string  `json:"tag"`
	Score    float64 `json:"relevance_score"`
}

// CacheEntry is one persisted selector memory value.
type CacheEntry struct {
	Selector string `json:"selector"`
	// UpdatedAt is an ISO-8601 UTC timestamp.
	UpdatedAt string `json:"updated_at"`
}

// FieldValue is the extracted value for one logical field.
type FieldValue struct {
	Name     string      `json:"name"`
	Value    interface{} `json:"value"`
	Selector string      `json:"selector,omitempty"`
	Strategy Strategy    `json:"strategy,omitempty"`
	Healed   bool        `json:"healed"`
}

// ExtractionResult is the per-document output of an extraction run.
type ExtractionResult struct {
	URL    string                `json:"url"`
	Fields map[string]FieldValue `json:"fields"`
}
