// internal/extract/extractor.go
package extract

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/xkilldash9x/lodestar/api/schemas"
	"github.com/xkilldash9x/lodestar/internal/config"
	"github.com/xkilldash9x/lodestar/internal/locator"
	"github.com/xkilldash9x/lodestar/internal/query"
)

// Extractor resolves every field of a query against one document and
// coerces the raw reads into typed values. An unresolved field yields a
// nil value; it never aborts the rest of the query.
type Extractor struct {
	parser  *query.Parser
	locator *locator.Locator
	cfg     config.ExtractionConfig
	logger  *zap.Logger
}

// New creates an extractor on top of a locator.
func New(loc *locator.Locator, cfg config.ExtractionConfig, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxTextLength < 500 {
		cfg.MaxTextLength = 500
	}
	return &Extractor{
		parser:  query.NewParser(),
		locator: loc,
		cfg:     cfg,
		logger:  logger.Named("extract"),
	}
}

// ExtractQuery runs the full query against the document. Fields are
// processed in name order so output and selector memory writes are
// deterministic.
func (e *Extractor) ExtractQuery(ctx context.Context, doc schemas.DocumentQuerier, q schemas.Query) (*schemas.ExtractionResult, error) {
	parsed := e.parser.ParseQuery(q)

	names := make([]string, 0, len(parsed))
	for name := range parsed {
		names = append(names, name)
	}
	sort.Strings(names)

	identity, err := doc.DocumentIdentity(ctx)
	if err != nil {
		identity = ""
	}

	result := &schemas.ExtractionResult{
		URL:    identity,
		Fields: make(map[string]schemas.FieldValue, len(parsed)),
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Fields[name] = e.extractField(ctx, doc, parsed[name])
	}
	return result, nil
}

// ExtractField resolves and reads a single parsed field.
func (e *Extractor) ExtractField(ctx context.Context, doc schemas.DocumentQuerier, spec schemas.FieldSpec) schemas.FieldValue {
	return e.extractField(ctx, doc, spec)
}

func (e *Extractor) extractField(ctx context.Context, doc schemas.DocumentQuerier, spec schemas.FieldSpec) schemas.FieldValue {
	located, err := e.locator.Locate(ctx, doc, spec.Selectors, spec.Name, spec.TextHint, spec.Name)
	if err != nil || located == nil {
		e.logger.Debug("Field did not resolve.", zap.String("field", spec.Name))
		return schemas.FieldValue{Name: spec.Name, Value: nil}
	}

	raw, ok := e.readRaw(ctx, located.Element, spec.Attribute)
	if !ok {
		return schemas.FieldValue{
			Name:     spec.Name,
			Value:    nil,
			Selector: located.Selector,
			Strategy: located.Strategy,
			Healed:   located.Healed,
		}
	}

	return schemas.FieldValue{
		Name:     spec.Name,
		Value:    e.castValue(raw, spec.Type),
		Selector: located.Selector,
		Strategy: located.Strategy,
		Healed:   located.Healed,
	}
}

func (e *Extractor) readRaw(ctx context.Context, el schemas.Element, attribute string) (string, bool) {
	if attribute != "" {
		value, present, err := el.Attribute(ctx, attribute)
		if err != nil || !present {
			return "", false
		}
		return value, true
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", false
	}
	return text, true
}

func (e *Extractor) castValue(raw string, fieldType schemas.FieldType) interface{} {
	text := NormalizeSpace(raw)

	switch fieldType {
	case schemas.FieldNumber:
		num, ok := ParseNumber(text)
		if !ok {
			return nil
		}
		return num
	case schemas.FieldBoolean:
		return ParseBool(text)
	default:
		return Truncate(text, e.cfg.MaxTextLength)
	}
}
