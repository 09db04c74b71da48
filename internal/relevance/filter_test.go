// internal/relevance/filter_test.go
package relevance

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lodestar/api/schemas"
	"github.com/xkilldash9x/lodestar/internal/config"
	"github.com/xkilldash9x/lodestar/internal/staticdom"
)

const articlePage = `<!DOCTYPE html>
<html>
<body>
  <nav>Site navigation links that should never be treated as real content.</nav>
  <main>
    <p id="lead">The new widget lineup ships with improved pricing across every tier of the catalog, and early reviews praise the build quality.</p>
    <p id="aside-note">Short note here.</p>
    <p id="filler">Completely unrelated filler paragraph about the weather and other small talk topics nobody searched for today.</p>
  </main>
  <footer>Copyright boilerplate and legal text that belongs in the footer.</footer>
</body>
</html>`

func newTestFilter() *Filter {
	return New(config.RelevanceConfig{MaxItems: 20}, zap.NewNop())
}

func TestScoreTextLengthComponent(t *testing.T) {
	assert.Zero(t, ScoreText("", nil))

	// 250 characters of multi-word text: length component only.
	text := strings.Repeat("many words here go on ", 11) + "and more"
	text = text[:250]
	assert.InDelta(t, 0.5, ScoreText(text, nil), 1e-9)
}

func TestScoreTextLengthCapped(t *testing.T) {
	long := strings.Repeat("word and another word here ", 80)
	assert.InDelta(t, 1.2, ScoreText(long, nil), 1e-9)
}

func TestScoreTextKeywordBonus(t *testing.T) {
	text := "the widget pricing table lists every tier we currently sell online"

	base := ScoreText(text, nil)
	one := ScoreText(text, []string{"pricing"})
	two := ScoreText(text, []string{"pricing", "widget"})
	miss := ScoreText(text, []string{"pricing", "spaceship"})

	assert.InDelta(t, base+0.6, one, 1e-9)
	assert.InDelta(t, base+1.2, two, 1e-9)
	assert.InDelta(t, one, miss, 1e-9)
}

func TestScoreTextKeywordCaseInsensitive(t *testing.T) {
	// Block text is lowercased before matching; keywords arrive
	// pre-normalized from FilterBlocks.
	text := "Widget PRICING details available on request from our sales team"
	assert.Greater(t, ScoreText(text, []string{"pricing"}), ScoreText(text, nil))
}

func TestScoreTextShortFragmentPenalty(t *testing.T) {
	short := "Add to cart"
	five := "one two three four five"

	assert.InDelta(t, float64(len(short))/500.0-0.3, ScoreText(short, nil), 1e-9)
	assert.InDelta(t, float64(len(five))/500.0, ScoreText(five, nil), 1e-9)
}

func TestScoreTextNeverNegative(t *testing.T) {
	assert.Zero(t, ScoreText("hi", nil))
	assert.GreaterOrEqual(t, ScoreText("x", []string{"zz"}), 0.0)
}

func TestFilterBlocksOrderingAndThreshold(t *testing.T) {
	doc, err := staticdom.ParseString(articlePage, "https://news.test/widgets")
	require.NoError(t, err)

	items, err := newTestFilter().FilterBlocks(context.Background(), doc, []string{"widget", "pricing"}, 0.3, 20)
	require.NoError(t, err)
	require.NotEmpty(t, items)

	// Descending by score, keyword-bearing lead paragraph first.
	for i := 1; i < len(items); i++ {
		assert.GreaterOrEqual(t, items[i-1].Score, items[i].Score)
	}
	assert.Contains(t, items[0].Text, "widget lineup")

	for _, item := range items {
		assert.GreaterOrEqual(t, item.Score, 0.3)
		assert.NotContains(t, item.Text, "Site navigation")
		assert.NotContains(t, item.Text, "Copyright boilerplate")
	}
}

func TestFilterBlocksCap(t *testing.T) {
	doc, err := staticdom.ParseString(articlePage, "https://news.test/widgets")
	require.NoError(t, err)

	items, err := newTestFilter().FilterBlocks(context.Background(), doc, nil, 0, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestFilterBlocksDeterministic(t *testing.T) {
	doc, err := staticdom.ParseString(articlePage, "https://news.test/widgets")
	require.NoError(t, err)

	filter := newTestFilter()
	first, err := filter.FilterBlocks(context.Background(), doc, []string{"widget"}, 0, 20)
	require.NoError(t, err)
	second, err := filter.FilterBlocks(context.Background(), doc, []string{"widget"}, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFilterBlocksSnapshotError(t *testing.T) {
	_, err := newTestFilter().FilterBlocks(context.Background(), brokenDoc{}, nil, 0, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to snapshot content blocks")
}

type brokenDoc struct{}

func (brokenDoc) MatchCount(context.Context, string) (int, error) { return 0, nil }
func (brokenDoc) ResolveHandle(context.Context, string) (schemas.Element, error) {
	return nil, nil
}
func (brokenDoc) FindByText(context.Context, string) (schemas.Element, error) { return nil, nil }
func (brokenDoc) ComputePathSelector(context.Context, schemas.Element) (string, error) {
	return "", nil
}
func (brokenDoc) SnapshotCandidates(context.Context, int) ([]schemas.CandidateRecord, error) {
	return nil, nil
}
func (brokenDoc) SnapshotContentBlocks(context.Context, []string, int) ([]schemas.ContentBlock, error) {
	return nil, assert.AnError
}
func (brokenDoc) DocumentIdentity(context.Context) (string, error) { return "", nil }
