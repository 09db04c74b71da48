// internal/staticdom/staticdom.go
package staticdom

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/lodestar/api/schemas"
)

// Document adapts a parsed, static HTML tree to the DocumentQuerier
// interface. It backs offline extraction from saved pages and lets the
// resolution core run in tests without a browser. The tree never changes
// after parsing.
type Document struct {
	doc      *goquery.Document
	identity string
}

var _ schemas.DocumentQuerier = (*Document)(nil)

// Parse builds a static document from an HTML stream. identity plays the
// role of the page URL for selector memory scoping.
func Parse(r io.Reader, identity string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return &Document{doc: doc, identity: identity}, nil
}

// ParseString builds a static document from an HTML string.
func ParseString(markup, identity string) (*Document, error) {
	return Parse(strings.NewReader(markup), identity)
}

// ParseFile builds a static document from a saved page on disk. The
// identity is a file URL derived from the path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f, "file://"+path)
}

// element is a handle into the parsed tree.
type element struct {
	sel      *goquery.Selection
	selector string
}

var _ schemas.Element = (*element)(nil)

func (e *element) Selector() string { return e.selector }

func (e *element) Text(context.Context) (string, error) {
	return normalizeSpace(e.sel.Text()), nil
}

func (e *element) Attribute(_ context.Context, name string) (string, bool, error) {
	value, ok := e.sel.Attr(name)
	return value, ok, nil
}

// compile validates a selector. Invalid syntax is a non-match by
// contract, so the caller treats a nil matcher as zero results.
func compile(selector string) cascadia.Selector {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil
	}
	return matcher
}

// MatchCount reports how many nodes the selector matches.
func (d *Document) MatchCount(_ context.Context, selector string) (int, error) {
	matcher := compile(selector)
	if matcher == nil {
		return 0, nil
	}
	return d.doc.FindMatcher(matcher).Length(), nil
}

// ResolveHandle returns a handle to the first matching node, or nil.
func (d *Document) ResolveHandle(_ context.Context, selector string) (schemas.Element, error) {
	matcher := compile(selector)
	if matcher == nil {
		return nil, nil
	}
	sel := d.doc.FindMatcher(matcher)
	if sel.Length() == 0 {
		return nil, nil
	}
	return &element{sel: sel.First(), selector: selector}, nil
}

// FindByText locates the deepest, first-in-document element whose
// whitespace-normalized text equals the given text.
func (d *Document) FindByText(_ context.Context, text string) (schemas.Element, error) {
	target := normalizeSpace(text)
	if target == "" {
		return nil, nil
	}

	body := d.doc.Find("body")
	if body.Length() == 0 {
		return nil, nil
	}
	node := findByTextNode(body.Get(0), target)
	if node == nil {
		return nil, nil
	}

	path := cssPath(node)
	if path == "" {
		return nil, nil
	}
	return &element{sel: newSingleSelection(d.doc, node), selector: path}, nil
}

// ComputePathSelector derives the structural css path for a handle.
func (d *Document) ComputePathSelector(_ context.Context, el schemas.Element) (string, error) {
	handle, ok := el.(*element)
	if !ok || handle.sel.Length() == 0 {
		return "", fmt.Errorf("handle does not belong to this document")
	}
	return cssPath(handle.sel.Get(0)), nil
}

// SnapshotCandidates serializes up to max element nodes under body in
// document order.
func (d *Document) SnapshotCandidates(_ context.Context, max int) ([]schemas.CandidateRecord, error) {
	if max <= 0 {
		max = 1800
	}

	var records []schemas.CandidateRecord
	d.doc.Find("body *").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		node := sel.Get(0)
		records = append(records, schemas.CandidateRecord{
			Selector: cssPath(node),
			Tag:      strings.ToLower(node.Data),
			ID:       attrValue(node, "id"),
			Class:    attrValue(node, "class"),
			Name:     attrValue(node, "name"),
			Role:     attrValue(node, "role"),
			Text:     truncate(normalizeSpace(sel.Text()), 140),
			Visible:  staticVisible(node),
		})
		return len(records) < max
	})
	return records, nil
}

// contentSelector mirrors the node set the relevance filter scores.
const contentSelector = "main, article, section, div, p, li, h1, h2, h3"

// SnapshotContentBlocks serializes content-bearing nodes, skipping
// anything matching (or nested under) the exclude selectors and anything
// with fewer than 20 characters of text.
func (d *Document) SnapshotContentBlocks(_ context.Context, exclude []string, max int) ([]schemas.ContentBlock, error) {
	if max <= 0 {
		max = 800
	}

	matchers := make([]cascadia.Selector, 0, len(exclude))
	for _, sel := range exclude {
		if m := compile(sel); m != nil {
			matchers = append(matchers, m)
		}
	}

	var blocks []schemas.ContentBlock
	d.doc.Find(contentSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		node := sel.Get(0)
		text := normalizeSpace(sel.Text())
		if len(text) < 20 {
			return true
		}
		if excludedNode(node, matchers) {
			return true
		}
		blocks = append(blocks, schemas.ContentBlock{
			Selector: cssPath(node),
			Text:     truncate(text, 500),
			Tag:      strings.ToLower(node.Data),
		})
		return len(blocks) < max
	})
	return blocks, nil
}

// DocumentIdentity returns the identity supplied at parse time.
func (d *Document) DocumentIdentity(context.Context) (string, error) {
	return d.identity, nil
}

// -- Tree Helpers --

func newSingleSelection(doc *goquery.Document, node *html.Node) *goquery.Selection {
	return doc.FindNodes(node)
}

func attrValue(node *html.Node, name string) string {
	for _, attr := range node.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

func parentElement(node *html.Node) *html.Node {
	for p := node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

// staticVisible approximates visibility for a tree with no layout:
// structural and explicitly hidden nodes are invisible, everything else
// counts as visible.
func staticVisible(node *html.Node) bool {
	switch strings.ToLower(node.Data) {
	case "script", "style", "template", "head", "meta", "link", "title":
		return false
	}
	if hasAttr(node, "hidden") {
		return false
	}
	style := strings.ReplaceAll(strings.ToLower(attrValue(node, "style")), " ", "")
	if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
		return false
	}
	return true
}

func hasAttr(node *html.Node, name string) bool {
	for _, attr := range node.Attr {
		if attr.Key == name {
			return true
		}
	}
	return false
}

func excludedNode(node *html.Node, matchers []cascadia.Selector) bool {
	for current := node; current != nil; current = parentElement(current) {
		if current.Type != html.ElementNode {
			continue
		}
		for _, m := range matchers {
			if m.Match(current) {
				return true
			}
		}
	}
	return false
}

// findByTextNode walks in document order and descends to the deepest
// element whose normalized text equals the target.
func findByTextNode(node *html.Node, target string) *html.Node {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode {
			continue
		}
		if normalizeSpace(innerText(child)) == target {
			if deeper := findByTextNode(child, target); deeper != nil {
				return deeper
			}
			return child
		}
		if found := findByTextNode(child, target); found != nil {
			return found
		}
	}
	return nil
}

func innerText(node *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		switch strings.ToLower(n.Data) {
		case "script", "style", "template":
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return sb.String()
}

// cssPath builds a short structural selector for a node: tag plus up to
// two classes per segment, anchored at the nearest id, capped at eight
// segments. Matches the path format the browser snapshot script emits.
func cssPath(node *html.Node) string {
	if node == nil || node.Type != html.ElementNode {
		return ""
	}

	var segments []string
	for current := node; current != nil && current.Type == html.ElementNode && len(segments) < 8; current = parentElement(current) {
		tag := strings.ToLower(current.Data)
		if tag == "html" {
			break
		}

		if id := attrValue(current, "id"); id != "" {
			segments = append([]string{tag + "#" + escapeCSS(id)}, segments...)
			break
		}

		part := tag
		classes := strings.Fields(attrValue(current, "class"))
		if len(classes) > 2 {
			classes = classes[:2]
		}
		if len(classes) > 0 {
			for _, class := range classes {
				part += "." + escapeCSS(class)
			}
		} else if index, total := siblingPosition(current); total > 1 {
			part += fmt.Sprintf(":nth-of-type(%d)", index)
		}
		segments = append([]string{part}, segments...)
	}
	return strings.Join(segments, " > ")
}

// siblingPosition reports the 1-based position of a node among same-tag
// element siblings and the total count.
func siblingPosition(node *html.Node) (index, total int) {
	parent := parentElement(node)
	if parent == nil {
		return 1, 1
	}
	for child := parent.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode || child.Data != node.Data {
			continue
		}
		total++
		if child == node {
			index = total
		}
	}
	if index == 0 {
		index = 1
	}
	if total == 0 {
		total = 1
	}
	return index, total
}

func escapeCSS(value string) string {
	var sb strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('\\')
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
