package schemas

import "context"

// Element is a handle to a resolved live node. Ownership sits with the
// caller; the locator never retains one past a single locate call.
type Element interface {
	// Selector returns the query string this handle was resolved with.
	Selector() string
	// Text returns the whitespace-normalized text content of the node.
	Text(ctx context.Context) (string, error)
	// Attribute reads a single attribute. The bool reports presence.
	Attribute(ctx context.Context, name string) (string, bool, error)
}

// DocumentQuerier is the capability set the resolution core needs from a
// document engine. Implementations adapt a concrete driver (a live
// browser tab, a parsed HTML file); the core never references the driver
// directly. All methods are blocking round trips and honor ctx.
type DocumentQuerier interface {
	// MatchCount reports how many nodes the selector currently matches.
	// An invalid selector is a non-match, not an error.
	MatchCount(ctx context.Context, selector string) (int, error)
	// ResolveHandle returns a handle to the first node matching the
	// selector, or nil when nothing matches.
	ResolveHandle(ctx context.Context, selector string) (Element, error)
	// FindByText searches for an exact, whitespace-normalized text match
	// anywhere in the tree. Returns nil when nothing matches.
	FindByText(ctx context.Context, text string) (Element, error)
	// ComputePathSelector derives a structural css path usable as a
	// selector for the given handle.
	ComputePathSelector(ctx context.Context, el Element) (string, error)
	// SnapshotCandidates serializes up to max broadly scoped tree nodes
	// into flat, comparable records in document order.
	SnapshotCandidates(ctx context.Context, max int) ([]CandidateRecord, error)
	// SnapshotContentBlocks serializes up to max content-bearing nodes,
	// skipping anything matched by the exclude selectors.
	SnapshotContentBlocks(ctx context.Context, exclude []string, max int) ([]ContentBlock, error)
	// DocumentIdentity returns the key scoping cached selector memory to
	// this document, typically the current URL.
	DocumentIdentity(ctx context.Context) (string, error)
}

// SelectorStore persists the selector memory mapping. The default
// implementation is a single JSON file; a database-backed one can share
// memory across processes. Implementations must tolerate concurrent
// SaveAll calls from independent resolutions.
type SelectorStore interface {
	// Load reads the full mapping. A missing or corrupt store yields an
	// empty mapping, never an error the caller must handle as fatal.
	Load(ctx context.Context) (map[string]CacheEntry, error)
	// SaveAll replaces the persisted mapping wholesale.
	SaveAll(ctx context.Context, entries map[string]CacheEntry) error
}
