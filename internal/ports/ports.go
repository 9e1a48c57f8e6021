package ports

import (
	"context"

	"newsagent/internal/domain"
)

// Generator produces text from a prompt via the external text-generation
// service. Callers must treat the returned content defensively: it may be
// empty or wrapped in code-fence markers.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// FeedSource pulls raw articles from the configured feed list. Per-feed
// failures are absorbed inside the implementation; the call never fails as
// a whole, it just yields fewer items.
type FeedSource interface {
	FetchArticles(ctx context.Context) []domain.RawItem
}

// PaperSource pulls recent academic works matching each topic. Per-topic
// failures are isolated the same way.
type PaperSource interface {
	FetchPapers(ctx context.Context, topics []string) []domain.RawItem
}

// Extractor reduces a web page to bounded plain text. Any error yields an
// empty string.
type Extractor interface {
	ExtractText(ctx context.Context, url string) string
}

// Transport delivers a finished document to the recipient.
type Transport interface {
	Send(ctx context.Context, document, subject string) error
	Test(ctx context.Context) error
}
