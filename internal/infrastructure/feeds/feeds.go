package feeds

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"newsagent/internal/config"
	"newsagent/internal/domain"
	"newsagent/internal/ports"
)

const entriesPerFeed = 5

// Source implements ports.FeedSource over the configured feed list. One
// broken feed never aborts the others: its contribution is logged and
// left empty.
type Source struct {
	parser    *gofeed.Parser
	feeds     []config.FeedConfig
	extractor ports.Extractor
	logger    *slog.Logger
}

var _ ports.FeedSource = (*Source)(nil)

// NewSource wires the feed parser with config-defined sources and an
// optional page extractor for entry bodies.
func NewSource(feedList []config.FeedConfig, extractor ports.Extractor, client *http.Client, logger *slog.Logger) *Source {
	parser := gofeed.NewParser()
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	parser.Client = client
	parser.UserAgent = "newsagent/1.0"

	return &Source{
		parser:    parser,
		feeds:     feedList,
		extractor: extractor,
		logger:    logger,
	}
}

// FetchArticles walks the configured feeds and returns up to five entries
// per feed, each with best-effort extracted page text.
func (s *Source) FetchArticles(ctx context.Context) []domain.RawItem {
	items := make([]domain.RawItem, 0, len(s.feeds)*entriesPerFeed)

	for _, feedCfg := range s.feeds {
		feed, err := s.parser.ParseURLWithContext(feedCfg.URL, ctx)
		if err != nil {
			s.warn("fetch feed failed", feedCfg.URL, err)
			continue
		}

		sourceName := feed.Title
		if sourceName == "" {
			sourceName = feedCfg.Name
		}

		entries := feed.Items
		if len(entries) > entriesPerFeed {
			entries = entries[:entriesPerFeed]
		}

		for _, entry := range entries {
			item := domain.RawItem{
				Title:     entry.Title,
				Summary:   entry.Description,
				URL:       entry.Link,
				Source:    sourceName,
				Published: entry.Published,
			}
			if s.extractor != nil {
				item.Content = s.extractor.ExtractText(ctx, entry.Link)
			}
			items = append(items, item)
		}
	}

	if s.logger != nil {
		s.logger.Debug("feed fetch done", "feeds", len(s.feeds), "articles", len(items))
	}
	return items
}

func (s *Source) warn(msg, url string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, "url", url, "error", err)
	}
}
