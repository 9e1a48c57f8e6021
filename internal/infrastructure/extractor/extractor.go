package extractor

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newsagent/internal/ports"
)

const maxTextLength = 1000

// PageExtractor retrieves a web page and reduces it to bounded plain text.
// Every failure mode (timeout, bad status, malformed markup) yields an
// empty string so fetchers can keep going.
type PageExtractor struct {
	client *http.Client
	logger *slog.Logger
}

var _ ports.Extractor = (*PageExtractor)(nil)

// New wires an HTTP client; the default carries a 10s timeout.
func New(client *http.Client, logger *slog.Logger) *PageExtractor {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &PageExtractor{client: client, logger: logger}
}

// ExtractText fetches the URL, strips script/style content, collapses all
// whitespace into single spaces and returns the first 1000 characters.
func (e *PageExtractor) ExtractText(ctx context.Context, pageURL string) string {
	if pageURL == "" {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		e.debug("build request", pageURL, err)
		return ""
	}
	req.Header.Set("User-Agent", "newsagent/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		e.debug("request page", pageURL, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		e.debug("unexpected status", pageURL, nil, "status", resp.Status)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		e.debug("parse page", pageURL, err)
		return ""
	}

	doc.Find("script, style").Remove()

	text := strings.Join(strings.Fields(doc.Text()), " ")
	if runes := []rune(text); len(runes) > maxTextLength {
		text = string(runes[:maxTextLength])
	}
	return text
}

func (e *PageExtractor) debug(msg, url string, err error, args ...any) {
	if e.logger == nil {
		return
	}
	fields := append([]any{"url", url}, args...)
	if err != nil {
		fields = append(fields, "error", err)
	}
	e.logger.Debug(msg, fields...)
}
