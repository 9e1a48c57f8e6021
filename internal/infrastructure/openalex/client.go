package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"newsagent/internal/config"
	"newsagent/internal/domain"
	"newsagent/internal/ports"
)

const (
	maxAbstractLength = 1000
	maxListedAuthors  = 5
)

// Client queries the OpenAlex works API for recent papers per topic.
// Requests carry a mailto parameter for polite-pool access.
type Client struct {
	baseURL string
	mailto  string
	perPage int
	http    *http.Client
	logger  *slog.Logger
}

var _ ports.PaperSource = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.OpenAlexConfig, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 10
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		mailto:  cfg.Mailto,
		perPage: perPage,
		http:    client,
		logger:  logger,
	}
}

// Decoded shape of the works endpoint. Only fields the pipeline consumes
// are declared; everything else is ignored at decode time.
type worksResponse struct {
	Results []work `json:"results"`
}

type work struct {
	Title                 string           `json:"title"`
	DisplayName           string           `json:"display_name"`
	DOI                   string           `json:"doi"`
	PublicationYear       int              `json:"publication_year"`
	PublicationDate       string           `json:"publication_date"`
	CitedByCount          int              `json:"cited_by_count"`
	Authorships           []authorship     `json:"authorships"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	PrimaryLocation       *primaryLocation `json:"primary_location"`
}

type authorship struct {
	Author author `json:"author"`
}

type author struct {
	DisplayName string `json:"display_name"`
}

type primaryLocation struct {
	LandingPageURL string          `json:"landing_page_url"`
	Source         *locationSource `json:"source"`
}

type locationSource struct {
	DisplayName string `json:"display_name"`
}

// FetchPapers queries the works API once per topic, newest first. A
// failing topic contributes nothing; the others still return.
func (c *Client) FetchPapers(ctx context.Context, topics []string) []domain.RawItem {
	var papers []domain.RawItem

	for _, topic := range topics {
		works, err := c.fetchWorks(ctx, topic)
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("fetch papers failed", "topic", topic, "error", err)
			}
			continue
		}
		for _, w := range works {
			papers = append(papers, c.toRawItem(w))
		}
	}

	if c.logger != nil {
		c.logger.Debug("paper fetch done", "topics", len(topics), "papers", len(papers))
	}
	return papers
}

func (c *Client) fetchWorks(ctx context.Context, topic string) ([]work, error) {
	query := url.Values{}
	query.Set("search", topic)
	query.Set("per-page", strconv.Itoa(c.perPage))
	query.Set("sort", "publication_date:desc")
	if c.mailto != "" {
		query.Set("mailto", c.mailto)
	}

	endpoint := c.baseURL + "/works?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "newsagent/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request works: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openalex returned %s", resp.Status)
	}

	var decoded worksResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode works: %w", err)
	}
	return decoded.Results, nil
}

func (c *Client) toRawItem(w work) domain.RawItem {
	title := w.Title
	if title == "" {
		title = w.DisplayName
	}

	itemURL := w.DOI
	sourceName := ""
	if w.PrimaryLocation != nil {
		if itemURL == "" {
			itemURL = w.PrimaryLocation.LandingPageURL
		}
		if w.PrimaryLocation.Source != nil {
			sourceName = w.PrimaryLocation.Source.DisplayName
		}
	}

	return domain.RawItem{
		Title:           title,
		Summary:         reconstructAbstract(w.AbstractInvertedIndex),
		URL:             itemURL,
		Source:          sourceName,
		Authors:         formatAuthors(w.Authorships),
		Year:            w.PublicationYear,
		Citations:       w.CitedByCount,
		PublicationDate: w.PublicationDate,
	}
}

// reconstructAbstract flattens the word -> positions index into
// (position, word) pairs, orders them and joins with single spaces.
func reconstructAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}

	type placed struct {
		pos  int
		word string
	}
	var words []placed
	for word, positions := range index {
		for _, pos := range positions {
			words = append(words, placed{pos: pos, word: word})
		}
	}
	sort.Slice(words, func(i, j int) bool { return words[i].pos < words[j].pos })

	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.word
	}

	abstract := strings.Join(parts, " ")
	if runes := []rune(abstract); len(runes) > maxAbstractLength {
		abstract = string(runes[:maxAbstractLength])
	}
	return abstract
}

// formatAuthors joins up to five display names, marking longer author
// lists with "et al.".
func formatAuthors(authorships []authorship) string {
	var names []string
	for _, a := range authorships {
		if name := strings.TrimSpace(a.Author.DisplayName); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	if len(names) > maxListedAuthors {
		return strings.Join(names[:maxListedAuthors], ", ") + " et al."
	}
	return strings.Join(names, ", ")
}
