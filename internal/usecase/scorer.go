package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"newsagent/internal/domain"
	"newsagent/internal/ports"
)

// MinRelevance is the verdict cutoff; items scoring below it are dropped.
const MinRelevance = 6

const articlePromptTemplate = `You are a newsletter curator. Given these topics of interest: %s

Rate the relevance of this article on a scale of 0-10 and provide a concise summary.

Article Title: %s
Article Summary: %s
Article Content: %s

Respond in JSON format:
{
    "relevance_score": <score>,
    "summary": "<your_summary>",
    "reasoning": "<brief_reasoning>"
}`

const paperPromptTemplate = `You are a newsletter curator. Given these topics of interest: %s

Rate the relevance of this academic paper on a scale of 0-10 and provide a concise summary.

Paper Title: %s
Authors: %s
Abstract: %s
Citation Count: %d

Respond in JSON format:
{
    "relevance_score": <score>,
    "summary": "<your_summary>",
    "reasoning": "<brief_reasoning>"
}`

// Scorer asks the text-generation service for a relevance verdict per item
// and keeps only the ones at or above the cutoff. One malformed verdict
// drops one item, never the batch.
type Scorer struct {
	generator ports.Generator
	logger    *slog.Logger
}

// NewScorer wires the text-generation capability.
func NewScorer(generator ports.Generator, logger *slog.Logger) *Scorer {
	return &Scorer{generator: generator, logger: logger}
}

// verdict is the structured response expected from the service. Pointer
// fields distinguish "absent" from zero values.
type verdict struct {
	RelevanceScore *float64 `json:"relevance_score"`
	Summary        *string  `json:"summary"`
	Reasoning      string   `json:"reasoning"`
}

// ScoreArticles filters raw articles, sorted by score descending (stable),
// truncated to the article cap.
func (s *Scorer) ScoreArticles(ctx context.Context, items []domain.RawItem, topics []string) []domain.Article {
	var articles []domain.Article

	for _, item := range items {
		prompt := fmt.Sprintf(articlePromptTemplate,
			strings.Join(topics, ", "), item.Title, item.Summary, item.Content)

		v, ok := s.verdictFor(ctx, prompt, item.Title)
		if !ok || *v.RelevanceScore < MinRelevance {
			continue
		}

		articles = append(articles, domain.Article{Scored: domain.Scored{
			Title:   item.Title,
			Summary: *v.Summary,
			URL:     item.URL,
			Source:  item.Source,
			Score:   *v.RelevanceScore,
		}})
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Score > articles[j].Score
	})
	if len(articles) > domain.MaxArticles {
		articles = articles[:domain.MaxArticles]
	}
	return articles
}

// ScorePapers filters raw papers, sorted by score descending (stable). The
// full surviving set is returned; callers derive their own cuts.
func (s *Scorer) ScorePapers(ctx context.Context, items []domain.RawItem, topics []string) []domain.Paper {
	var papers []domain.Paper

	for _, item := range items {
		prompt := fmt.Sprintf(paperPromptTemplate,
			strings.Join(topics, ", "), item.Title, item.Authors, item.Summary, item.Citations)

		v, ok := s.verdictFor(ctx, prompt, item.Title)
		if !ok || *v.RelevanceScore < MinRelevance {
			continue
		}

		papers = append(papers, domain.Paper{
			Scored: domain.Scored{
				Title:   item.Title,
				Summary: *v.Summary,
				URL:     item.URL,
				Source:  item.Source,
				Score:   *v.RelevanceScore,
			},
			Authors:         item.Authors,
			Year:            item.Year,
			Citations:       item.Citations,
			PublicationDate: item.PublicationDate,
		})
	}

	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].Score > papers[j].Score
	})
	return papers
}

// verdictFor performs one generation call and parses the response. Any
// failure is logged and reported as "skip this item".
func (s *Scorer) verdictFor(ctx context.Context, prompt, title string) (verdict, bool) {
	content, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.warn("score item failed", title, err)
		return verdict{}, false
	}

	v, err := parseVerdict(content)
	if err != nil {
		s.warn("discard unusable verdict", title, err)
		return verdict{}, false
	}
	return v, true
}

func parseVerdict(content string) (verdict, error) {
	content = stripCodeFences(content)
	if content == "" {
		return verdict{}, fmt.Errorf("empty response")
	}

	var v verdict
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return verdict{}, fmt.Errorf("decode verdict: %w", err)
	}
	if v.RelevanceScore == nil {
		return verdict{}, fmt.Errorf("verdict missing relevance_score")
	}
	if v.Summary == nil {
		return verdict{}, fmt.Errorf("verdict missing summary")
	}
	return v, nil
}

// stripCodeFences removes surrounding ``` markers (with an optional
// language tag) that models sometimes wrap JSON in.
func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```")
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		content = content[i+1:]
	} else {
		content = strings.TrimPrefix(content, "json")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

func (s *Scorer) warn(msg, title string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, "title", title, "error", err)
	}
}
