package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"newsagent/internal/domain"
	"newsagent/internal/ports"
)

// ErrGenerationFailed reports that the text-generation service produced no
// usable newsletter document. No partial document accompanies it.
var ErrGenerationFailed = errors.New("newsletter generation produced no content")

const newsletterPromptTemplate = `Create an engaging newsletter for these topics: %s

Today's date: %s

Use the curated items below to create a newsletter with:
1. A catchy subject line
2. A brief introduction
3. A "Latest Articles" section covering the articles
4. A "Papers Published Today" section (state explicitly that no papers were published today when that list is empty)
5. A "Recent Papers" section covering papers from the last two weeks
6. For each item: title, summary, and link
7. A closing note

Latest Articles:
%s
Papers Published Today:
%s
Recent Papers:
%s
Make it professional but engaging, suitable for email format.`

// Assembler renders the curated sets into one prompt and asks the
// text-generation service for the final composite document.
type Assembler struct {
	generator ports.Generator
	logger    *slog.Logger
}

// NewAssembler wires the text-generation capability.
func NewAssembler(generator ports.Generator, logger *slog.Logger) *Assembler {
	return &Assembler{generator: generator, logger: logger}
}

// Assemble performs the single document-generation call. A blank or failed
// response is the run's generation failure.
func (a *Assembler) Assemble(ctx context.Context, state *domain.RunState, date time.Time) (string, error) {
	prompt := fmt.Sprintf(newsletterPromptTemplate,
		strings.Join(state.Topics, ", "),
		date.Format("January 2, 2006"),
		renderArticles(state.Articles),
		renderPapers(state.TodayPapers, "No papers published today."),
		renderPapers(state.RecentPapers, "No recent papers."),
	)

	content, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate newsletter: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		return "", ErrGenerationFailed
	}

	if a.logger != nil {
		a.logger.Debug("newsletter assembled", "length", len(content))
	}
	return content, nil
}

func renderArticles(articles []domain.Article) string {
	if len(articles) == 0 {
		return "No articles.\n"
	}

	var b strings.Builder
	for i, article := range articles {
		fmt.Fprintf(&b, "%d. **%s** (Score: %.1f)\n", i+1, article.Title, article.Score)
		fmt.Fprintf(&b, "   Source: %s\n", article.Source)
		fmt.Fprintf(&b, "   Summary: %s\n", article.Summary)
		fmt.Fprintf(&b, "   URL: %s\n\n", article.URL)
	}
	return b.String()
}

func renderPapers(papers []domain.Paper, emptyNote string) string {
	if len(papers) == 0 {
		return emptyNote + "\n"
	}

	var b strings.Builder
	for i, paper := range papers {
		fmt.Fprintf(&b, "%d. **%s** (Score: %.1f)\n", i+1, paper.Title, paper.Score)
		if paper.Authors != "" {
			fmt.Fprintf(&b, "   Authors: %s\n", paper.Authors)
		}
		if paper.Citations > 0 {
			fmt.Fprintf(&b, "   Citations: %d\n", paper.Citations)
		}
		fmt.Fprintf(&b, "   Summary: %s\n", paper.Summary)
		fmt.Fprintf(&b, "   URL: %s\n\n", paper.URL)
	}
	return b.String()
}
