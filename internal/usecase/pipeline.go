package usecase

import (
	"context"
	"log/slog"
	"time"

	"newsagent/internal/domain"
	"newsagent/internal/ports"
)

// PipelineDeps wires all driven adapters into the curation pipeline.
type PipelineDeps struct {
	Feeds     ports.FeedSource
	Papers    ports.PaperSource
	Generator ports.Generator
	Topics    []string
	Logger    *slog.Logger
	Now       func() time.Time
}

// Pipeline runs the linear curation sequence: fetch articles, fetch
// papers, score both, bucket papers by recency, assemble the newsletter.
// A stage producing nothing degrades the run; only assembly failure
// aborts it.
type Pipeline struct {
	feeds     ports.FeedSource
	papers    ports.PaperSource
	scorer    *Scorer
	assembler *Assembler
	topics    []string
	logger    *slog.Logger
	now       func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		feeds:     deps.Feeds,
		papers:    deps.Papers,
		scorer:    NewScorer(deps.Generator, deps.Logger),
		assembler: NewAssembler(deps.Generator, deps.Logger),
		topics:    deps.Topics,
		logger:    deps.Logger,
		now:       now,
	}
}

// Run executes one full curation pass and returns the assembled document.
func (p *Pipeline) Run(ctx context.Context) (string, error) {
	started := p.now()
	state := &domain.RunState{Topics: p.topics}

	p.info("curation run started", "topics", len(state.Topics))

	if p.feeds != nil {
		state.RawArticles = p.feeds.FetchArticles(ctx)
	}
	p.info("articles fetched", "count", len(state.RawArticles))

	if p.papers != nil {
		state.RawPapers = p.papers.FetchPapers(ctx, state.Topics)
	}
	p.info("papers fetched", "count", len(state.RawPapers))

	state.Articles = p.scorer.ScoreArticles(ctx, state.RawArticles, state.Topics)
	p.info("articles scored", "kept", len(state.Articles))

	scoredPapers := p.scorer.ScorePapers(ctx, state.RawPapers, state.Topics)
	state.TopPapers = capPapers(scoredPapers, domain.MaxTopPapers)
	state.TodayPapers, state.RecentPapers = BucketPapers(scoredPapers, started)
	p.info("papers scored",
		"kept", len(scoredPapers),
		"today", len(state.TodayPapers),
		"recent", len(state.RecentPapers))

	document, err := p.assembler.Assemble(ctx, state, started)
	if err != nil {
		p.error("newsletter assembly failed", err)
		return "", err
	}
	state.Document = document

	p.info("curation run finished", "duration", p.now().Sub(started).String())
	return document, nil
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) error(msg string, err error) {
	if p.logger != nil {
		p.logger.Error(msg, "error", err)
	}
}
