package domain

// Limits applied while assembling a run's curated sets.
const (
	MaxArticles      = 10
	MaxBucketPapers  = 3
	MaxTopPapers     = 5
	RecentWindowDays = 14
)

// RawItem is a fetched unit (feed article or academic paper) before scoring.
// Paper-only fields stay empty for feed articles.
type RawItem struct {
	Title     string
	Summary   string
	URL       string
	Source    string
	Published string
	Content   string

	Authors         string
	Year            int
	Citations       int
	PublicationDate string
}

// Scored is the core shared by both scored item variants. Score is the
// 0-10 relevance verdict; anything below 6 never reaches a Scored value.
type Scored struct {
	Title   string
	Summary string
	URL     string
	Source  string
	Score   float64
}

// Article is a scored feed entry.
type Article struct {
	Scored
}

// Paper is a scored academic work with its publication metadata.
type Paper struct {
	Scored
	Authors         string
	Year            int
	Citations       int
	PublicationDate string
}

// RunState accumulates everything one pipeline run produces. It is created
// fresh per run and never shared between runs.
type RunState struct {
	Topics       []string
	RawArticles  []RawItem
	RawPapers    []RawItem
	Articles     []Article
	TodayPapers  []Paper
	RecentPapers []Paper
	// TopPapers is the overall best-scored cut kept for convenience; the
	// today/recent buckets are what the assembled document uses.
	TopPapers []Paper
	Document  string
}
