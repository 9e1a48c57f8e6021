package usecase

import (
	"testing"
	"time"

	"newsagent/internal/domain"
)

func paper(title, published string, score float64) domain.Paper {
	return domain.Paper{
		Scored:          domain.Scored{Title: title, Score: score},
		PublicationDate: published,
	}
}

func titles(papers []domain.Paper) []string {
	out := make([]string, len(papers))
	for i, p := range papers {
		out[i] = p.Title
	}
	return out
}

func contains(papers []domain.Paper, title string) bool {
	for _, p := range papers {
		if p.Title == title {
			return true
		}
	}
	return false
}

func TestBucketPapersPartition(t *testing.T) {
	t.Parallel()

	today := time.Date(2025, time.November, 8, 10, 30, 0, 0, time.UTC)

	papers := []domain.Paper{
		paper("today", "2025-11-08", 7),
		paper("yesterday", "2025-11-07", 8),
		paper("window-edge", "2025-10-25", 6),
		paper("too-old", "2025-10-20", 9),
		paper("future", "2025-12-01", 9),
		paper("no-date", "", 6),
		paper("bad-date", "next tuesday", 7),
	}

	todayPapers, recentPapers := BucketPapers(papers, today)

	if len(todayPapers) != 1 || todayPapers[0].Title != "today" {
		t.Fatalf("unexpected today bucket: %v", titles(todayPapers))
	}
	if contains(recentPapers, "today") {
		t.Fatalf("today paper duplicated into recent bucket")
	}
	for _, want := range []string{"yesterday", "no-date", "bad-date"} {
		if !contains(recentPapers, want) {
			t.Fatalf("expected %q in recent bucket: %v", want, titles(recentPapers))
		}
	}
	if contains(recentPapers, "too-old") || contains(recentPapers, "future") {
		t.Fatalf("excluded papers leaked into recent bucket: %v", titles(recentPapers))
	}
	if contains(todayPapers, "too-old") || contains(todayPapers, "future") {
		t.Fatalf("excluded papers leaked into today bucket: %v", titles(todayPapers))
	}
}

func TestBucketPapersWindowEdgeIncluded(t *testing.T) {
	t.Parallel()

	today := time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC)
	_, recentPapers := BucketPapers([]domain.Paper{
		paper("exactly-14-days", "2025-10-25", 6),
		paper("fifteen-days", "2025-10-24", 6),
	}, today)

	if !contains(recentPapers, "exactly-14-days") {
		t.Fatalf("14-day-old paper should be inside the window")
	}
	if contains(recentPapers, "fifteen-days") {
		t.Fatalf("15-day-old paper should be excluded")
	}
}

func TestBucketPapersSortedAndCapped(t *testing.T) {
	t.Parallel()

	today := time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC)

	papers := []domain.Paper{
		paper("r1", "2025-11-07", 6),
		paper("r2", "2025-11-06", 9),
		paper("r3", "2025-11-05", 7),
		paper("r4", "2025-11-04", 8),
		paper("t1", "2025-11-08", 6),
		paper("t2", "2025-11-08", 8),
		paper("t3", "2025-11-08", 7),
		paper("t4", "2025-11-08", 9),
	}

	todayPapers, recentPapers := BucketPapers(papers, today)

	if len(todayPapers) != domain.MaxBucketPapers {
		t.Fatalf("today bucket not capped: %d", len(todayPapers))
	}
	if len(recentPapers) != domain.MaxBucketPapers {
		t.Fatalf("recent bucket not capped: %d", len(recentPapers))
	}

	for _, bucket := range [][]domain.Paper{todayPapers, recentPapers} {
		for i := 1; i < len(bucket); i++ {
			if bucket[i-1].Score < bucket[i].Score {
				t.Fatalf("bucket not sorted descending: %v", titles(bucket))
			}
		}
	}
	if todayPapers[0].Title != "t4" {
		t.Fatalf("unexpected top of today bucket: %s", todayPapers[0].Title)
	}
	if contains(todayPapers, "t1") {
		t.Fatalf("lowest scored today paper should have been cut")
	}
	if recentPapers[0].Title != "r2" || contains(recentPapers, "r1") {
		t.Fatalf("unexpected recent bucket: %v", titles(recentPapers))
	}
}
