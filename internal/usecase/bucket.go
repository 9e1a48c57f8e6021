package usecase

import (
	"sort"
	"time"

	"newsagent/internal/domain"
)

const publicationDateLayout = "2006-01-02"

// BucketPapers partitions scored papers by recency relative to the run's
// reference date. Papers dated exactly today land in the today bucket;
// papers within the trailing 14-day window land in the recent bucket;
// papers with a missing or unparseable date default to recent rather than
// being dropped. Older (or future-dated) papers are excluded. Each bucket
// is sorted by score descending and capped at three.
func BucketPapers(papers []domain.Paper, today time.Time) (todayPapers, recentPapers []domain.Paper) {
	todayDay := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	windowStart := todayDay.AddDate(0, 0, -domain.RecentWindowDays)

	for _, paper := range papers {
		published, err := time.Parse(publicationDateLayout, paper.PublicationDate)
		switch {
		case paper.PublicationDate == "" || err != nil:
			recentPapers = append(recentPapers, paper)
		case published.Equal(todayDay):
			todayPapers = append(todayPapers, paper)
		case !published.Before(windowStart) && published.Before(todayDay):
			recentPapers = append(recentPapers, paper)
		}
	}

	todayPapers = capPapers(sortPapers(todayPapers), domain.MaxBucketPapers)
	recentPapers = capPapers(sortPapers(recentPapers), domain.MaxBucketPapers)
	return todayPapers, recentPapers
}

func sortPapers(papers []domain.Paper) []domain.Paper {
	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].Score > papers[j].Score
	})
	return papers
}

func capPapers(papers []domain.Paper, limit int) []domain.Paper {
	if len(papers) > limit {
		return papers[:limit]
	}
	return papers
}
