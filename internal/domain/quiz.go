package domain

import (
	"time"

	"github.com/totegamma/tubesage"
)

// QuizResult is one quiz attempt. The key is a weak reference; no foreign key
// to a stored quiz is enforced.
type QuizResult struct {
	ID        string               `json:"id"`
	User      string               `json:"user"`
	Key       tubesage.ResourceKey `json:"key"`
	Score     int                  `json:"score"`
	Total     int                  `json:"total"`
	CreatedAt time.Time            `json:"createdAt"`
}

// QuizStats summarises a set of attempts.
type QuizStats struct {
	Attempts     int     `json:"attempts"`
	Participants int     `json:"participants"`
	Average      float64 `json:"average"`
	Highest      int     `json:"highest"`
	Lowest       int     `json:"lowest"`
}

// Summarize computes stats over results. An empty slice yields zero stats.
func Summarize(results []QuizResult) QuizStats {
	if len(results) == 0 {
		return QuizStats{}
	}
	users := map[string]struct{}{}
	stats := QuizStats{Attempts: len(results), Highest: results[0].Score, Lowest: results[0].Score}
	sum := 0
	for _, r := range results {
		users[r.User] = struct{}{}
		sum += r.Score
		if r.Score > stats.Highest {
			stats.Highest = r.Score
		}
		if r.Score < stats.Lowest {
			stats.Lowest = r.Score
		}
	}
	stats.Participants = len(users)
	stats.Average = float64(sum) / float64(len(results))
	return stats
}
