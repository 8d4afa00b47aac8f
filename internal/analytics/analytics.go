// Package analytics aggregates finished attempts into creator-facing reports.
package analytics

import (
	"sort"
	"time"

	"quiz-feed-service/internal/domain"
)

// QuestionStats is the success rate of one question across attempts.
type QuestionStats struct {
	QuestionID    string `json:"questionId"`
	QuestionIndex int    `json:"questionIndex"`
	QuestionText  string `json:"questionText"`
	CorrectCount  int    `json:"correctCount"`
	TotalAttempts int    `json:"totalAttempts"`
	SuccessRate   int    `json:"successRate"`
}

// ViewerAttempt is one attempt with the viewer's identity attached.
type ViewerAttempt struct {
	domain.LeaderboardEntry
	QuestionBreakdown []domain.QuestionOutcome `json:"questionBreakdown"`
}

// DailyActivity counts attempts completed on one day (UTC).
type DailyActivity struct {
	Date     string `json:"date"`
	Attempts int    `json:"attempts"`
}

// QuizReport is the analytics view of a single quiz.
type QuizReport struct {
	QuizID           string                    `json:"quizId"`
	TotalAttempts    int                       `json:"totalAttempts"`
	AverageScore     int                       `json:"averageScore"`
	HighestScore     int                       `json:"highestScore"`
	HardestQuestion  *QuestionStats            `json:"hardestQuestion,omitempty"`
	Leaderboard      []domain.LeaderboardEntry `json:"leaderboard"`
	QuestionAnalysis []QuestionStats           `json:"questionAnalysis"`
	Attempts         []ViewerAttempt           `json:"attemptsWithUsers"`
	RecentActivity   []DailyActivity           `json:"recentActivity"`
}

// CreatorStats summarises every quiz of one creator.
type CreatorStats struct {
	TotalViews     int                    `json:"totalViews"`
	TotalQuizzes   int                    `json:"totalQuizzes"`
	AvgScore       int                    `json:"avgScore"`
	RecentAttempts []domain.AttemptResult `json:"recentAttempts"`
}

// RecentAttemptsLimit bounds CreatorStats.RecentAttempts.
const RecentAttemptsLimit = 5

// BuildQuizReport aggregates the attempts of quiz. users maps user IDs to
// display identities; unknown users keep an empty name.
func BuildQuizReport(quiz domain.Quiz, attempts []domain.AttemptResult, users map[string]domain.User) QuizReport {
	report := QuizReport{
		QuizID:           quiz.ID,
		TotalAttempts:    len(attempts),
		Leaderboard:      make([]domain.LeaderboardEntry, 0, len(attempts)),
		QuestionAnalysis: QuestionAnalysis(quiz, attempts),
		Attempts:         make([]ViewerAttempt, 0, len(attempts)),
		RecentActivity:   RecentActivity(attempts),
	}

	for _, a := range attempts {
		entry := toEntry(a, users[a.UserID])
		report.Leaderboard = append(report.Leaderboard, entry)
		report.Attempts = append(report.Attempts, ViewerAttempt{LeaderboardEntry: entry, QuestionBreakdown: a.QuestionBreakdown})
	}
	report.AverageScore = AveragePercentage(attempts)
	SortLeaderboard(report.Leaderboard)
	if len(report.Leaderboard) > 0 {
		report.HighestScore = report.Leaderboard[0].Percentage
	}
	sort.SliceStable(report.Attempts, func(i, j int) bool {
		return report.Attempts[i].CompletedAt.After(report.Attempts[j].CompletedAt)
	})
	report.HardestQuestion = Hardest(report.QuestionAnalysis)
	return report
}

func toEntry(a domain.AttemptResult, user domain.User) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		AttemptID:   a.ID,
		UserID:      a.UserID,
		UserName:    user.Name,
		UserEmail:   user.Email,
		Score:       a.Score,
		MaxScore:    a.MaxScore,
		Percentage:  a.Percentage(),
		TimeTaken:   a.TimeTakenSeconds,
		CompletedAt: a.CompletedAt,
	}
}

// SortLeaderboard orders by percentage desc, then faster time, then who finished first.
func SortLeaderboard(entries []domain.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Percentage != entries[j].Percentage {
			return entries[i].Percentage > entries[j].Percentage
		}
		if entries[i].TimeTaken != entries[j].TimeTaken {
			return entries[i].TimeTaken < entries[j].TimeTaken
		}
		return entries[i].CompletedAt.Before(entries[j].CompletedAt)
	})
}

// QuestionAnalysis counts correct answers per question, in quiz order.
// Breakdown rows for questions no longer in the quiz are ignored.
func QuestionAnalysis(quiz domain.Quiz, attempts []domain.AttemptResult) []QuestionStats {
	stats := make([]QuestionStats, len(quiz.Questions))
	index := make(map[string]int, len(quiz.Questions))
	for i, q := range quiz.Questions {
		stats[i] = QuestionStats{QuestionID: q.ID, QuestionIndex: i, QuestionText: q.Text}
		index[q.ID] = i
	}
	for _, a := range attempts {
		for _, row := range a.QuestionBreakdown {
			i, ok := index[row.QuestionID]
			if !ok {
				continue
			}
			stats[i].TotalAttempts++
			if row.IsCorrect {
				stats[i].CorrectCount++
			}
		}
	}
	for i := range stats {
		stats[i].SuccessRate = domain.Percentage(stats[i].CorrectCount, stats[i].TotalAttempts)
	}
	return stats
}

// Hardest returns the question with the lowest success rate among those
// attempted at least once; ties go to the earlier question.
func Hardest(stats []QuestionStats) *QuestionStats {
	var hardest *QuestionStats
	for i := range stats {
		if stats[i].TotalAttempts == 0 {
			continue
		}
		if hardest == nil || stats[i].SuccessRate < hardest.SuccessRate {
			s := stats[i]
			hardest = &s
		}
	}
	return hardest
}

// AveragePercentage is the mean of score/maxScore across attempts, as a rounded percent.
func AveragePercentage(attempts []domain.AttemptResult) int {
	var sum float64
	n := 0
	for _, a := range attempts {
		if a.MaxScore <= 0 {
			continue
		}
		sum += float64(a.Score) / float64(a.MaxScore)
		n++
	}
	if n == 0 {
		return 0
	}
	return int(sum/float64(n)*100 + 0.5)
}

// RecentActivity groups attempts by completion day, oldest first.
func RecentActivity(attempts []domain.AttemptResult) []DailyActivity {
	counts := make(map[string]int)
	for _, a := range attempts {
		counts[a.CompletedAt.UTC().Format(time.DateOnly)]++
	}
	days := make([]DailyActivity, 0, len(counts))
	for day, n := range counts {
		days = append(days, DailyActivity{Date: day, Attempts: n})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// BuildCreatorStats summarises the creator's quizzes and the attempts made on them.
func BuildCreatorStats(quizzes []domain.Quiz, attempts []domain.AttemptResult) CreatorStats {
	owned := make(map[string]struct{}, len(quizzes))
	stats := CreatorStats{TotalQuizzes: len(quizzes)}
	for _, q := range quizzes {
		stats.TotalViews += q.Plays
		owned[q.ID] = struct{}{}
	}

	relevant := make([]domain.AttemptResult, 0, len(attempts))
	for _, a := range attempts {
		if _, ok := owned[a.QuizID]; ok {
			relevant = append(relevant, a)
		}
	}
	stats.AvgScore = AveragePercentage(relevant)

	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].CompletedAt.Before(relevant[j].CompletedAt)
	})
	if len(relevant) > RecentAttemptsLimit {
		relevant = relevant[len(relevant)-RecentAttemptsLimit:]
	}
	stats.RecentAttempts = relevant
	return stats
}

// UniqueQuizIDs lists the quizzes a viewer attempted, first attempt first.
func UniqueQuizIDs(attempts []domain.AttemptResult) []string {
	seen := make(map[string]struct{}, len(attempts))
	ids := make([]string, 0, len(attempts))
	for _, a := range attempts {
		if _, ok := seen[a.QuizID]; ok {
			continue
		}
		seen[a.QuizID] = struct{}{}
		ids = append(ids, a.QuizID)
	}
	return ids
}
