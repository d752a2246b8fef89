package progress

import (
	"sort"
	"time"
)

// DueReview is a completion whose review hint has passed.
type DueReview struct {
	Completion LessonCompletion
	Overdue    time.Duration
}

// DueForReview returns completions whose NextReviewAt is at or before now,
// most overdue first. Entries without a review hint are never due.
func DueForReview(p LearnerProgress, now time.Time) []DueReview {
	nowMs := now.UnixMilli()

	var due []DueReview
	for _, c := range p.LessonProgress {
		if c.NextReviewAt == nil || *c.NextReviewAt > nowMs {
			continue
		}
		due = append(due, DueReview{
			Completion: c,
			Overdue:    time.Duration(nowMs-*c.NextReviewAt) * time.Millisecond,
		})
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].Overdue != due[j].Overdue {
			return due[i].Overdue > due[j].Overdue
		}
		if due[i].Completion.LevelID != due[j].Completion.LevelID {
			return due[i].Completion.LevelID < due[j].Completion.LevelID
		}
		return due[i].Completion.LessonID < due[j].Completion.LessonID
	})
	return due
}
