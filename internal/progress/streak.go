package progress

import "time"

// DateLayout is the calendar-day format of LastActivityDate.
const DateLayout = "2006-01-02"

// ReviewInterval is the delay between a completion and its review hint.
const ReviewInterval = 24 * time.Hour

// Day formats t as a calendar day in t's own location.
func Day(t time.Time) string {
	return t.Format(DateLayout)
}

// UpdateStreak advances the daily streak for activity at now. The calendar
// day is taken in now's location, so callers control the time zone.
//
// Activity on the same day leaves p unchanged. Activity on the day after
// LastActivityDate extends the streak; anything else restarts it at 1.
func UpdateStreak(p LearnerProgress, now time.Time) LearnerProgress {
	today := Day(now)
	if p.LastActivityDate == today {
		return p
	}

	streak := 1
	if p.LastActivityDate == Day(now.AddDate(0, 0, -1)) {
		streak = p.StreakDays + 1
	}

	p.StreakDays = streak
	p.LastActivityDate = today
	// Superseded by the recount in RecordLessonComplete.
	p.TotalLessonsCompleted++
	return p
}

// RecordLessonComplete returns a new record with the lesson marked complete
// at now. An existing entry for the same lesson is replaced, so its
// CompletedAt and NextReviewAt advance and its score is overwritten.
func RecordLessonComplete(p LearnerProgress, levelID, lessonID string, score *float64, now time.Time) LearnerProgress {
	updated := UpdateStreak(p, now)

	lessons := make([]LessonCompletion, 0, len(updated.LessonProgress)+1)
	for _, c := range updated.LessonProgress {
		if c.Matches(levelID, lessonID) {
			continue
		}
		lessons = append(lessons, c)
	}

	completedAt := now.UnixMilli()
	nextReviewAt := now.Add(ReviewInterval).UnixMilli()
	lessons = append(lessons, LessonCompletion{
		LessonID:     lessonID,
		LevelID:      levelID,
		CompletedAt:  completedAt,
		Score:        copyScore(score),
		NextReviewAt: &nextReviewAt,
	})

	updated.LessonProgress = lessons
	updated.TotalLessonsCompleted = len(lessons)
	return normalize(updated)
}

func copyScore(score *float64) *float64 {
	if score == nil {
		return nil
	}
	s := *score
	return &s
}
