package remote

import "github.com/abhisek/awwal/internal/progress"

// RemoteScore is assigned to every server-sourced completion because the
// progress endpoint does not return per-lesson scores.
const RemoteScore = 100.0

// ToLearnerProgress converts the server's progress shape into a record
// that can be merged with local progress. Weak areas are never sent by the
// server and come back empty.
func (r *ProgressResponse) ToLearnerProgress() progress.LearnerProgress {
	p := progress.Default()
	if r == nil {
		return p
	}

	lessons := make([]progress.LessonCompletion, 0, len(r.Progress))
	for _, rc := range r.Progress {
		score := RemoteScore
		c := progress.LessonCompletion{
			LevelID:  rc.LevelID,
			LessonID: rc.LessonID,
			Score:    &score,
		}
		if !rc.CompletedAt.IsZero() {
			c.CompletedAt = rc.CompletedAt.UnixMilli()
		}
		lessons = append(lessons, c)
	}
	p.LessonProgress = lessons

	if r.Stats != nil {
		p.StreakDays = max(r.Stats.StreakDays, 0)
		p.TotalLessonsCompleted = max(r.Stats.TotalLessonsCompleted, 0)
		if !r.Stats.LastActivityDate.IsZero() {
			p.LastActivityDate = progress.Day(r.Stats.LastActivityDate.UTC())
		}
	}
	return p
}
