package progress

import "sort"

// Stats aggregates a record for display.
type Stats struct {
	StreakDays            int
	TotalLessonsCompleted int
	LastActivityDate      string
	Levels                []LevelStats // sorted by LevelID
}

// LevelStats counts completions within one level.
type LevelStats struct {
	LevelID   string
	Completed int
}

// Summarize computes aggregate statistics for p.
func Summarize(p LearnerProgress) Stats {
	counts := make(map[string]int)
	for _, c := range p.LessonProgress {
		counts[c.LevelID]++
	}

	levels := make([]LevelStats, 0, len(counts))
	for id, n := range counts {
		levels = append(levels, LevelStats{LevelID: id, Completed: n})
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].LevelID < levels[j].LevelID })

	return Stats{
		StreakDays:            p.StreakDays,
		TotalLessonsCompleted: len(p.LessonProgress),
		LastActivityDate:      p.LastActivityDate,
		Levels:                levels,
	}
}
