package progress

// Merge combines a local record with one fetched from the learner's
// account into a single canonical record.
//
// Lessons are the union of both sides. On a key collision the local entry
// is kept. The streak is the larger of the two, the last activity date
// comes from remote unless remote has none, and weak areas come from
// local. Merging the result again with the same remote record changes
// nothing.
func Merge(local, remote LearnerProgress) LearnerProgress {
	combined := make([]LessonCompletion, 0, len(local.LessonProgress)+len(remote.LessonProgress))
	seen := make(map[lessonKey]bool, cap(combined))

	for _, c := range local.LessonProgress {
		combined = append(combined, c)
		seen[keyOf(c)] = true
	}
	for _, c := range remote.LessonProgress {
		k := keyOf(c)
		if seen[k] {
			continue
		}
		combined = append(combined, c)
		seen[k] = true
	}

	lastActivity := remote.LastActivityDate
	if lastActivity == "" {
		lastActivity = local.LastActivityDate
	}

	weak := make([]WeakArea, len(local.WeakAreas))
	copy(weak, local.WeakAreas)

	return LearnerProgress{
		LessonProgress:        combined,
		WeakAreas:             weak,
		StreakDays:            max(local.StreakDays, remote.StreakDays),
		LastActivityDate:      lastActivity,
		TotalLessonsCompleted: len(combined),
	}
}
