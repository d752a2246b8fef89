package progress

// LessonCompletion records that a lesson within a level was finished.
// LevelID and LessonID together form the natural key.
type LessonCompletion struct {
	LessonID     string   `json:"lessonId"`
	LevelID      string   `json:"levelId"`
	CompletedAt  int64    `json:"completedAt"`            // ms since epoch
	Score        *float64 `json:"score,omitempty"`        // last recorded score, not validated
	NextReviewAt *int64   `json:"nextReviewAt,omitempty"` // advisory review hint, ms since epoch
}

// Matches reports whether the completion belongs to the given lesson.
// Comparison is exact and case-sensitive.
func (c LessonCompletion) Matches(levelID, lessonID string) bool {
	return c.LevelID == levelID && c.LessonID == lessonID
}

// WeakArea is carried through load, save and merge untouched.
type WeakArea struct {
	TopicID     string `json:"topicId"`
	TopicLabel  string `json:"topicLabel"`
	MissCount   int    `json:"missCount"`
	LastAttempt int64  `json:"lastAttempt"`
}

// LearnerProgress is the single persisted and transmitted progress record.
// Values are treated as immutable: every operation in this package returns
// a fresh record and never writes into the slices of its input.
type LearnerProgress struct {
	LessonProgress        []LessonCompletion `json:"lessonProgress"`
	WeakAreas             []WeakArea         `json:"weakAreas"`
	StreakDays            int                `json:"streakDays"`
	LastActivityDate      string             `json:"lastActivityDate"` // YYYY-MM-DD, "" for never
	TotalLessonsCompleted int                `json:"totalLessonsCompleted"`
}

// Default returns the all-empty record used when nothing is persisted.
func Default() LearnerProgress {
	return LearnerProgress{
		LessonProgress: []LessonCompletion{},
		WeakAreas:      []WeakArea{},
	}
}

// IsLessonCompleted reports whether p holds a completion for the lesson.
func IsLessonCompleted(p LearnerProgress, levelID, lessonID string) bool {
	for _, c := range p.LessonProgress {
		if c.Matches(levelID, lessonID) {
			return true
		}
	}
	return false
}

// Completion returns the completion entry for the lesson, if any.
func Completion(p LearnerProgress, levelID, lessonID string) (LessonCompletion, bool) {
	for _, c := range p.LessonProgress {
		if c.Matches(levelID, lessonID) {
			return c, true
		}
	}
	return LessonCompletion{}, false
}

type lessonKey struct {
	levelID  string
	lessonID string
}

func keyOf(c LessonCompletion) lessonKey {
	return lessonKey{levelID: c.LevelID, lessonID: c.LessonID}
}

// normalize replaces nil slices so the record always serializes as arrays,
// and derives TotalLessonsCompleted from the completion list.
func normalize(p LearnerProgress) LearnerProgress {
	if p.LessonProgress == nil {
		p.LessonProgress = []LessonCompletion{}
	}
	if p.WeakAreas == nil {
		p.WeakAreas = []WeakArea{}
	}
	p.TotalLessonsCompleted = len(p.LessonProgress)
	return p
}
