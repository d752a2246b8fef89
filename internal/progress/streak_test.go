package progress

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

func scorePtr(v float64) *float64 { return &v }

func TestUpdateStreak(t *testing.T) {
	tests := []struct {
		name       string
		streak     int
		last       string
		wantStreak int
		wantTotal  int
	}{
		{"never active", 0, "", 1, 1},
		{"active yesterday", 5, "2026-03-14", 6, 1},
		{"active today", 3, "2026-03-15", 3, 0},
		{"gap of two days", 9, "2026-03-13", 1, 1},
		{"long gap", 9, "2020-01-01", 1, 1},
		{"date in the future", 4, "2026-03-16", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			p.StreakDays = tt.streak
			p.LastActivityDate = tt.last

			got := UpdateStreak(p, testNow)
			if got.StreakDays != tt.wantStreak {
				t.Errorf("StreakDays = %d, want %d", got.StreakDays, tt.wantStreak)
			}
			if got.LastActivityDate != "2026-03-15" {
				t.Errorf("LastActivityDate = %q, want %q", got.LastActivityDate, "2026-03-15")
			}
			if got.TotalLessonsCompleted != tt.wantTotal {
				t.Errorf("TotalLessonsCompleted = %d, want %d", got.TotalLessonsCompleted, tt.wantTotal)
			}
		})
	}
}

func TestUpdateStreak_UsesLocationOfNow(t *testing.T) {
	// 23:30 UTC on the 14th is already the 15th in Tokyo.
	tokyo := time.FixedZone("JST", 9*60*60)
	now := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)

	p := Default()
	p.StreakDays = 2
	p.LastActivityDate = "2026-03-14"

	if got := UpdateStreak(p, now); got.StreakDays != 2 {
		t.Errorf("UTC: StreakDays = %d, want 2 (same day)", got.StreakDays)
	}
	if got := UpdateStreak(p, now.In(tokyo)); got.StreakDays != 3 {
		t.Errorf("JST: StreakDays = %d, want 3 (next day)", got.StreakDays)
	}
}

func TestUpdateStreak_MonthBoundary(t *testing.T) {
	p := Default()
	p.StreakDays = 7
	p.LastActivityDate = "2026-02-28"

	got := UpdateStreak(p, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	if got.StreakDays != 8 {
		t.Errorf("StreakDays = %d, want 8", got.StreakDays)
	}
}

func TestRecordLessonComplete_SameDayDoesNotInflateStreak(t *testing.T) {
	p := Default()

	p = RecordLessonComplete(p, "level-1", "lesson-a", nil, testNow)
	if p.StreakDays != 1 {
		t.Fatalf("after first completion StreakDays = %d, want 1", p.StreakDays)
	}
	if p.LastActivityDate != "2026-03-15" {
		t.Fatalf("LastActivityDate = %q, want 2026-03-15", p.LastActivityDate)
	}

	p = RecordLessonComplete(p, "level-1", "lesson-b", nil, testNow.Add(time.Hour))
	p = RecordLessonComplete(p, "level-2", "lesson-c", nil, testNow.Add(2*time.Hour))
	if p.StreakDays != 1 {
		t.Errorf("after same-day completions StreakDays = %d, want 1", p.StreakDays)
	}
}

func TestRecordLessonComplete_ContinuesStreak(t *testing.T) {
	p := Default()
	p.StreakDays = 5
	p.LastActivityDate = "2026-03-14"

	p = RecordLessonComplete(p, "level-1", "lesson-a", nil, testNow)
	if p.StreakDays != 6 {
		t.Errorf("StreakDays = %d, want 6", p.StreakDays)
	}
	if p.LastActivityDate != "2026-03-15" {
		t.Errorf("LastActivityDate = %q, want 2026-03-15", p.LastActivityDate)
	}
}

func TestRecordLessonComplete_ResetsStreak(t *testing.T) {
	p := Default()
	p.StreakDays = 9
	p.LastActivityDate = "2020-01-01"

	p = RecordLessonComplete(p, "level-1", "lesson-a", nil, testNow)
	if p.StreakDays != 1 {
		t.Errorf("StreakDays = %d, want 1", p.StreakDays)
	}
}

func TestRecordLessonComplete_ReplacesExistingEntry(t *testing.T) {
	p := Default()
	p = RecordLessonComplete(p, "level-1", "lesson-a", scorePtr(60), testNow)
	p = RecordLessonComplete(p, "level-1", "lesson-b", nil, testNow)

	later := testNow.Add(3 * time.Hour)
	p = RecordLessonComplete(p, "level-1", "lesson-a", scorePtr(95), later)

	var matches []LessonCompletion
	for _, c := range p.LessonProgress {
		if c.Matches("level-1", "lesson-a") {
			matches = append(matches, c)
		}
	}
	if len(matches) != 1 {
		t.Fatalf("found %d entries for level-1/lesson-a, want 1", len(matches))
	}

	c := matches[0]
	if c.CompletedAt != later.UnixMilli() {
		t.Errorf("CompletedAt = %d, want %d", c.CompletedAt, later.UnixMilli())
	}
	if c.NextReviewAt == nil || *c.NextReviewAt != later.Add(24*time.Hour).UnixMilli() {
		t.Errorf("NextReviewAt = %v, want %d", c.NextReviewAt, later.Add(24*time.Hour).UnixMilli())
	}
	if c.Score == nil || *c.Score != 95 {
		t.Errorf("Score = %v, want 95", c.Score)
	}
	if len(p.LessonProgress) != 2 {
		t.Errorf("len(LessonProgress) = %d, want 2", len(p.LessonProgress))
	}
}

func TestRecordLessonComplete_ScoreOverwrittenWithNil(t *testing.T) {
	p := RecordLessonComplete(Default(), "l", "a", scorePtr(80), testNow)
	p = RecordLessonComplete(p, "l", "a", nil, testNow)

	c, ok := Completion(p, "l", "a")
	if !ok {
		t.Fatal("completion missing")
	}
	if c.Score != nil {
		t.Errorf("Score = %v, want nil", *c.Score)
	}
}

func TestRecordLessonComplete_TotalMatchesLength(t *testing.T) {
	p := Default()
	// A stale total from an older record must not leak through.
	p.TotalLessonsCompleted = 42
	p.LastActivityDate = "2026-03-14"

	steps := []struct{ level, lesson string }{
		{"level-1", "a"}, {"level-1", "b"}, {"level-1", "a"},
		{"level-2", "a"}, {"level-2", "a"}, {"level-3", "z"},
	}
	for i, s := range steps {
		p = RecordLessonComplete(p, s.level, s.lesson, nil, testNow.Add(time.Duration(i)*time.Minute))
		if p.TotalLessonsCompleted != len(p.LessonProgress) {
			t.Fatalf("step %d: TotalLessonsCompleted = %d, len = %d", i, p.TotalLessonsCompleted, len(p.LessonProgress))
		}
	}
	if p.TotalLessonsCompleted != 4 {
		t.Errorf("TotalLessonsCompleted = %d, want 4", p.TotalLessonsCompleted)
	}
}

func TestRecordLessonComplete_DoesNotMutateInput(t *testing.T) {
	base := RecordLessonComplete(Default(), "level-1", "a", scorePtr(50), testNow)
	base = RecordLessonComplete(base, "level-1", "b", nil, testNow)
	before := base.LessonProgress[0]

	_ = RecordLessonComplete(base, "level-1", "a", scorePtr(99), testNow.Add(time.Hour))

	if base.LessonProgress[0] != before {
		t.Error("input record was modified")
	}
	if len(base.LessonProgress) != 2 {
		t.Errorf("input len = %d, want 2", len(base.LessonProgress))
	}
}

func TestRecordLessonComplete_CopiesScore(t *testing.T) {
	score := 70.0
	p := RecordLessonComplete(Default(), "l", "a", &score, testNow)
	score = 10

	c, _ := Completion(p, "l", "a")
	if *c.Score != 70 {
		t.Errorf("Score = %v, want 70", *c.Score)
	}
}

func TestIsLessonCompleted(t *testing.T) {
	p := RecordLessonComplete(Default(), "level-1", "lesson-a", nil, testNow)

	tests := []struct {
		level, lesson string
		want          bool
	}{
		{"level-1", "lesson-a", true},
		{"level-1", "lesson-b", false},
		{"level-2", "lesson-a", false},
		{"Level-1", "lesson-a", false},
		{"level-1", "Lesson-A", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := IsLessonCompleted(p, tt.level, tt.lesson); got != tt.want {
			t.Errorf("IsLessonCompleted(%q, %q) = %v, want %v", tt.level, tt.lesson, got, tt.want)
		}
	}

	if IsLessonCompleted(Default(), "level-1", "lesson-a") {
		t.Error("default record reports a completion")
	}
}
