package cmd

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/awwal/internal/progress"
	"github.com/abhisek/awwal/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		fmt.Println(renderStats(e.svc.Stats()))
		return nil
	},
}

// renderStats lays out a summary card followed by one bar per level.
func renderStats(s progress.Stats) string {
	last := s.LastActivityDate
	if last == "" {
		last = "never"
	}

	rows := []string{
		theme.Title.Render("Your progress"),
		"",
		theme.Label.Render("Streak") + theme.Streak.Render(dayCount(s.StreakDays)),
		theme.Label.Render("Lessons completed") + theme.Value.Render(fmt.Sprint(s.TotalLessonsCompleted)),
		theme.Label.Render("Last activity") + theme.Value.Render(last),
	}

	if len(s.Levels) > 0 {
		rows = append(rows, "")
		most := 0
		for _, l := range s.Levels {
			most = max(most, l.Completed)
		}
		for _, l := range s.Levels {
			rows = append(rows, theme.Label.Render(l.LevelID)+levelBar(l.Completed, most, 20))
		}
	} else {
		rows = append(rows, "", theme.Hint.Render("No lessons completed yet."))
	}

	return theme.Card.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// levelBar scales n against the busiest level.
func levelBar(n, most, width int) string {
	filled := width
	if most > 0 {
		filled = n * width / most
	}
	filled = max(filled, 1)
	return theme.Bar.Render(strings.Repeat("█", filled)) + fmt.Sprintf(" %d", n)
}
