package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/awwal/internal/ui/theme"
)

var completeCmd = &cobra.Command{
	Use:   "complete <level-id> <lesson-id>",
	Short: "Record a completed lesson",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var score *float64
		if s, _ := cmd.Flags().GetString("score"); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("invalid score %q: %w", s, err)
			}
			score = &v
		}

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		// Record locally before any network call.
		p := e.svc.CompleteLesson(cmd.Context(), args[0], args[1], score)
		if e.restore(cmd.Context()).IsAuthenticated {
			e.svc.Push(cmd.Context(), args[0], args[1])
		}

		fmt.Printf("%s %s / %s\n", theme.Ok.Render("✓"), args[0], args[1])
		fmt.Printf("%s %s\n", theme.Label.Render("Streak"), theme.Streak.Render(dayCount(p.StreakDays)))
		fmt.Printf("%s %d\n", theme.Label.Render("Lessons completed"), p.TotalLessonsCompleted)
		if e.svc.Session().IsAuthenticated {
			fmt.Println(theme.Hint.Render("Syncing with your account..."))
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <level-id> <lesson-id>",
	Short: "Check whether a lesson is completed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		if !e.svc.IsCompleted(args[0], args[1]) {
			fmt.Printf("%s %s / %s not completed\n", theme.Failed.Render("✗"), args[0], args[1])
			return nil
		}

		fmt.Printf("%s %s / %s completed\n", theme.Ok.Render("✓"), args[0], args[1])
		return nil
	},
}

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "List lessons due for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		due := e.svc.DueReviews()
		if len(due) == 0 {
			fmt.Println("Nothing due for review.")
			return nil
		}

		fmt.Printf("%-20s  %-20s  %-8s  %s\n", "Level", "Lesson", "Score", "Overdue")
		fmt.Println(strings.Repeat("─", 64))
		for _, d := range due {
			score := "-"
			if d.Completion.Score != nil {
				score = strconv.FormatFloat(*d.Completion.Score, 'f', -1, 64)
			}
			fmt.Printf("%-20s  %-20s  %-8s  %s\n",
				d.Completion.LevelID,
				d.Completion.LessonID,
				score,
				d.Overdue.Truncate(time.Minute),
			)
		}
		return nil
	},
}

func init() {
	completeCmd.Flags().String("score", "", "Score for the attempt (optional)")
}

func dayCount(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
