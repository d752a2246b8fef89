package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/awwal/internal/store"
	"github.com/abhisek/awwal/internal/tracker"
	"github.com/abhisek/awwal/internal/ui/theme"
)

var errSignedOut = errors.New("not signed in: run `awwal login` first")

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge your account's progress into this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, true)
		if err != nil {
			return err
		}
		defer e.Close()

		if !e.svc.Session().IsAuthenticated {
			return errSignedOut
		}

		// Restore already started a reconcile; let it land first.
		e.svc.Wait()
		printSynced(e.svc.Stats().TotalLessonsCompleted, e.svc.Stats().StreakDays)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep merging your account's progress until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := openEnv(cmd, true)
		if err != nil {
			return err
		}
		defer e.Close()

		if !e.svc.Session().IsAuthenticated {
			return errSignedOut
		}

		interval, _ := cmd.Flags().GetDuration("interval")
		if interval <= 0 {
			interval = e.config.AutoSyncInterval
		}

		auto := tracker.NewAutoSync(e.svc, interval)
		if err := auto.Start(ctx); err != nil {
			return err
		}
		fmt.Printf("Syncing every %s. Press Ctrl+C to stop.\n", interval)

		<-ctx.Done()
		auto.Stop()
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		failed, _ := cmd.Flags().GetBool("failed")

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		events, err := e.store.SyncEventRepo().QuerySyncEvents(cmd.Context(), store.QueryOpts{
			Limit:      limit,
			FailedOnly: failed,
		})
		if err != nil {
			return fmt.Errorf("query sync events: %w", err)
		}

		if len(events) == 0 {
			fmt.Println("No sync attempts recorded.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-8s  %-28s  %-2s  %s\n",
			"Seq", "Timestamp", "Kind", "Lesson", "OK", "Error")
		fmt.Println(strings.Repeat("─", 90))

		for _, ev := range events {
			ok := theme.Ok.Render("✓")
			if !ev.Success {
				ok = theme.Failed.Render("✗")
			}
			lesson := "-"
			if ev.LevelID != "" {
				lesson = ev.LevelID + "/" + ev.LessonID
			}
			lesson = clip(lesson, 28)
			fmt.Printf("%-5d  %-19s  %-8s  %-28s  %s   %s\n",
				ev.Sequence,
				ev.Timestamp.Local().Format("2006-01-02 15:04:05"),
				ev.Kind,
				lesson,
				ok,
				ev.ErrorMessage,
			)
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().Duration("interval", 0, "Time between syncs (overrides AWWAL_SYNC_INTERVAL env var)")

	historyCmd.Flags().Int("limit", 20, "Maximum number of events to show")
	historyCmd.Flags().Bool("failed", false, "Only show failed attempts")
}

// clip shortens s to at most n runes.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
