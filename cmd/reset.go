package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/awwal/internal/progress"
	"github.com/abhisek/awwal/internal/store"
)

// snapshotsKept bounds how many pre-reset snapshots are retained.
const snapshotsKept = 5

var errNoSnapshot = errors.New("no snapshot to restore")

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset learner data on this machine",
	Long: "Clears the progress stored on this machine. A snapshot is taken first, " +
		"so `awwal reset --undo` can bring it back. Your account is not touched.",
	RunE: func(cmd *cobra.Command, args []string) error {
		undo, _ := cmd.Flags().GetBool("undo")

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		snaps := e.store.SnapshotRepo()

		if undo {
			snap, err := snaps.Latest(ctx)
			if err != nil {
				return err
			}
			if snap == nil {
				return errNoSnapshot
			}
			if err := progress.SaveProgress(ctx, e.store.KV(), snap.Data.Progress); err != nil {
				return fmt.Errorf("restore snapshot: %w", err)
			}
			fmt.Printf("Restored %d lessons from %s.\n",
				snap.Data.Progress.TotalLessonsCompleted,
				snap.Timestamp.Local().Format("2006-01-02 15:04"))
			return nil
		}

		seq, err := e.store.NextSequence(ctx)
		if err != nil {
			return err
		}
		err = snaps.Save(ctx, &store.Snapshot{
			Sequence: seq,
			Reason:   "reset",
			Data:     store.SnapshotData{Version: 1, Progress: e.svc.Progress()},
		})
		if err != nil {
			return err
		}
		if err := snaps.Prune(ctx, snapshotsKept); err != nil {
			e.logger.Warn("prune snapshots", zap.Error(err))
		}

		if err := progress.ClearProgress(ctx, e.store.KV()); err != nil {
			return fmt.Errorf("clear progress: %w", err)
		}
		fmt.Println("Local progress cleared. Run `awwal reset --undo` to bring it back.")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("undo", false, "Restore the progress saved by the last reset")
}
