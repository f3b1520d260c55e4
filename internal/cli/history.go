package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/recall/internal/app"
	sr "github.com/example/recall/internal/spaced_repetition"
	"github.com/example/recall/pkg/models"
)

func newHistoryCommand() *cobra.Command {
	var itemID int64
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the review log of an item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return printHistory(ctx, a, cmd.OutOrStdout(), itemID)
			})
		},
	}
	cmd.Flags().Int64Var(&itemID, "item", 0, "item ID")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func printHistory(ctx context.Context, a *app.App, out io.Writer, itemID int64) error {
	item, err := a.Items.GetByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("item %d: %w", itemID, err)
	}
	logs, err := a.ReviewLogs.ListByItem(ctx, itemID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s → %s\n", item.Front, item.Back)
	if len(logs) == 0 {
		fmt.Fprintln(out, "No reviews yet")
		return nil
	}
	grades := make([]sr.Grade, 0, len(logs))
	for _, l := range logs {
		fmt.Fprintf(out, "%s  grade %d  interval %dd  rep %d  ease %.2f\n",
			l.ReviewedAt.UTC().Format(time.RFC3339), l.Grade, l.Interval, l.Repetition, l.EaseFactor)
		grades = append(grades, sr.Grade(l.Grade))
	}

	// Recompute from the log; a mismatch with the stored state means lost or extra writes
	replayed := a.SM2.Replay(models.NewLearningState(), grades)
	fmt.Fprintf(out, "Replayed: interval %dd  rep %d  ease %.2f\n",
		replayed.Interval, replayed.Repetition, replayed.EaseFactor)
	if st := item.State; st != nil &&
		(st.Interval != replayed.Interval || st.Repetition != replayed.Repetition) {
		fmt.Fprintf(out, "Stored:   interval %dd  rep %d  ease %.2f (differs from log)\n",
			st.Interval, st.Repetition, st.EaseFactor)
	}
	return nil
}
