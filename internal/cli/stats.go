package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/recall/internal/app"
	"github.com/example/recall/pkg/models"
)

type statsReport struct {
	LearnerID    int64                  `json:"learner_id"`
	CollectionID int64                  `json:"collection_id,omitempty"`
	Stats        models.CollectionStats `json:"stats"`
	ReviewsToday int                    `json:"reviews_today"`
}

func newStatsCommand() *cobra.Command {
	var (
		learnerID, collectionID int64
		asJSON                  bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show mastery and due counts for a learner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return printStats(ctx, a, cmd.OutOrStdout(), learnerID, collectionID, asJSON)
			})
		},
	}
	cmd.Flags().Int64Var(&learnerID, "learner", 0, "learner ID")
	cmd.Flags().Int64Var(&collectionID, "collection", 0, "collection ID (default: all collections)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("learner")
	return cmd
}

func printStats(ctx context.Context, a *app.App, out io.Writer, learnerID, collectionID int64, asJSON bool) error {
	stats, err := a.Study.Stats(ctx, learnerID, collectionID)
	if err != nil {
		return err
	}

	now := a.SM2.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	today, err := a.ReviewLogs.CountSince(ctx, learnerID, dayStart)
	if err != nil {
		return err
	}

	report := statsReport{
		LearnerID:    learnerID,
		CollectionID: collectionID,
		Stats:        stats,
		ReviewsToday: today,
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(out, "Items:         %d\n", stats.TotalItems)
	fmt.Fprintf(out, "Due now:       %d\n", stats.DueCount)
	fmt.Fprintf(out, "Reviewed:      %d\n", stats.ReviewedCount)
	fmt.Fprintf(out, "Mastered:      %d\n", stats.MasteredCount)
	fmt.Fprintf(out, "Mean ease:     %.2f\n", stats.MeanEaseFactor)
	fmt.Fprintf(out, "Mastery:       %s\n", stats.MasteryLevel)
	fmt.Fprintf(out, "Reviews today: %d\n", today)
	return nil
}
