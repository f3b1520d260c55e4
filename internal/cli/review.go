package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/recall/internal/app"
	"github.com/example/recall/internal/session"
	sr "github.com/example/recall/internal/spaced_repetition"
	"github.com/example/recall/internal/study"
	"github.com/example/recall/pkg/models"
)

func newReviewCommand() *cobra.Command {
	var learnerID, collectionID int64
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review due items in the terminal",
		Long: "Review due items one at a time. Press Enter to reveal the answer,\n" +
			"then grade your recall from 0 (blackout) to 5 (perfect). Type q to stop.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return runReview(ctx, a.Study, cmd.InOrStdin(), cmd.OutOrStdout(), learnerID, collectionID)
			})
		},
	}
	cmd.Flags().Int64Var(&learnerID, "learner", 0, "learner ID")
	cmd.Flags().Int64Var(&collectionID, "collection", 0, "collection ID (default: all collections)")
	_ = cmd.MarkFlagRequired("learner")
	return cmd
}

var errQuit = errors.New("quit")

// runReview drives one session from line-oriented input.
func runReview(ctx context.Context, svc *study.Service, in io.Reader, out io.Writer, learnerID, collectionID int64) error {
	sess, err := svc.StartSession(ctx, learnerID, collectionID)
	if err != nil {
		return err
	}

	lines := bufio.NewScanner(in)
	readLine := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return "", err
			}
			return "", errQuit
		}
		line := strings.TrimSpace(lines.Text())
		if strings.EqualFold(line, "q") {
			return "", errQuit
		}
		return line, nil
	}

	for sess.State() != session.Complete {
		err := reviewItem(ctx, svc, out, readLine, learnerID, collectionID)
		if errors.Is(err, errQuit) {
			left := sess.Remaining()
			abandonErr := svc.Abandon(ctx, learnerID, collectionID)
			fmt.Fprintf(out, "\nStopped with %d item(s) left.\n", left)
			if abandonErr != nil {
				fmt.Fprintln(out, "Some reviews could not be saved.")
			}
			return abandonErr
		}
		if err != nil {
			return err
		}
	}

	sum := sess.Summary()
	if sum.Graded == 0 {
		fmt.Fprintln(out, "Nothing is due. Come back later!")
		return nil
	}
	fmt.Fprintf(out, "\nSession complete: %d reviewed, %d correct, %d lapses.\n", sum.Graded, sum.Correct, sum.Lapses)
	return flushPending(ctx, svc, out, learnerID, collectionID)
}

func reviewItem(ctx context.Context, svc *study.Service, out io.Writer, readLine func(string) (string, error), learnerID, collectionID int64) error {
	item, err := svc.Current(learnerID, collectionID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nQ: %s\n", item.Front)
	if _, err := readLine("[Enter] reveal, q quit > "); err != nil {
		return err
	}
	if err := svc.Reveal(learnerID, collectionID); err != nil {
		return err
	}
	fmt.Fprintf(out, "A: %s\n", item.Back)

	preview, err := svc.Preview(learnerID, collectionID)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, previewLine(preview))

	for {
		line, err := readLine("Grade 0-5 > ")
		if err != nil {
			return err
		}
		g, err := sr.ParseGrade(line)
		if err != nil {
			fmt.Fprintln(out, "Enter a number from 0 (blackout) to 5 (perfect).")
			continue
		}

		res, err := svc.Grade(ctx, learnerID, collectionID, g)
		if errors.Is(err, session.ErrPersistence) {
			fmt.Fprintln(out, "Warning: progress not saved yet, will retry.")
			err = nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Next review in %d day(s).\n", res.Update.Next.Interval)
		return nil
	}
}

func flushPending(ctx context.Context, svc *study.Service, out io.Writer, learnerID, collectionID int64) error {
	err := svc.RetryPending(ctx, learnerID, collectionID)
	if errors.Is(err, study.ErrNoSession) {
		return nil
	}
	if err != nil {
		fmt.Fprintln(out, "Some reviews could not be saved.")
	}
	return err
}

// previewLine shows the interval each grade would schedule, e.g. "Next in: 0→1d 1→1d ... 5→6d".
func previewLine(preview map[sr.Grade]models.LearningState) string {
	var b strings.Builder
	b.WriteString("Next in:")
	for _, g := range sr.Grades {
		fmt.Fprintf(&b, " %d→%dd", int(g), preview[g].Interval)
	}
	return b.String()
}
