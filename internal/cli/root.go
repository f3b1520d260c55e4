package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/example/recall/internal/app"
	"github.com/example/recall/internal/config"
)

// NewRootCommand builds the recall command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "recall",
		Short:         "Spaced-repetition flashcards with SM-2 scheduling",
		Version:       app.BuildVersion(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		newServeCommand(),
		newImportCommand(),
		newStatsCommand(),
		newReviewCommand(),
		newHistoryCommand(),
		newLearnerCommand(),
	)
	return root
}

// withApp loads configuration, wires the application and runs fn with it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a, err := app.New(cfg, app.NewLogger(cfg.Log))
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(cmd.Context(), a)
}
