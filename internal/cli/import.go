package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/example/recall/internal/app"
	"github.com/example/recall/internal/excel"
)

func newImportCommand() *cobra.Command {
	var learnerID int64
	cfg := excel.DefaultImportConfig()

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import items from an .xlsx or .csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.FilePath = args[0]
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return importItems(ctx, a, cmd.OutOrStdout(), learnerID, cfg)
			})
		},
	}

	cmd.Flags().Int64Var(&learnerID, "learner", 0, "learner ID")
	cmd.Flags().StringVar(&cfg.SheetName, "sheet", "", "sheet to import (default: first sheet)")
	cmd.Flags().StringVar(&cfg.FrontColumn, "front", cfg.FrontColumn, "column with the prompt")
	cmd.Flags().StringVar(&cfg.BackColumn, "back", cfg.BackColumn, "column with the answer")
	cmd.Flags().StringVar(&cfg.CollectionColumn, "collection-column", cfg.CollectionColumn, "column with the collection name, empty for none")
	cmd.Flags().StringVar(&cfg.DefaultCollection, "collection", cfg.DefaultCollection, "collection for rows without one")
	cmd.Flags().IntVar(&cfg.StartRow, "start-row", cfg.StartRow, "first row to import (1-based)")
	_ = cmd.MarkFlagRequired("learner")
	return cmd
}

func importItems(ctx context.Context, a *app.App, out io.Writer, learnerID int64, cfg excel.ImportConfig) error {
	if _, err := a.Learners.GetByID(ctx, learnerID); err != nil {
		return fmt.Errorf("learner %d: %w", learnerID, err)
	}

	res, err := a.Importer.Import(ctx, learnerID, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Processed %d rows: %d created, %d skipped, %d collections created\n",
		res.TotalProcessed, res.Created, res.Skipped, res.CollectionsCreated)
	for _, e := range res.Errors {
		fmt.Fprintln(out, "  "+e)
	}
	return nil
}
