package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/example/recall/internal/app"
	"github.com/example/recall/pkg/models"
)

func newLearnerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learner",
		Short: "Manage learners",
	}
	cmd.AddCommand(newLearnerAddCommand())
	return cmd
}

func newLearnerAddCommand() *cobra.Command {
	l := models.Learner{NotificationEnabled: true}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a learner and print its ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return addLearner(ctx, a, cmd.OutOrStdout(), &l)
			})
		},
	}

	cmd.Flags().StringVar(&l.Name, "name", "", "learner name")
	cmd.Flags().Int64Var(&l.TelegramChatID, "chat-id", 0, "Telegram chat ID for reminders")
	cmd.Flags().IntVar(&l.NotificationHour, "hour", 9, "UTC hour of day for reminders (0-23)")
	cmd.Flags().IntVar(&l.ItemsPerDay, "per-day", 20, "maximum items announced per reminder")
	cmd.Flags().BoolVar(&l.NotificationEnabled, "notify", true, "send reminders")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func addLearner(ctx context.Context, a *app.App, out io.Writer, l *models.Learner) error {
	if l.NotificationHour < 0 || l.NotificationHour > 23 {
		return fmt.Errorf("hour must be in 0..23, got %d", l.NotificationHour)
	}
	if err := a.Learners.Create(ctx, l); err != nil {
		return err
	}
	fmt.Fprintf(out, "Created learner %q with ID %d\n", l.Name, l.ID)
	return nil
}
