package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/example/recall/internal/app"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reminder daemon until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, serve)
		},
	}
}

func serve(ctx context.Context, a *app.App) error {
	a.Log.Info("starting recall", slog.String("version", app.BuildVersion()))

	if !a.Config.Reminder.Enabled {
		a.Log.Info("reminder scheduler disabled (ENABLE_SCHEDULER=false)")
		<-ctx.Done()
		return nil
	}

	notifier, err := a.Notifier()
	if err != nil {
		return err
	}

	s := a.NewReminderScheduler(notifier)
	if err := s.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	a.Log.Info("shutting down")
	s.Stop()
	return nil
}
