package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	langopts "github.com/goliatone/go-langopts"
	"github.com/goliatone/go-langopts/pkg/activity"
	"github.com/goliatone/go-langopts/watcher"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload settings files on change and report the effective languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(opts.settings) == 0 {
				return fmt.Errorf("watch requires at least one --settings file")
			}
			log := opts.log()
			out := cmd.OutOrStdout()

			report := activity.HookFunc(func(_ context.Context, event activity.Event) error {
				log.Info("settings activity",
					zap.String("verb", event.Verb),
					zap.String("object_id", event.ObjectID),
					zap.String("channel", event.Channel),
					zap.Strings("languages", event.Languages),
				)
				return nil
			})
			resolver := langopts.NewResolver(opts.resolverOptions(
				langopts.WithActivityHooks(activity.Hooks{report}),
			)...)

			paths := append([]string(nil), opts.settings...)
			if opts.defaults != "" {
				paths = append(paths, opts.defaults)
			}
			settingsLoader := opts.loader()
			w, err := watcher.New(watcher.Config{
				Paths:  paths,
				Logger: log,
				Load: func() (langopts.Snapshot, error) {
					return settingsLoader.Load(opts.settings...)
				},
			}, func(snapshot langopts.Snapshot) error {
				resolver.Update(snapshot)
				fmt.Fprintf(out, "languages: %v\n", resolver.SupportedLanguages())
				return nil
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := w.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			return w.Stop()
		},
	}
}
