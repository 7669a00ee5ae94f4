// Command leadwatch renders live leads from the leads API in a terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"basegraph.app/leads/common/id"
	"basegraph.app/leads/common/logger"
	"basegraph.app/leads/core/config"
	"basegraph.app/leads/internal/leadsclient"
	"basegraph.app/leads/internal/viewsync"
)

var (
	apiURL    string
	highlight time.Duration
	verbose   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "leadwatch",
		Short:         "Watch leads change in real time",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("api") {
				apiURL = cfg.APIURL
			}
			if !cmd.Flags().Changed("highlight") {
				highlight = cfg.HighlightFor
			}

			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(logger.NewTraceHandler(
				slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
			)))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Leads API base URL (default $LEADS_API_URL)")
	rootCmd.PersistentFlags().DurationVar(&highlight, "highlight", 0, "How long a change stays highlighted (default $LEADWATCH_HIGHLIGHT)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log reconnects and stream activity to stderr")

	rootCmd.AddCommand(listCmd(), leadCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every lead, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := leadsclient.New(apiURL)
			if err != nil {
				return err
			}

			redraw := make(chan struct{}, 1)
			view := viewsync.NewListView(client, viewOptions(redraw))
			return watch(cmd.Context(), cmd.OutOrStdout(), view.Run, redraw, func(w io.Writer) {
				renderList(w, view.Snapshot(), view.JustUpdated())
			})
		},
	}
}

func leadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lead <id>",
		Short: "Show one lead and its conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			leadID, err := id.Parse(args[0])
			if err != nil {
				return err
			}
			client, err := leadsclient.New(apiURL)
			if err != nil {
				return err
			}

			redraw := make(chan struct{}, 1)
			view := viewsync.NewDetailView(client, leadID, viewOptions(redraw))
			err = watch(cmd.Context(), cmd.OutOrStdout(), view.Run, redraw, func(w io.Writer) {
				lead, messages, ok := view.Snapshot()
				renderDetail(w, lead, messages, ok, view.JustUpdated())
			})
			if errors.Is(err, viewsync.ErrNotFound) {
				return fmt.Errorf("lead %s not found", args[0])
			}
			return err
		},
	}
}

func viewOptions(redraw chan struct{}) viewsync.Options {
	return viewsync.Options{
		HighlightFor: highlight,
		OnChange: func() {
			select {
			case redraw <- struct{}{}:
			default:
			}
		},
	}
}

// watch runs the view and redraws the screen whenever it signals a change.
func watch(ctx context.Context, w io.Writer, run func(context.Context) error, redraw <-chan struct{}, render func(io.Writer)) error {
	errc := make(chan error, 1)
	go func() { errc <- run(ctx) }()

	for {
		select {
		case err := <-errc:
			return err
		case <-redraw:
			fmt.Fprint(w, clearScreen)
			render(w)
		}
	}
}
