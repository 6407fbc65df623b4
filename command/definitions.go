package command

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"kunena-discord/bot"
	"kunena-discord/grpc"
	"kunena-discord/metrics"

	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServeCommand runs the notifier until interrupted.
type ServeCommand struct{}

// Definition returns the serve command.
func (c *ServeCommand) Definition(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the detection proxy, scheduler and ops endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			b, err := bot.NewBot(rt.Config, rt.Log)
			if err != nil {
				return err
			}
			defer b.Close()

			rt.Log.Info().Msg("notifier is now running, press CTRL-C to exit")
			return b.Run(ctx)
		},
	}
}

// CheckCommand runs one detection pass and exits. Suited to an external cron.
type CheckCommand struct{}

// Definition returns the check command.
func (c *CheckCommand) Definition(rt *Runtime) *cobra.Command {
	var (
		window time.Duration
		limit  int
		latest bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Notify posts created within the recent window",
		Args:  cobra.NoArgs,
		Example: "  # Sweep the last five minutes\n" +
			"  " + os.Args[0] + " check --window 5m --limit 20",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := bot.NewBot(rt.Config, rt.Log)
			if err != nil {
				return err
			}
			defer b.Close()

			metrics.DetectionRunsTotal.WithLabelValues("cli").Inc()
			var n int
			if latest {
				n = b.Scanner.CheckLatest(cmd.Context())
			} else {
				n = b.Scanner.CheckRecent(cmd.Context(), window, limit)
			}
			fmt.Fprintf(rt.Out, "dispatched %d post(s)\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&window, "window", 30*time.Second, "How far back to look for posts")
	cmd.Flags().IntVar(&limit, "limit", 5, "Maximum number of posts to consider")
	cmd.Flags().BoolVar(&latest, "latest", false, "Only check the single newest post")
	return cmd
}

// NotifyCommand sends one post by ID, ignoring the processed set.
type NotifyCommand struct{}

// Definition returns the notify command.
func (c *NotifyCommand) Definition(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "notify <post-id>",
		Short: "Send a notification for one post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || postID <= 0 {
				return fmt.Errorf("invalid post id %q", args[0])
			}

			b, err := bot.NewBot(rt.Config, rt.Log)
			if err != nil {
				return err
			}
			defer b.Close()

			if err := b.Notify(cmd.Context(), postID); err != nil {
				return err
			}
			fmt.Fprintf(rt.Out, "post %d sent\n", postID)
			return nil
		},
	}
}

// HealthCommand queries a running notifier's gRPC health service.
type HealthCommand struct{}

// Definition returns the health command.
func (c *HealthCommand) Definition(rt *Runtime) *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe a running notifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = rt.Config.Ops.GRPCListen
			}
			if addr == "" {
				return fmt.Errorf("no address given and ops.grpc_listen is not set")
			}

			client, err := grpc.NewClient(addr, timeout)
			if err != nil {
				return err
			}
			defer client.Close()

			status, err := client.Check(cmd.Context())
			if err != nil {
				return fmt.Errorf("health check against %s failed: %w", addr, err)
			}
			fmt.Fprintln(rt.Out, status.String())
			if status != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("notifier at %s is not serving", addr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "gRPC address (default ops.grpc_listen)")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "Request timeout")
	return cmd
}
