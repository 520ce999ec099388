package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"blogpilot/internal/app"
	"blogpilot/internal/config"
	"blogpilot/internal/domain"
	"blogpilot/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	root := &cobra.Command{
		Use:           "blogpilot",
		Short:         "Automated blog-content workflow engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var ruleID int64
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one workflow run for an automation rule",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			result, err := application.RunAutomationRule(cmd.Context(), ruleID)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))

			if result.Status == domain.WorkflowFailed {
				return fmt.Errorf("workflow %s failed", result.WorkflowID)
			}
			return nil
		},
	}
	runCmd.Flags().Int64Var(&ruleID, "rule", 0, "automation rule id")
	_ = runCmd.MarkFlagRequired("rule")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run all active rules on the configured interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("scheduler started", "interval", cfg.Scheduler.Interval)
			return application.Serve(ctx)
		},
	}

	var blogID string
	var days int
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show rotation distribution and upcoming assignments for a blog",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			rot := application.Rotation()
			stats, err := rot.DistributionStats(cmd.Context(), blogID, days)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "blog %s, trailing %d days: %d published, balanced=%v\n",
				stats.BlogID, stats.Days, stats.Total, stats.Balanced)
			for authorID, n := range stats.PerAuthor {
				fmt.Fprintf(cmd.OutOrStdout(), "  author %d: %d articles\n", authorID, n)
			}

			if next, err := rot.NextAuthor(cmd.Context(), blogID, 0); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "next author today: %s\n", next.Name)
			}
			if rotational, err := rot.RotationalAuthor(cmd.Context(), blogID, 0); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "rotational slot 0: %s\n", rotational.Name)
			}
			return nil
		},
	}
	statsCmd.Flags().StringVar(&blogID, "blog", "", "blog id")
	statsCmd.Flags().IntVar(&days, "days", 30, "trailing window in days")
	_ = statsCmd.MarkFlagRequired("blog")

	root.AddCommand(runCmd, serveCmd, statsCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
