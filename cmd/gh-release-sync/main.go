package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/unicaf/gh-release-sync/internal/config"
	"github.com/unicaf/gh-release-sync/internal/github"
	"github.com/unicaf/gh-release-sync/internal/reconcile"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	verboseLevel int
	dryRunFlag   bool
)

var rootCmd = &cobra.Command{
	Use:          "gh-release-sync",
	Short:        "Reconciles project board items against release windows",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Configure logging based on verbose level
		var level slog.Level
		switch verboseLevel {
		case 0:
			level = slog.LevelInfo
		case 1, 2:
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		// Local runs keep credentials in a .env file
		if err := godotenv.Load(); err == nil {
			slog.Debug("loaded environment from .env file")
		}
	},
}

var reconcileCmd = &cobra.Command{
	Use:          "reconcile",
	Short:        "Assign items to release windows and promote merged issues",
	SilenceUsage: true,
	RunE:         runReconcile,
}

var promoteCmd = &cobra.Command{
	Use:          "promote",
	Short:        "Promote issues with merged pull requests into the terminal status",
	SilenceUsage: true,
	RunE:         runPromote,
}

var releaseOptionsCmd = &cobra.Command{
	Use:          "release-options",
	Short:        "Print the resolved release calendar",
	SilenceUsage: true,
	RunE:         runReleaseOptions,
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verboseLevel, "verbose", "v", "Verbosity level (-v for debug logs, -vv for debug logs and HTTP traffic)")
	rootCmd.PersistentFlags().BoolVar(&dryRunFlag, "dry-run", false, "Compute and report all intended updates without issuing them")

	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(promoteCmd)
	rootCmd.AddCommand(releaseOptionsCmd)
}

// newService wires config and client for one run
func newService(ctx context.Context) (*reconcile.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if dryRunFlag {
		cfg.DryRun = true
	}
	if cfg.DryRun {
		slog.Info("dry run mode on, no updates will be issued")
	}

	client, err := github.NewGraphQLClient(ctx, cfg.Token, cfg.GraphQLEndpoint, cfg.ServerURL, verboseLevel >= 2)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GitHub client: %w", err)
	}

	return reconcile.NewService(client, cfg), nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	service, err := newService(ctx)
	if err != nil {
		return err
	}

	report, promoteReport, err := service.Run(ctx)
	if err != nil {
		return fmt.Errorf("reconciliation run failed: %w", err)
	}
	if report.Failed() || promoteReport.Failed() {
		return fmt.Errorf("%d update(s) failed", report.MutationFailed+promoteReport.MutationFailed)
	}

	slog.Info("reconciliation completed successfully")
	return nil
}

func runPromote(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	service, err := newService(ctx)
	if err != nil {
		return err
	}

	report, err := service.Promote(ctx)
	if err != nil {
		return fmt.Errorf("promotion run failed: %w", err)
	}
	if report.Failed() {
		return fmt.Errorf("%d status update(s) failed", report.MutationFailed)
	}

	slog.Info("promotion completed successfully")
	return nil
}

func runReleaseOptions(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	service, err := newService(ctx)
	if err != nil {
		return err
	}

	calendar, err := service.ReleaseCalendar(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve release calendar: %w", err)
	}

	for _, w := range calendar.Windows() {
		fmt.Printf("%s -> %s [%s, %s]\n",
			w.Label,
			w.OptionID,
			w.Start.Format("2006-01-02"),
			w.End.Format("2006-01-02"),
		)
	}
	return nil
}
