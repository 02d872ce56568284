package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanshika/socialnet/internal/community"
	"github.com/vanshika/socialnet/internal/config"
	"github.com/vanshika/socialnet/internal/dataset"
	"github.com/vanshika/socialnet/internal/generator"
	"github.com/vanshika/socialnet/internal/logging"
	"github.com/vanshika/socialnet/internal/repository"
	"github.com/vanshika/socialnet/internal/service"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "socialctl",
		Short:         "Offline tooling for social network datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAnalyzeCmd(), newGenerateCmd())
	return root
}

type analyzeOptions struct {
	mode          string
	maxExpansions int
	workers       int
	asJSON        bool
	logLevel      string
}

func newAnalyzeCmd() *cobra.Command {
	opts := analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <dataset>",
		Short: "Load a dataset into memory and report its communities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.mode, "mode", "shared", "path mode for the most active community (shared|isolated)")
	cmd.Flags().IntVar(&opts.maxExpansions, "max-expansions", 1_000_000, "search budget per excursion in isolated mode, 0 for unbounded")
	cmd.Flags().IntVar(&opts.workers, "workers", 4, "workers validating users; writes keep dataset order")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the report as JSON")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")
	return cmd
}

type analyzeReport struct {
	Users       int      `json:"users"`
	Friendships int      `json:"friendships"`
	Communities int      `json:"communities"`
	MostActive  []string `json:"mostActive"`
	Mode        string   `json:"mode"`
	Duration    string   `json:"duration"`
}

func runAnalyze(ctx context.Context, stdout, stderr io.Writer, path string, opts analyzeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mode, err := community.ParsePathMode(opts.mode)
	if err != nil {
		return err
	}
	ds, err := dataset.Load(path)
	if err != nil {
		return err
	}

	logger := logging.NewWithWriter(stderr, config.LoggingConfig{Level: opts.logLevel})
	analyzer := community.NewAnalyzer(mode)
	analyzer.MaxExpansions = opts.maxExpansions

	svc := service.NewSocialService(repository.NewMemoryRepository(), nil)
	svc.WithAnalyzer(analyzer)
	svc.WithLogger(logger)

	ingestor := service.NewBulkIngestor(svc, opts.workers)
	if err := ingestor.IngestUsers(ctx, ds.Users); err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	if err := ingestor.IngestFriendships(ctx, ds.Friendships); err != nil {
		return fmt.Errorf("load friendships: %w", err)
	}

	start := time.Now()
	report, err := svc.Report(ctx)
	if err != nil {
		return err
	}

	out := analyzeReport{
		Users:       len(ds.Users),
		Friendships: len(ds.Friendships),
		Communities: report.Communities,
		MostActive:  make([]string, 0, len(report.MostActive)),
		Mode:        mode.String(),
		Duration:    time.Since(start).String(),
	}
	for _, u := range report.MostActive {
		out.MostActive = append(out.MostActive, u.Username)
	}

	if opts.asJSON {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	}
	fmt.Fprintf(stdout, "users:        %d\n", out.Users)
	fmt.Fprintf(stdout, "friendships:  %d\n", out.Friendships)
	fmt.Fprintf(stdout, "communities:  %d\n", out.Communities)
	fmt.Fprintf(stdout, "most active (%s, %d users):\n", out.Mode, len(out.MostActive))
	for _, name := range out.MostActive {
		fmt.Fprintf(stdout, "  %s\n", name)
	}
	return nil
}

func newGenerateCmd() *cobra.Command {
	cfg := generator.DefaultConfig()
	var output string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ds, err := generator.New(cfg).Generate(ctx)
			if err != nil {
				return err
			}
			if output == "-" {
				return dataset.Encode(cmd.OutOrStdout(), ds, dataset.FormatYAML)
			}
			if err := dataset.Write(ds, output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d users and %d friendships to %s\n", len(ds.Users), len(ds.Friendships), output)
			return nil
		},
	}
	cmd.Flags().IntVar(&cfg.NumUsers, "users", cfg.NumUsers, "number of users")
	cmd.Flags().IntVar(&cfg.Communities, "communities", cfg.Communities, "number of groups")
	cmd.Flags().Float64Var(&cfg.AvgFriends, "avg-friends", cfg.AvgFriends, "mean in-group friendships started per user")
	cmd.Flags().Float64Var(&cfg.BridgeChance, "bridge-chance", cfg.BridgeChance, "probability of a friendship across groups")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	cmd.Flags().StringVarP(&output, "output", "o", "dataset.yaml", "output file (.json, .yaml, .yml) or - for YAML on stdout")
	return cmd
}
