package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nvandessel/aisim/internal/batch"
	"github.com/nvandessel/aisim/internal/outcome"
	"github.com/nvandessel/aisim/internal/ratelimit"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run many seeds and report the outcome distribution",
		Long: `Run a batch of simulations with consecutive seeds and report how often
each outcome occurred. Runs are independent, so the report does not
depend on the number of workers.

Examples:
  aisim batch                            # batch.runs from config
  aisim batch --runs 1000 --workers 8    # 1000 seeds on 8 workers
  aisim batch --seed 500 --months 120    # Seeds 500.. capped at 10 years`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("runs") {
				cfg.Batch.Runs, _ = cmd.Flags().GetInt("runs")
			}
			if cmd.Flags().Changed("workers") {
				cfg.Batch.Workers, _ = cmd.Flags().GetInt("workers")
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed, _ = cmd.Flags().GetInt64("seed")
			}
			if cmd.Flags().Changed("months") {
				cfg.MaxTicks, _ = cmd.Flags().GetInt("months")
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger := newLogger(cmd, cfg, nil)
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			start := time.Now()
			done := 0
			// Progress at most every two seconds; terminal outcomes a few per second.
			progress := ratelimit.NewLimiter(ratelimit.Every(2*time.Second), 1)
			verdicts := ratelimit.NewLimiter(2, 5)
			report, err := batch.Run(ctx, batch.Options{
				Runs:     cfg.Batch.Runs,
				BaseSeed: cfg.Seed,
				MaxTicks: cfg.MaxTicks,
				Workers:  cfg.Batch.Workers,
				Config:   cfg.Engine(),
				Logger:   logger,
				OnResult: func(r batch.Result) {
					done++
					if o := r.Summary.Outcome; o.Terminal() {
						if ok, skipped := verdicts.Take(string(o)); ok {
							logger.Info("run ended", "seed", r.Seed, "outcome", o, "month", r.Summary.Ticks, "reason", r.Summary.Reason, "suppressed", skipped)
						}
					}
					if ok, _ := progress.Take("progress"); ok && done > 1 {
						logger.Info("batch progress", "done", done, "of", cfg.Batch.Runs, "elapsed", time.Since(start).Round(time.Millisecond))
					}
				},
			})
			if err != nil {
				return fmt.Errorf("batch failed after %d runs: %w", done, err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return json.NewEncoder(out).Encode(report)
			}

			fmt.Fprintf(out, "Batch of %s runs (seeds %d..%d) in %s\n",
				humanize.Comma(int64(len(report.Runs))), cfg.Seed, cfg.Seed+int64(len(report.Runs))-1,
				time.Since(start).Round(time.Millisecond))
			fmt.Fprintln(out)
			for _, o := range outcome.Outcomes() {
				fmt.Fprintf(out, "  %-13s %6s  %5.1f%%\n", o, humanize.Comma(int64(report.Outcomes[o])), report.Share(o)*100)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  Mean months:     %.1f\n", report.MeanTicks)
			fmt.Fprintf(out, "  Mean events:     %.1f\n", report.MeanEvents)
			fmt.Fprintf(out, "  Detection rate:  %.1f%%\n", report.DetectionRate*100)
			if report.PhaseFailures > 0 {
				fmt.Fprintf(out, "  Phase failures:  %s\n", humanize.Comma(int64(report.PhaseFailures)))
			}
			return nil
		},
	}

	cmd.Flags().Int("runs", 0, "Number of runs (default from config)")
	cmd.Flags().Int("workers", 0, "Concurrent runs (default from config)")
	cmd.Flags().Int64("seed", 0, "First seed; run i uses seed+i (default from config)")
	cmd.Flags().Int("months", 0, "Maximum months per run (default from config)")
	return cmd
}
