package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nvandessel/aisim/internal/config"
	"github.com/nvandessel/aisim/internal/engine"
	"github.com/nvandessel/aisim/internal/logging"
	"github.com/nvandessel/aisim/internal/outcome"
	"github.com/nvandessel/aisim/internal/sanitize"
	"github.com/nvandessel/aisim/internal/store"
	"github.com/nvandessel/aisim/internal/world"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation",
		Long: `Run a single seeded simulation until it reaches a terminal outcome
(extinction, dystopia, utopia) or the month limit, then store it.

Examples:
  aisim run                          # Default seed and tunables
  aisim run --seed 7 --months 240    # Explicit seed and length
  aisim run --trace events.jsonl     # Also write every event as JSONL
  aisim run --no-save --json         # Print the summary without storing it`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed, _ = cmd.Flags().GetInt64("seed")
			}
			if cmd.Flags().Changed("months") {
				cfg.MaxTicks, _ = cmd.Flags().GetInt("months")
			}
			if tracePath, _ := cmd.Flags().GetString("trace"); tracePath != "" {
				if err := validateOutputPath(tracePath, cfg.Store.ArchiveDir); err != nil {
					return fmt.Errorf("trace path rejected: %w", err)
				}
				cfg.Logging.TraceFile = tracePath
			}
			label, _ := cmd.Flags().GetString("label")
			noSave, _ := cmd.Flags().GetBool("no-save")
			showEvents, _ := cmd.Flags().GetBool("events")

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			trace, err := logging.NewEventTrace(cfg.Logging.TraceFile)
			if err != nil {
				return fmt.Errorf("failed to open trace file: %w", err)
			}
			defer trace.Close()
			logger := newLogger(cmd, cfg, trace)

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			ec := cfg.Engine()
			runID := store.NewRunID()
			e, err := engine.New(ec, nil,
				engine.WithLogger(logger),
				engine.WithObserver(func(tr engine.TickResult) {
					for _, ev := range tr.Events {
						trace.Record(runID, ec.Seed, ev)
						logger.Log(ctx, logging.LevelTrace, "event",
							"month", ev.Month, "title", ev.Title, "agent", ev.AgentID, "severity", ev.Severity)
					}
				}),
			)
			if err != nil {
				return err
			}

			res := e.Run(engine.RunOptions{Stop: interruptible(ctx, outcome.StopPredicate(ec.Tunables.Outcome))})

			run := store.NewRun(ec, res)
			run.ID = runID
			run.Label = sanitize.Label(label)
			if !noSave {
				if err := saveRun(ctx, cfg, run, res.Events); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				payload := map[string]any{
					"run_id":  run.ID,
					"saved":   !noSave,
					"summary": res.Summary,
					"history": res.History,
				}
				if showEvents {
					payload["events"] = res.Events
				}
				return json.NewEncoder(out).Encode(payload)
			}

			printSummary(out, run)
			if showEvents {
				fmt.Fprintln(out)
				printEvents(out, res.Events, false)
			}
			if !noSave {
				fmt.Fprintf(out, "\nStored as %s\n", run.ID)
			}
			return nil
		},
	}

	cmd.Flags().Int64("seed", 0, "Random seed (default from config)")
	cmd.Flags().Int("months", 0, "Maximum months to simulate (default from config)")
	cmd.Flags().String("trace", "", "Write every event as JSONL to this file")
	cmd.Flags().String("label", "", "Label stored with the run")
	cmd.Flags().Bool("no-save", false, "Do not store the run")
	cmd.Flags().Bool("events", false, "Include the event log in the output")
	return cmd
}

// interruptible wraps a stop function so a cancelled context ends the run
// as inconclusive.
func interruptible(ctx context.Context, stop engine.StopFunc) engine.StopFunc {
	return func(s *world.State) (outcome.Verdict, bool) {
		if ctx.Err() != nil {
			return outcome.Verdict{Outcome: outcome.Inconclusive, Reason: "interrupted"}, true
		}
		return stop(s)
	}
}

// saveRun stores a finished run. It still saves after an interrupt.
func saveRun(ctx context.Context, cfg *config.AisimConfig, run store.Run, events []world.Event) error {
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.SaveRun(context.WithoutCancel(ctx), run, events); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, run store.Run) {
	s := run.Summary
	fmt.Fprintf(w, "Run %s (seed %d)\n", shortID(run.ID), s.Seed)
	if run.Label != "" {
		fmt.Fprintf(w, "  Label:           %s\n", run.Label)
	}
	outcomeLine := string(s.Outcome)
	if s.Reason != "" {
		outcomeLine += " (" + s.Reason + ")"
	}
	fmt.Fprintf(w, "  Outcome:         %s\n", outcomeLine)
	fmt.Fprintf(w, "  Months:          %d\n", s.Ticks)
	fmt.Fprintf(w, "  Agents:          %s\n", humanize.Comma(int64(s.Agents)))
	fmt.Fprintf(w, "  Events:          %s (%s critical)\n", humanize.Comma(int64(s.TotalEvents)), humanize.Comma(int64(s.CriticalEvents)))
	fmt.Fprintf(w, "  Frontier/floor:  %.3f / %.3f\n", s.FinalFrontier, s.FinalFloor)
	fmt.Fprintf(w, "  Detection trust: %.3f\n", s.DetectionTrust)
	fmt.Fprintf(w, "  Caught:          %d sandbagging, %d gaming, %d false positives\n", s.SandbaggingCaught, s.GamingCaught, s.FalsePositives)
	fmt.Fprintf(w, "  Detection rate:  %.1f%%\n", s.DetectionRate()*100)
	fmt.Fprintf(w, "  Sleepers woken:  %d\n", s.Wakes)
	fmt.Fprintf(w, "  Breakthroughs:   %d\n", s.Breakthroughs)
	if len(s.Crises) > 0 {
		fmt.Fprintf(w, "  Crises:          %s\n", strings.Join(s.Crises, ", "))
	}
	if s.PhaseFailures > 0 {
		fmt.Fprintf(w, "  Phase failures:  %d\n", s.PhaseFailures)
	}
}

// printEvents writes one line per event. criticalOnly filters out info and
// warning events.
func printEvents(w io.Writer, events []world.Event, criticalOnly bool) {
	for _, ev := range events {
		if criticalOnly && ev.Severity != world.SeverityCritical {
			continue
		}
		agent := ""
		if ev.AgentID != "" {
			agent = " [" + ev.AgentID + "]"
		}
		fmt.Fprintf(w, "  month %3d  %-8s %-12s %s%s\n", ev.Month, ev.Severity, ev.Category, ev.Title, agent)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
