package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nvandessel/aisim/internal/archive"
	"github.com/nvandessel/aisim/internal/config"
	"github.com/nvandessel/aisim/internal/outcome"
	"github.com/nvandessel/aisim/internal/pathutil"
	"github.com/nvandessel/aisim/internal/sanitize"
	"github.com/nvandessel/aisim/internal/store"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and export stored runs",
		Long: `List, inspect, export and delete runs stored in the run database.

Runs may be named by full ID or by any unique prefix.

Examples:
  aisim history list                       # Newest runs first
  aisim history list --outcome extinction  # Only extinction runs
  aisim history show 3f0d1b2c --events     # Summary and critical events
  aisim history export 3f0d1b2c            # Write a checksummed archive
  aisim history verify run.json.gz         # Check an archive's integrity`,
	}

	cmd.AddCommand(
		newHistoryListCmd(),
		newHistoryShowCmd(),
		newHistoryExportCmd(),
		newHistoryVerifyCmd(),
		newHistoryArchivesCmd(),
		newHistoryDeleteCmd(),
	)
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			filter := store.RunFilter{}
			filter.Limit, _ = cmd.Flags().GetInt("limit")
			if o, _ := cmd.Flags().GetString("outcome"); o != "" {
				filter.Outcome = outcome.Outcome(o)
				if !filter.Outcome.Valid() {
					return fmt.Errorf("unknown outcome %q", o)
				}
			}
			if cmd.Flags().Changed("seed") {
				seed, _ := cmd.Flags().GetInt64("seed")
				filter.Seed = &seed
			}

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				type jsonEntry struct {
					ID        string          `json:"id"`
					Label     string          `json:"label,omitempty"`
					CreatedAt time.Time       `json:"created_at"`
					Seed      int64           `json:"seed"`
					Outcome   outcome.Outcome `json:"outcome"`
					Ticks     int             `json:"ticks"`
					Events    int             `json:"events"`
				}
				entries := make([]jsonEntry, 0, len(runs))
				for _, r := range runs {
					entries = append(entries, jsonEntry{
						ID:        r.ID,
						Label:     r.Label,
						CreatedAt: r.CreatedAt,
						Seed:      r.Summary.Seed,
						Outcome:   r.Summary.Outcome,
						Ticks:     r.Summary.Ticks,
						Events:    r.Summary.TotalEvents,
					})
				}
				return json.NewEncoder(out).Encode(map[string]any{
					"runs":        entries,
					"total_count": len(entries),
				})
			}

			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs stored.")
				return nil
			}
			fmt.Fprintf(out, "%-8s  %-14s  %10s  %-12s  %6s  %8s  %s\n", "ID", "CREATED", "SEED", "OUTCOME", "MONTHS", "EVENTS", "LABEL")
			for _, r := range runs {
				fmt.Fprintf(out, "%-8s  %-14s  %10d  %-12s  %6d  %8s  %s\n",
					shortID(r.ID), humanize.Time(r.CreatedAt), r.Summary.Seed, r.Summary.Outcome,
					r.Summary.Ticks, humanize.Comma(int64(r.Summary.TotalEvents)), r.Label)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum runs to list (0 = all)")
	cmd.Flags().String("outcome", "", "Only runs with this outcome")
	cmd.Flags().Int64("seed", 0, "Only runs with this seed")
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			showEvents, _ := cmd.Flags().GetBool("events")
			allEvents, _ := cmd.Flags().GetBool("all")

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			run, err := resolveRun(ctx, s, args[0])
			if err != nil {
				return err
			}
			events, err := s.RunEvents(ctx, run.ID)
			if err != nil {
				return fmt.Errorf("failed to load events: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				payload := map[string]any{"run": run}
				if showEvents || allEvents {
					payload["events"] = events
				}
				return json.NewEncoder(out).Encode(payload)
			}

			printSummary(out, *run)
			fmt.Fprintf(out, "  Created:         %s (%s)\n", run.CreatedAt.Format(time.RFC3339), humanize.Time(run.CreatedAt))
			if showEvents || allEvents {
				fmt.Fprintln(out)
				printEvents(out, events, !allEvents)
			}
			return nil
		},
	}
	cmd.Flags().Bool("events", false, "Show critical events")
	cmd.Flags().Bool("all", false, "Show every event")
	return cmd
}

func newHistoryExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Write a stored run to a checksummed archive",
		Long: `Export a run and its events to a checksummed archive file.

Default location: ~/.aisim/archives/aisim-run-YYYYMMDD-HHMMSS-<id>.json.gz
Archives in the target directory are pruned by --keep and --max-age.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			outputPath, _ := cmd.Flags().GetString("output")
			noCompress, _ := cmd.Flags().GetBool("no-compress")
			keep, _ := cmd.Flags().GetInt("keep")
			maxAge, _ := cmd.Flags().GetString("max-age")

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			run, err := resolveRun(ctx, s, args[0])
			if err != nil {
				return err
			}
			events, err := s.RunEvents(ctx, run.ID)
			if err != nil {
				return fmt.Errorf("failed to load events: %w", err)
			}

			compress := !noCompress
			dir, err := archiveDir(cfg)
			if err != nil {
				return err
			}
			if outputPath == "" {
				outputPath = archive.GeneratePath(dir, run.ID, compress)
			} else if err := validateOutputPath(outputPath, dir); err != nil {
				return fmt.Errorf("export path rejected: %w", err)
			}

			header, err := archive.Export(*run, events, outputPath, compress)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			policy, err := buildRetentionPolicy(keep, maxAge)
			if err != nil {
				return err
			}
			var pruned []string
			if policy != nil {
				pruned, err = archive.ApplyRetention(filepath.Dir(outputPath), policy)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to apply retention: %v\n", err)
				}
			}

			var size int64
			if info, err := os.Stat(outputPath); err == nil {
				size = info.Size()
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return json.NewEncoder(out).Encode(map[string]any{
					"path":        outputPath,
					"run_id":      header.RunID,
					"event_count": header.EventCount,
					"compressed":  header.Compressed,
					"checksum":    header.Checksum,
					"size_bytes":  size,
					"pruned":      pruned,
				})
			}
			fmt.Fprintf(out, "Exported run %s: %s events\n", shortID(run.ID), humanize.Comma(int64(header.EventCount)))
			fmt.Fprintf(out, "  Path:     %s\n", outputPath)
			if size > 0 {
				fmt.Fprintf(out, "  Size:     %s\n", humanize.Bytes(uint64(size)))
			}
			fmt.Fprintf(out, "  Checksum: %s\n", header.Checksum)
			if len(pruned) > 0 {
				fmt.Fprintf(out, "  Pruned %d old archive(s)\n", len(pruned))
			}
			return nil
		},
	}
	cmd.Flags().String("output", "", "Output file path (default: auto-generated in the archive directory)")
	cmd.Flags().Bool("no-compress", false, "Write an uncompressed JSON payload")
	cmd.Flags().Int("keep", 0, "Keep only the N newest archives in the directory (0 = no limit)")
	cmd.Flags().String("max-age", "", "Remove archives older than this (e.g. 30d, 2w, 720h)")
	return cmd
}

func newHistoryVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <archive>",
		Short: "Verify an archive's checksum and contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			header, a, err := archive.Read(args[0])
			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				payload := map[string]any{"path": args[0], "valid": err == nil}
				if err != nil {
					payload["error"] = err.Error()
				} else {
					payload["run_id"] = header.RunID
					payload["event_count"] = header.EventCount
					payload["checksum"] = header.Checksum
				}
				if encErr := json.NewEncoder(out).Encode(payload); encErr != nil {
					return encErr
				}
				return err
			}
			if err != nil {
				return fmt.Errorf("archive invalid: %w", err)
			}
			fmt.Fprintf(out, "Archive OK: run %s, seed %d, %s, %s events\n",
				shortID(a.Run.ID), a.Run.Summary.Seed, a.Run.Summary.Outcome, humanize.Comma(int64(len(a.Events))))
			return nil
		},
	}
}

func newHistoryArchivesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archives",
		Short: "List exported archives with metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir, err := archiveDir(cfg)
			if err != nil {
				return err
			}
			infos, err := archive.List(dir)
			if err != nil {
				return fmt.Errorf("failed to list archives: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				type jsonEntry struct {
					Path       string `json:"path"`
					Size       int64  `json:"size_bytes"`
					CreatedAt  string `json:"created_at"`
					RunID      string `json:"run_id,omitempty"`
					EventCount int    `json:"event_count,omitempty"`
					Checksum   string `json:"checksum,omitempty"`
				}
				entries := make([]jsonEntry, 0, len(infos))
				for _, info := range infos {
					entry := jsonEntry{
						Path:      info.Path,
						Size:      info.Size,
						CreatedAt: info.CreatedAt.Format(time.RFC3339),
					}
					if h, err := archive.ReadHeader(info.Path); err == nil {
						entry.RunID = h.RunID
						entry.EventCount = h.EventCount
						entry.Checksum = h.Checksum
					}
					entries = append(entries, entry)
				}
				return json.NewEncoder(out).Encode(map[string]any{
					"archives":    entries,
					"total_count": len(entries),
					"directory":   dir,
				})
			}

			if len(infos) == 0 {
				fmt.Fprintf(out, "No archives found in %s\n", dir)
				return nil
			}
			fmt.Fprintf(out, "Archives in %s:\n", dir)
			var total int64
			for _, info := range infos {
				total += info.Size
				detail := "unreadable header"
				if h, err := archive.ReadHeader(info.Path); err == nil {
					detail = fmt.Sprintf("run %s, %s events", shortID(h.RunID), humanize.Comma(int64(h.EventCount)))
				}
				fmt.Fprintf(out, "  %s  %8s  %-14s  %s\n",
					filepath.Base(info.Path), humanize.Bytes(uint64(info.Size)), humanize.Time(info.CreatedAt), detail)
			}
			fmt.Fprintf(out, "Total: %d archive(s), %s\n", len(infos), humanize.Bytes(uint64(total)))
			return nil
		},
	}
}

func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run and its events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			run, err := resolveRun(ctx, s, args[0])
			if err != nil {
				return err
			}
			if err := s.DeleteRun(ctx, run.ID); err != nil {
				return fmt.Errorf("failed to delete run: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return json.NewEncoder(out).Encode(map[string]string{"status": "deleted", "run_id": run.ID})
			}
			fmt.Fprintf(out, "Deleted run %s\n", run.ID)
			return nil
		},
	}
}

// resolveRun finds a run by full ID or unique ID prefix.
func resolveRun(ctx context.Context, s store.RunStore, ref string) (*store.Run, error) {
	clean := sanitize.Ref(ref)
	if clean == "" {
		return nil, fmt.Errorf("invalid run reference: %q", ref)
	}
	ref = clean

	run, err := s.GetRun(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	if run != nil {
		return run, nil
	}

	runs, err := s.ListRuns(ctx, store.RunFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	var matches []store.Run
	for _, r := range runs {
		if strings.HasPrefix(r.ID, ref) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("run not found: %s", ref)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("run prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// archiveDir returns the configured archive directory or ~/.aisim/archives.
func archiveDir(cfg *config.AisimConfig) (string, error) {
	if cfg.Store.ArchiveDir != "" {
		return cfg.Store.ArchiveDir, nil
	}
	dir, err := store.GlobalAisimPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "archives"), nil
}

// validateOutputPath restricts user-supplied output files to the
// directories aisim is allowed to write to.
func validateOutputPath(path string, extra ...string) error {
	allowed, err := pathutil.AllowedOutputDirs(extra...)
	if err != nil {
		return err
	}
	return pathutil.ValidatePath(path, allowed)
}

// buildRetentionPolicy combines --keep and --max-age. Returns nil when
// neither is set.
func buildRetentionPolicy(keep int, maxAge string) (archive.RetentionPolicy, error) {
	var policies []archive.RetentionPolicy
	if keep > 0 {
		policies = append(policies, &archive.CountPolicy{MaxCount: keep})
	}
	if maxAge != "" {
		d, err := archive.ParseDuration(maxAge)
		if err != nil {
			return nil, fmt.Errorf("invalid --max-age: %w", err)
		}
		policies = append(policies, &archive.AgePolicy{MaxAge: d})
	}
	switch len(policies) {
	case 0:
		return nil, nil
	case 1:
		return policies[0], nil
	default:
		return &archive.CompositePolicy{Policies: policies}, nil
	}
}
