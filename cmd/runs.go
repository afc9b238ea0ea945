package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cwbudde/adaptivezoo/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage saved runs",
	Long:  `List saved run records or clean old ones by count or age.`,
}

var listRunsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved runs",
	Long:  `Display saved runs newest first with benchmark, optimizer, dimensions, values and size on disk.`,
	RunE:  runListRuns,
}

var cleanRunsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old runs",
	Long: `Delete old runs based on retention policy.
Keep only the newest N runs, delete runs older than N days, or both.`,
	RunE: runCleanRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(listRunsCmd)
	runsCmd.AddCommand(cleanRunsCmd)

	runsCmd.PersistentFlags().String("data-dir", "./data", "Base directory for saved runs")

	cleanRunsCmd.Flags().Int("keep-last", 0, "Keep only the newest N runs (0 = keep all)")
	cleanRunsCmd.Flags().Int("older-than", 0, "Delete runs older than N days (0 = no age limit)")
	cleanRunsCmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")
}

func runListRuns(cmd *cobra.Command, args []string) error {
	dataDir := viper.GetString("data-dir")
	runStore, err := store.NewFSStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to create run store: %w", err)
	}

	infos, err := runStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No runs found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tTIMESTAMP\tBENCHMARK\tOPTIMIZER\tDIM\tITERS\tINITIAL\tFINAL\tSIZE")
	fmt.Fprintln(w, "------\t---------\t---------\t---------\t---\t-----\t-------\t-----\t----")

	for _, info := range infos {
		size, err := getDirSize(filepath.Join(dataDir, "runs", info.ID))
		sizeStr := "unknown"
		if err == nil {
			sizeStr = formatBytes(size)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%d\t%.6g\t%.6g\t%s\n",
			shortID(info.ID),
			info.Timestamp.Format("2006-01-02 15:04:05"),
			info.Benchmark,
			info.Optimizer,
			info.Dimension,
			info.Reduced,
			info.Iterations,
			info.InitialValue,
			info.FinalValue,
			sizeStr,
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal runs: %d\n", len(infos))
	return nil
}

func runCleanRuns(cmd *cobra.Command, args []string) error {
	keepLast := viper.GetInt("keep-last")
	olderThanDays := viper.GetInt("older-than")
	if keepLast <= 0 && olderThanDays <= 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	runStore, err := store.NewFSStore(viper.GetString("data-dir"))
	if err != nil {
		return fmt.Errorf("failed to create run store: %w", err)
	}

	infos, err := runStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No runs to clean.")
		return nil
	}

	toDelete := selectRunsForDeletion(infos, keepLast, olderThanDays, time.Now())
	if len(toDelete) == 0 {
		fmt.Fprintln(out, "No runs match deletion criteria.")
		return nil
	}

	fmt.Fprintf(out, "Found %d run(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Fprintf(out, "  - %s (%s/%s, %s)\n",
			shortID(info.ID),
			info.Benchmark,
			info.Optimizer,
			info.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	if !viper.GetBool("force") && !confirm(cmd.InOrStdin(), out, "\nProceed with deletion? [y/N]: ") {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	deleted, failed := deleteRuns(runStore, toDelete)
	fmt.Fprintf(out, "\nDeleted %d run(s), %d failed.\n", deleted, failed)
	return nil
}

func deleteRuns(runStore store.Store, infos []store.RunInfo) (deleted, failed int) {
	for _, info := range infos {
		if err := runStore.DeleteRun(info.ID); err != nil {
			slog.Error("Failed to delete run", "run_id", info.ID, "error", err)
			failed++
			continue
		}
		slog.Info("Deleted run", "run_id", info.ID)
		deleted++
	}
	return deleted, failed
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y"
}

// selectRunsForDeletion returns the runs older than olderThanDays together
// with every run beyond the newest keepLast. Zero disables a rule. The
// result is ordered oldest first and holds each run once.
func selectRunsForDeletion(infos []store.RunInfo, keepLast, olderThanDays int, now time.Time) []store.RunInfo {
	sorted := make([]store.RunInfo, len(infos))
	copy(sorted, infos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	cutoff := now.AddDate(0, 0, -olderThanDays)
	excess := 0
	if keepLast > 0 && len(sorted) > keepLast {
		excess = len(sorted) - keepLast
	}

	var toDelete []store.RunInfo
	for i, info := range sorted {
		tooOld := olderThanDays > 0 && info.Timestamp.Before(cutoff)
		if tooOld || i < excess {
			toDelete = append(toDelete, info)
		}
	}
	return toDelete
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
