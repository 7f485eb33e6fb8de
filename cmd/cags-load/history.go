package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/splat.report/internal/db"
)

// showRuns prints the newest runs recorded in dbPath. A non-positive limit
// prints all of them.
func showRuns(w io.Writer, dbPath string, limit int) error {
	store, err := db.NewDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open run database: %w", err)
	}
	defer store.Close()

	version, dirty, err := store.SchemaVersion()
	if err != nil {
		return err
	}
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "schema v%d dirty=%v runs=%d\n", version, dirty, len(runs))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTATUS\tSTARTED\tFILES\tPOINTS\tDURATION\tBASE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%d\t%s\t%s\n",
			r.RunID, r.Status, r.StartedAt.UTC().Format(time.RFC3339),
			r.FilesLoaded, r.TotalFiles, r.PointCount,
			r.Duration().Round(time.Millisecond), r.BasePath)
	}
	return tw.Flush()
}

// showRun prints one run and the fetch record of each of its files.
func showRun(w io.Writer, dbPath, runID string) error {
	store, err := db.NewDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open run database: %w", err)
	}
	defer store.Close()

	r, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	files, err := store.RunFiles(runID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "run %s %s engine=%s sh=%d files=%d/%d bytes=%d points=%d splats=%d\n",
		r.RunID, r.Status, r.Engine, r.SHDegree, r.FilesLoaded, r.TotalFiles,
		r.BytesFetched, r.PointCount, r.SplatCount)
	if r.Error != "" {
		fmt.Fprintf(w, "error: %s\n", r.Error)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, f := range files {
		status := "ok"
		if f.Error != "" {
			status = f.Error
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.1fms\t%s\n", i+1, f.URL, f.Bytes, f.DurationMs, status)
	}
	return tw.Flush()
}

// rollbackSchema undoes the newest migration without migrating up first.
func rollbackSchema(w io.Writer, dbPath string) error {
	store, err := db.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open run database: %w", err)
	}
	defer store.Close()

	if err := store.RollbackSchema(); err != nil {
		return err
	}
	version, _, err := store.SchemaVersion()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "schema rolled back to v%d\n", version)
	return err
}
