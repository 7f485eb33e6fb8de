// Command cags-load fetches a layered CAGS asset, decodes it into splats and
// writes the renderer buffer plus optional diagnostics.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/splat.report/internal/cags"
	_ "github.com/banshee-data/splat.report/internal/cags/synthetic"
	"github.com/banshee-data/splat.report/internal/config"
	"github.com/banshee-data/splat.report/internal/db"
	"github.com/banshee-data/splat.report/internal/fetch"
	"github.com/banshee-data/splat.report/internal/httputil"
	"github.com/banshee-data/splat.report/internal/monitor"
	"github.com/banshee-data/splat.report/internal/monitoring"
	"github.com/banshee-data/splat.report/internal/security"
	"github.com/banshee-data/splat.report/internal/splat"
	"github.com/banshee-data/splat.report/internal/version"
)

// bufferExt is appended to generated buffer file names.
const bufferExt = ".splb"

var (
	assetURL      = flag.String("url", "", "Asset file name: http(s)://, s3://, file:// or a local path ending in point_cloud.drc")
	configPath    = flag.String("config", "", "Loader config JSON (built-in defaults when empty)")
	engineName    = flag.String("engine", "", "Decode engine; overrides the config (default synthetic)")
	shDegree      = flag.Int("sh-degree", -1, "Output spherical harmonics degree 0-3; overrides the config")
	outPath       = flag.String("out", "", "Write the finalized buffer here; a directory gets a generated name")
	dbPath        = flag.String("db", "", "Record the run in this sqlite database")
	timelinePath  = flag.String("timeline", "", "Write an HTML fetch timeline")
	histogramPath = flag.String("histogram", "", "Write an opacity histogram (.png or .svg)")
	footprintPath = flag.String("footprint", "", "Write a top-down scatter of splat positions (.png or .svg)")
	metricsPath   = flag.String("metrics", "", "Write Prometheus metrics in textfile-collector format")
	listOnly      = flag.Bool("list", false, "Print the files the asset consists of and exit")
	runsLimit     = flag.Int("runs", 0, "Print the newest N runs recorded in -db and exit; -1 prints all")
	showRunID     = flag.String("run", "", "Print one run recorded in -db with its per-file fetches and exit")
	dbRollback    = flag.Bool("db-rollback", false, "Roll back the newest schema migration of -db and exit")
	showVersion   = flag.Bool("version", false, "Print version and exit")
	headers       = headerFlags{}
)

func init() {
	flag.Var(&headers, "header", "Request header 'Key: Value'; repeatable")
}

// headerFlags collects repeated -header values.
type headerFlags map[string]string

func (h headerFlags) String() string {
	parts := make([]string, 0, len(h))
	for k, v := range h {
		parts = append(parts, k+": "+v)
	}
	return strings.Join(parts, ", ")
}

func (h headerFlags) Set(s string) error {
	k, v, ok := strings.Cut(s, ":")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return fmt.Errorf("header must look like 'Key: Value', got %q", s)
	}
	h[k] = strings.TrimSpace(v)
	return nil
}

// options is the resolved command configuration.
type options struct {
	URL       string
	Engine    string
	SHDegree  int
	Out       string
	DB        string
	Timeline  string
	Histogram string
	Footprint string
	Metrics   string
	List      bool
	Headers   map[string]string
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("cags-load", version.String())
		return
	}
	if *runsLimit != 0 || *showRunID != "" || *dbRollback {
		if err := history(os.Stdout); err != nil {
			log.Fatalf("cags-load: %v", err)
		}
		return
	}
	if *assetURL == "" {
		log.Fatal("-url is required")
	}

	cfg := config.EmptyLoaderConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadLoaderConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	opts := resolveOptions(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, cfg, opts); err != nil {
		log.Fatalf("cags-load: %v", err)
	}
}

// history serves the run database modes, which need no asset.
func history(w io.Writer) error {
	if *dbPath == "" {
		return fmt.Errorf("-db is required with -runs, -run and -db-rollback")
	}
	switch {
	case *dbRollback:
		return rollbackSchema(w, *dbPath)
	case *showRunID != "":
		return showRun(w, *dbPath, *showRunID)
	default:
		return showRuns(w, *dbPath, *runsLimit)
	}
}

// resolveOptions merges the flags over the config file.
func resolveOptions(cfg *config.LoaderConfig) options {
	opts := options{
		URL:       *assetURL,
		Engine:    cfg.GetEngine(),
		SHDegree:  cfg.GetSHDegree(),
		Out:       *outPath,
		DB:        *dbPath,
		Timeline:  *timelinePath,
		Histogram: *histogramPath,
		Footprint: *footprintPath,
		Metrics:   *metricsPath,
		List:      *listOnly,
		Headers:   cfg.GetHeaders(),
	}
	if *engineName != "" {
		opts.Engine = *engineName
	}
	if *shDegree >= 0 {
		opts.SHDegree = *shDegree
	}
	for k, v := range headers {
		opts.Headers[k] = v
	}
	return opts
}

func run(ctx context.Context, w io.Writer, cfg *config.LoaderConfig, opts options) error {
	manifest, err := cfg.GetManifest()
	if err != nil {
		return err
	}
	basePath := cags.BasePath(opts.URL)

	if opts.List {
		return listResources(w, manifest, basePath)
	}
	if f := cags.FormatFromPath(opts.URL); f != cags.FormatCAGS {
		return fmt.Errorf("%s is a %s scene, not a CAGS asset", opts.URL, f)
	}
	for _, p := range []string{opts.Out, opts.Timeline, opts.Histogram, opts.Footprint, opts.Metrics} {
		if p == "" {
			continue
		}
		if err := security.ValidateExportPath(p); err != nil {
			return fmt.Errorf("invalid output path %s: %w", p, err)
		}
	}

	fetcher, err := newFetcher(ctx, cfg, fetch.Scheme(opts.URL))
	if err != nil {
		return err
	}
	recorder := fetch.NewRecorder(fetcher)

	loader := &cags.Loader{
		Manifest:  manifest,
		Fetcher:   recorder,
		NewEngine: cags.EngineFactoryFor(opts.Engine),
		Finalizer: splat.Generator{},
	}

	var store *db.DB
	var runID string
	if opts.DB != "" {
		store, err = db.NewDB(opts.DB)
		if err != nil {
			return fmt.Errorf("failed to open run database: %w", err)
		}
		defer store.Close()
		r, err := store.StartRun(basePath, opts.Engine, opts.SHDegree, manifest.TotalFiles())
		if err != nil {
			return err
		}
		runID = r.RunID
	}

	started := time.Now()
	res, loadErr := loader.Load(ctx, opts.URL, cags.LoadOptions{
		OnProgress: logProgress,
		SHDegree:   opts.SHDegree,
		Headers:    opts.Headers,
		Finalize:   cfg.FinalizeOptions(),
	})

	entries := recorder.Entries()
	if opts.Timeline != "" {
		if err := writeTimeline(opts.Timeline, basePath, entries); err != nil {
			monitoring.Logf("cags-load: %v", err)
		}
	}

	if opts.Metrics != "" {
		m := monitor.NewLoadMetrics()
		m.ObserveFetches(entries)
		splats := 0
		if res != nil {
			splats = res.Splats.Len()
		}
		m.ObserveLoad(time.Since(started), splats, loadErr)
		if err := m.WriteTextfile(opts.Metrics); err != nil {
			monitoring.Logf("cags-load: failed to write metrics: %v", err)
		}
	}

	outcome := db.RunOutcome{FilesLoaded: countLoaded(entries), BytesFetched: recorder.TotalBytes()}
	if res != nil {
		outcome.PointCount = res.Splats.Len()
		outcome.SplatCount = res.Buffer.SplatCount()
	}
	if store != nil {
		if err := store.RecordFiles(runID, runFiles(entries)); err != nil {
			monitoring.Logf("cags-load: failed to record files: %v", err)
		}
		if loadErr != nil {
			err = store.FailRun(runID, outcome, loadErr)
		} else {
			err = store.CompleteRun(runID, outcome)
		}
		if err != nil {
			monitoring.Logf("cags-load: failed to finish run %s: %v", runID, err)
		}
	}
	if loadErr != nil {
		return loadErr
	}

	if opts.Out != "" {
		if err := writeBuffer(bufferPath(opts.Out, basePath), res.Buffer); err != nil {
			return err
		}
	}
	if opts.Histogram != "" {
		if err := monitor.SaveOpacityHistogram(res.Splats, opts.Histogram); err != nil {
			return err
		}
	}
	if opts.Footprint != "" {
		if err := monitor.SaveFootprint(res.Splats, opts.Footprint); err != nil {
			return err
		}
	}

	report := struct {
		RunID    string        `json:"run_id,omitempty"`
		BasePath string        `json:"base_path"`
		Files    int           `json:"files"`
		Bytes    int64         `json:"bytes"`
		Splats   int           `json:"splats"`
		Summary  splat.Summary `json:"summary"`
	}{runID, basePath, outcome.FilesLoaded, outcome.BytesFetched, outcome.SplatCount, splat.Summarize(res.Splats)}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func newFetcher(ctx context.Context, cfg *config.LoaderConfig, scheme string) (fetch.Fetcher, error) {
	router := &fetch.Router{
		HTTP: fetch.NewHTTPFetcher(httputil.NewTimeoutClient(cfg.GetFetchTimeout())),
		File: &fetch.FileFetcher{Root: cfg.GetFileRoot()},
	}
	if scheme == "s3" {
		s3f, err := fetch.NewS3Fetcher(ctx, fetch.S3Config{
			Region:    cfg.GetS3Region(),
			Endpoint:  cfg.GetS3Endpoint(),
			PathStyle: cfg.GetS3PathStyle(),
		})
		if err != nil {
			return nil, err
		}
		router.S3 = s3f
	}
	return router, nil
}

func listResources(w io.Writer, m cags.Manifest, basePath string) error {
	for _, r := range m.Resources(basePath) {
		if _, err := fmt.Fprintf(w, "%-28s %s\n", r, r.URL); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "total %d files\n", m.TotalFiles())
	return err
}

func logProgress(percent float64, label string, phase cags.Phase, message string) {
	if message == "" {
		monitoring.Logf("[%6s] %s", label, phase)
		return
	}
	monitoring.Logf("[%6s] %s", label, message)
}

func countLoaded(entries []fetch.Entry) int {
	n := 0
	for _, e := range entries {
		if e.Err == nil {
			n++
		}
	}
	return n
}

func runFiles(entries []fetch.Entry) []db.RunFile {
	files := make([]db.RunFile, len(entries))
	for i, e := range entries {
		files[i] = db.RunFile{
			URL:        e.URL,
			Bytes:      e.Bytes,
			DurationMs: float64(e.Duration) / float64(time.Millisecond),
			StatusCode: e.StatusCode,
		}
		if e.Err != nil {
			files[i].Error = e.Err.Error()
		}
	}
	return files
}

// bufferPath resolves -out: an existing directory or a trailing separator
// gets a file name derived from the asset's base path.
func bufferPath(out, basePath string) string {
	if strings.HasSuffix(out, string(os.PathSeparator)) || strings.HasSuffix(out, "/") {
		return filepath.Join(out, security.SanitizeFilename(path.Base(basePath))+bufferExt)
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, security.SanitizeFilename(path.Base(basePath))+bufferExt)
	}
	return out
}

func writeBuffer(p string, buf *splat.Buffer) (err error) {
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("failed to create buffer file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	n, err := buf.WriteTo(f)
	if err != nil {
		return fmt.Errorf("failed to write buffer: %w", err)
	}
	monitoring.Logf("wrote %d splats (%d bytes) to %s", buf.SplatCount(), n, p)
	return nil
}

func writeTimeline(p, title string, entries []fetch.Entry) (err error) {
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("failed to create timeline: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return monitor.WriteFetchTimeline(f, title, entries)
}
