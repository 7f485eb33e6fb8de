package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/splat.report/internal/splat"
	"github.com/go-gl/mathgl/mgl32"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	if cfg.Engine == nil || *cfg.Engine != "synthetic" {
		t.Errorf("Expected Engine 'synthetic', got %v", cfg.Engine)
	}
	if got := cfg.GetBucketSize(); got != 256 {
		t.Errorf("GetBucketSize() = %d, want 256", got)
	}
	if got := cfg.GetFetchTimeout(); got != 30*time.Second {
		t.Errorf("GetFetchTimeout() = %v, want 30s", got)
	}

	m, err := cfg.GetManifest()
	if err != nil {
		t.Fatalf("GetManifest() error: %v", err)
	}
	if m.TotalFiles() != 66 {
		t.Errorf("TotalFiles() = %d, want 66", m.TotalFiles())
	}

	// The shipped file must agree with the built-in defaults.
	if got, want := cfg.FinalizeOptions(), EmptyLoaderConfig().FinalizeOptions(); got != want {
		t.Errorf("defaults file FinalizeOptions = %+v, built-in = %+v", got, want)
	}
}

func TestEmptyLoaderConfigDefaults(t *testing.T) {
	cfg := EmptyLoaderConfig()

	if cfg.GetEngine() != "synthetic" {
		t.Errorf("GetEngine() = %q, want synthetic", cfg.GetEngine())
	}
	if cfg.GetSHDegree() != 0 {
		t.Errorf("GetSHDegree() = %d, want 0", cfg.GetSHDegree())
	}
	if cfg.GetS3Region() != "us-east-1" {
		t.Errorf("GetS3Region() = %q, want us-east-1", cfg.GetS3Region())
	}
	if cfg.GetFileRoot() != "" || cfg.GetS3Endpoint() != "" || cfg.GetS3PathStyle() {
		t.Errorf("expected empty fetch settings")
	}

	opts := cfg.FinalizeOptions()
	want := splat.DefaultFinalizeOptions()
	if opts != want {
		t.Errorf("FinalizeOptions() = %+v, want %+v", opts, want)
	}

	m, err := cfg.GetManifest()
	if err != nil || m.TotalFiles() != 66 {
		t.Errorf("GetManifest() = %d files, %v; want 66, nil", m.TotalFiles(), err)
	}
}

func TestLoadLoaderConfig(t *testing.T) {
	path := writeConfig(t, "loader.json", `{
  "engine": "draco",
  "sh_degree": 2,
  "optimize": false,
  "minimum_alpha": 10,
  "compression_level": 0,
  "scene_center": [1, 2, 3],
  "headers": {"Authorization": "Bearer abc"},
  "fetch_timeout": "5s",
  "s3_endpoint": "http://localhost:9000",
  "s3_path_style": true,
  "manifest": [{"name": "opacity", "layers": 2}]
}`)

	cfg, err := LoadLoaderConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetEngine() != "draco" {
		t.Errorf("GetEngine() = %q, want draco", cfg.GetEngine())
	}
	if cfg.GetSHDegree() != 2 {
		t.Errorf("GetSHDegree() = %d, want 2", cfg.GetSHDegree())
	}
	if cfg.GetFetchTimeout() != 5*time.Second {
		t.Errorf("GetFetchTimeout() = %v, want 5s", cfg.GetFetchTimeout())
	}
	if !cfg.GetS3PathStyle() || cfg.GetS3Endpoint() != "http://localhost:9000" {
		t.Errorf("S3 settings not loaded: %v %q", cfg.GetS3PathStyle(), cfg.GetS3Endpoint())
	}

	headers := cfg.GetHeaders()
	headers["Authorization"] = "changed"
	if cfg.Headers["Authorization"] != "Bearer abc" {
		t.Errorf("GetHeaders() must return a copy")
	}

	opts := cfg.FinalizeOptions()
	if opts.Optimize || opts.MinimumAlpha != 10 || opts.CompressionLevel != 0 {
		t.Errorf("FinalizeOptions() = %+v", opts)
	}
	if opts.SceneCenter != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("SceneCenter = %v, want [1 2 3]", opts.SceneCenter)
	}
	// Unset fields keep their defaults.
	if opts.BucketSize != 256 || opts.BlockSize != 5 {
		t.Errorf("expected default bucket/block size, got %d/%v", opts.BucketSize, opts.BlockSize)
	}

	m, err := cfg.GetManifest()
	if err != nil {
		t.Fatalf("GetManifest() error: %v", err)
	}
	if m.TotalFiles() != 6 {
		t.Errorf("TotalFiles() = %d, want 6", m.TotalFiles())
	}
}

func TestLoadLoaderConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "loader.yaml", `{}`, ".json extension"},
		{"bad json", "loader.json", `{"engine": `, "failed to parse config JSON"},
		{"sh degree", "loader.json", `{"sh_degree": 4}`, "sh_degree must be between 0 and 3"},
		{"alpha", "loader.json", `{"minimum_alpha": 300}`, "minimum_alpha"},
		{"compression", "loader.json", `{"compression_level": 2}`, "compression_level"},
		{"section size", "loader.json", `{"section_size": -1}`, "section_size"},
		{"block size", "loader.json", `{"block_size": 0}`, "block_size must be positive"},
		{"bucket size", "loader.json", `{"bucket_size": 0}`, "bucket_size must be positive"},
		{"timeout", "loader.json", `{"fetch_timeout": "soon"}`, "invalid fetch_timeout"},
		{"engine", "loader.json", `{"engine": ""}`, "engine must not be empty"},
		{"manifest", "loader.json", `{"manifest": [{"name": "a/b", "layers": 1}]}`, "must not contain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)
			_, err := LoadLoaderConfig(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadLoaderConfig_MissingFile(t *testing.T) {
	_, err := LoadLoaderConfig(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil || !strings.Contains(err.Error(), "failed to stat config file") {
		t.Errorf("expected stat error, got %v", err)
	}
}

func TestLoadLoaderConfig_TooLarge(t *testing.T) {
	body := `{"headers": {"X": "` + strings.Repeat("a", 1024*1024) + `"}}`
	path := writeConfig(t, "big.json", body)
	_, err := LoadLoaderConfig(path)
	if err == nil || !strings.Contains(err.Error(), "config file too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestGetFetchTimeout_InvalidFallsBack(t *testing.T) {
	bad := "not-a-duration"
	cfg := &LoaderConfig{FetchTimeout: &bad}
	if got := cfg.GetFetchTimeout(); got != 30*time.Second {
		t.Errorf("GetFetchTimeout() = %v, want 30s fallback", got)
	}
}
