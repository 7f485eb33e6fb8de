package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/splat.report/internal/cags"
	"github.com/banshee-data/splat.report/internal/splat"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultConfigPath is the path to the canonical loader defaults file.
const DefaultConfigPath = "config/loader.defaults.json"

// LoaderConfig holds the settings for loading and finalizing CAGS assets.
// Every field is optional; the Get* methods fall back to built-in defaults,
// so partial files are safe.
type LoaderConfig struct {
	// Decode
	Engine   *string `json:"engine,omitempty"`
	SHDegree *int    `json:"sh_degree,omitempty"`

	// Finalize
	Optimize         *bool       `json:"optimize,omitempty"`
	MinimumAlpha     *int        `json:"minimum_alpha,omitempty"`
	CompressionLevel *int        `json:"compression_level,omitempty"`
	SectionSize      *int        `json:"section_size,omitempty"`
	BlockSize        *float64    `json:"block_size,omitempty"`
	BucketSize       *int        `json:"bucket_size,omitempty"`
	SceneCenter      *[3]float64 `json:"scene_center,omitempty"`

	// Fetch
	Headers      map[string]string `json:"headers,omitempty"`
	FetchTimeout *string           `json:"fetch_timeout,omitempty"` // duration string like "30s"
	FileRoot     *string           `json:"file_root,omitempty"`
	S3Region     *string           `json:"s3_region,omitempty"`
	S3Endpoint   *string           `json:"s3_endpoint,omitempty"`
	S3PathStyle  *bool             `json:"s3_path_style,omitempty"`

	// Manifest overrides the built-in attribute table when non-empty.
	Manifest []cags.ManifestEntry `json:"manifest,omitempty"`
}

// EmptyLoaderConfig returns a LoaderConfig with all fields unset.
func EmptyLoaderConfig() *LoaderConfig {
	return &LoaderConfig{}
}

// LoadLoaderConfig loads a LoaderConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadLoaderConfig(path string) (*LoaderConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyLoaderConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory
// or one of its parents. Panics if the file cannot be loaded, intended for
// test setup.
func MustLoadDefaultConfig() *LoaderConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/cags/synthetic/
	}
	for _, path := range candidates {
		if cfg, err := LoadLoaderConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *LoaderConfig) Validate() error {
	if c.Engine != nil && *c.Engine == "" {
		return fmt.Errorf("engine must not be empty")
	}
	if c.SHDegree != nil && (*c.SHDegree < 0 || *c.SHDegree > 3) {
		return fmt.Errorf("sh_degree must be between 0 and 3, got %d", *c.SHDegree)
	}
	if c.MinimumAlpha != nil && (*c.MinimumAlpha < 0 || *c.MinimumAlpha > 255) {
		return fmt.Errorf("minimum_alpha must be between 0 and 255, got %d", *c.MinimumAlpha)
	}
	if c.CompressionLevel != nil && (*c.CompressionLevel < 0 || *c.CompressionLevel > splat.MaxCompressionLevel) {
		return fmt.Errorf("compression_level must be between 0 and %d, got %d", splat.MaxCompressionLevel, *c.CompressionLevel)
	}
	if c.SectionSize != nil && *c.SectionSize < 0 {
		return fmt.Errorf("section_size must be non-negative, got %d", *c.SectionSize)
	}
	if c.BlockSize != nil && *c.BlockSize <= 0 {
		return fmt.Errorf("block_size must be positive, got %f", *c.BlockSize)
	}
	if c.BucketSize != nil && *c.BucketSize <= 0 {
		return fmt.Errorf("bucket_size must be positive, got %d", *c.BucketSize)
	}
	if c.FetchTimeout != nil && *c.FetchTimeout != "" {
		if _, err := time.ParseDuration(*c.FetchTimeout); err != nil {
			return fmt.Errorf("invalid fetch_timeout '%s': %w", *c.FetchTimeout, err)
		}
	}
	if len(c.Manifest) > 0 {
		if _, err := cags.NewManifest(c.Manifest...); err != nil {
			return err
		}
	}
	return nil
}

// GetEngine returns the decode engine name or the default.
func (c *LoaderConfig) GetEngine() string {
	if c.Engine == nil || *c.Engine == "" {
		return "synthetic"
	}
	return *c.Engine
}

// GetSHDegree returns the sh_degree value or the default.
func (c *LoaderConfig) GetSHDegree() int {
	if c.SHDegree == nil {
		return 0
	}
	return *c.SHDegree
}

// GetOptimize returns the optimize value or the default.
func (c *LoaderConfig) GetOptimize() bool {
	if c.Optimize == nil {
		return true
	}
	return *c.Optimize
}

// GetMinimumAlpha returns the minimum_alpha value or the default.
func (c *LoaderConfig) GetMinimumAlpha() uint8 {
	if c.MinimumAlpha == nil {
		return splat.DefaultMinimumAlpha
	}
	return uint8(*c.MinimumAlpha)
}

// GetCompressionLevel returns the compression_level value or the default.
func (c *LoaderConfig) GetCompressionLevel() int {
	if c.CompressionLevel == nil {
		return splat.DefaultCompressionLevel
	}
	return *c.CompressionLevel
}

// GetSectionSize returns the section_size value or the default (0, one
// section per block).
func (c *LoaderConfig) GetSectionSize() int {
	if c.SectionSize == nil {
		return 0
	}
	return *c.SectionSize
}

// GetBlockSize returns the block_size value or the default.
func (c *LoaderConfig) GetBlockSize() float64 {
	if c.BlockSize == nil {
		return splat.DefaultBlockSize
	}
	return *c.BlockSize
}

// GetBucketSize returns the bucket_size value or the default.
func (c *LoaderConfig) GetBucketSize() int {
	if c.BucketSize == nil {
		return splat.DefaultBucketSize
	}
	return *c.BucketSize
}

// GetSceneCenter returns the scene_center value or the origin.
func (c *LoaderConfig) GetSceneCenter() mgl32.Vec3 {
	if c.SceneCenter == nil {
		return mgl32.Vec3{}
	}
	s := *c.SceneCenter
	return mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])}
}

// GetHeaders returns a copy of the configured request headers.
func (c *LoaderConfig) GetHeaders() map[string]string {
	out := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		out[k] = v
	}
	return out
}

// GetFetchTimeout parses and returns the FetchTimeout as a time.Duration.
func (c *LoaderConfig) GetFetchTimeout() time.Duration {
	if c.FetchTimeout == nil || *c.FetchTimeout == "" {
		return 30 * time.Second // default
	}
	d, err := time.ParseDuration(*c.FetchTimeout)
	if err != nil {
		return 30 * time.Second // default on parse error
	}
	return d
}

// GetFileRoot returns the directory file:// fetches are confined to. Empty
// means unrestricted.
func (c *LoaderConfig) GetFileRoot() string {
	if c.FileRoot == nil {
		return ""
	}
	return *c.FileRoot
}

// GetS3Region returns the s3_region value or the default.
func (c *LoaderConfig) GetS3Region() string {
	if c.S3Region == nil || *c.S3Region == "" {
		return "us-east-1"
	}
	return *c.S3Region
}

// GetS3Endpoint returns the custom S3 endpoint, empty for AWS.
func (c *LoaderConfig) GetS3Endpoint() string {
	if c.S3Endpoint == nil {
		return ""
	}
	return *c.S3Endpoint
}

// GetS3PathStyle returns the s3_path_style value or the default.
func (c *LoaderConfig) GetS3PathStyle() bool {
	if c.S3PathStyle == nil {
		return false
	}
	return *c.S3PathStyle
}

// GetManifest returns the configured manifest or the built-in one.
func (c *LoaderConfig) GetManifest() (cags.Manifest, error) {
	if len(c.Manifest) == 0 {
		return cags.DefaultManifest(), nil
	}
	return cags.NewManifest(c.Manifest...)
}

// FinalizeOptions assembles the buffer settings.
func (c *LoaderConfig) FinalizeOptions() splat.FinalizeOptions {
	return splat.FinalizeOptions{
		Optimize:         c.GetOptimize(),
		MinimumAlpha:     c.GetMinimumAlpha(),
		CompressionLevel: c.GetCompressionLevel(),
		SectionSize:      c.GetSectionSize(),
		SceneCenter:      c.GetSceneCenter(),
		BlockSize:        float32(c.GetBlockSize()),
		BucketSize:       c.GetBucketSize(),
	}
}
