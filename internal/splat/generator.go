package splat

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Defaults used by the standard generator when a FinalizeOptions field is
// left at its zero value.
const (
	DefaultMinimumAlpha     = 1
	DefaultCompressionLevel = 1
	DefaultBlockSize        = 5.0
	DefaultBucketSize       = 256
	MaxCompressionLevel     = 1
)

// FinalizeOptions are the caller-supplied buffer parameters. They are passed
// through the loader untouched.
type FinalizeOptions struct {
	// Optimize re-partitions records into spatial sections and honours
	// CompressionLevel. When false the records are wrapped uncompressed in a
	// single section.
	Optimize         bool
	MinimumAlpha     uint8
	CompressionLevel int
	// SectionSize caps the number of records per section; 0 means one
	// section per spatial block.
	SectionSize int
	SceneCenter mgl32.Vec3
	BlockSize   float32
	BucketSize  int
}

// DefaultFinalizeOptions mirrors the standard generator settings.
func DefaultFinalizeOptions() FinalizeOptions {
	return FinalizeOptions{
		Optimize:         true,
		MinimumAlpha:     DefaultMinimumAlpha,
		CompressionLevel: DefaultCompressionLevel,
		BlockSize:        DefaultBlockSize,
		BucketSize:       DefaultBucketSize,
	}
}

// Validate checks the option ranges.
func (o FinalizeOptions) Validate() error {
	if o.CompressionLevel < 0 || o.CompressionLevel > MaxCompressionLevel {
		return fmt.Errorf("compression level must be between 0 and %d, got %d", MaxCompressionLevel, o.CompressionLevel)
	}
	if o.SectionSize < 0 {
		return fmt.Errorf("section size must be non-negative, got %d", o.SectionSize)
	}
	if o.BucketSize < 0 {
		return fmt.Errorf("bucket size must be non-negative, got %d", o.BucketSize)
	}
	if o.BlockSize < 0 || math.IsNaN(float64(o.BlockSize)) {
		return fmt.Errorf("block size must be non-negative, got %v", o.BlockSize)
	}
	return nil
}

// Finalizer turns an ordered record array into a renderer buffer.
type Finalizer interface {
	Finalize(a *Array, opts FinalizeOptions) (*Buffer, error)
}

// Generator is the standard Finalizer.
type Generator struct{}

var _ Finalizer = Generator{}

// Finalize builds a Buffer from a. Records with opacity below
// opts.MinimumAlpha are dropped; the rest keep their relative order inside
// each section.
func (Generator) Finalize(a *Array, opts FinalizeOptions) (*Buffer, error) {
	if a == nil {
		return nil, fmt.Errorf("finalize: nil splat array")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("finalize: %w", err)
	}
	bucketSize := opts.BucketSize
	if bucketSize == 0 {
		bucketSize = DefaultBucketSize
	}
	blockSize := opts.BlockSize
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}

	kept := make([]Record, 0, a.Len())
	for _, r := range a.Records() {
		if r.Opacity >= opts.MinimumAlpha {
			kept = append(kept, r)
		}
	}

	buf := &Buffer{SHDegree: a.SHDegree}
	if !opts.Optimize {
		buf.CompressionLevel = 0
		if len(kept) > 0 {
			buf.Sections = []Section{newSection(kept, bucketSize, blockSize)}
		}
		return buf, nil
	}

	buf.CompressionLevel = opts.CompressionLevel
	buf.SceneCenter = opts.SceneCenter
	for _, block := range partitionBlocks(kept, opts.SceneCenter, blockSize) {
		for _, chunk := range chunk(block, opts.SectionSize) {
			buf.Sections = append(buf.Sections, newSection(chunk, bucketSize, blockSize))
		}
	}
	return buf, nil
}

type blockKey [3]int32

// partitionBlocks groups records by the blockSize cube they fall in relative
// to center. Blocks are returned in first-seen order.
func partitionBlocks(records []Record, center mgl32.Vec3, blockSize float32) [][]Record {
	index := make(map[blockKey]int)
	var blocks [][]Record
	for _, r := range records {
		rel := r.Position.Sub(center)
		key := blockKey{
			int32(math.Floor(float64(rel[0] / blockSize))),
			int32(math.Floor(float64(rel[1] / blockSize))),
			int32(math.Floor(float64(rel[2] / blockSize))),
		}
		i, ok := index[key]
		if !ok {
			i = len(blocks)
			index[key] = i
			blocks = append(blocks, nil)
		}
		blocks[i] = append(blocks[i], r)
	}
	return blocks
}

func chunk(records []Record, size int) [][]Record {
	if size <= 0 || len(records) <= size {
		return [][]Record{records}
	}
	var out [][]Record
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		out = append(out, records[start:end])
	}
	return out
}

func newSection(records []Record, bucketSize int, blockSize float32) Section {
	s := Section{Records: records, BucketSize: bucketSize, BlockSize: blockSize}
	for start := 0; start < len(records); start += bucketSize {
		end := start + bucketSize
		if end > len(records) {
			end = len(records)
		}
		var sum mgl32.Vec3
		for _, r := range records[start:end] {
			sum = sum.Add(r.Position)
		}
		s.Buckets = append(s.Buckets, Bucket{
			Center: sum.Mul(1 / float32(end-start)),
			Start:  start,
			Count:  end - start,
		})
	}
	return s
}
