package splat

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/x448/float16"
)

// BufferMagic opens every serialized buffer.
var BufferMagic = [4]byte{'S', 'P', 'L', 'B'}

// BufferVersion is the layout version written by WriteTo.
const BufferVersion uint16 = 1

// Bucket is a run of consecutive records in a section sharing a centre.
// At compression level 1 record positions are stored relative to it.
type Bucket struct {
	Center mgl32.Vec3
	Start  int
	Count  int
}

// Section is an independently addressable group of records.
type Section struct {
	Records    []Record
	Buckets    []Bucket
	BucketSize int
	BlockSize  float32
}

// Buffer is the finalized renderer buffer.
type Buffer struct {
	CompressionLevel int
	SHDegree         int
	SceneCenter      mgl32.Vec3
	Sections         []Section
}

// SplatCount returns the number of records across all sections.
func (b *Buffer) SplatCount() int {
	n := 0
	for _, s := range b.Sections {
		n += len(s.Records)
	}
	return n
}

// BytesPerSplat returns the serialized record stride for the buffer's
// compression level and SH degree.
func (b *Buffer) BytesPerSplat() int {
	sh := SHComponents(b.SHDegree)
	if b.CompressionLevel == 0 {
		// position, scale, rotation and SH as float32, colour+opacity as bytes
		return (3+3+4+sh)*4 + 4
	}
	return (3+3+4+sh)*2 + 4
}

// WriteTo serializes the buffer in little-endian order:
//
//	header:  magic[4] version u16 compression u8 shDegree u8
//	         sections u32 splats u32 sceneCenter f32x3
//	section: splats u32 buckets u32 bucketSize u32 blockSize f32
//	         bucket centres f32x3 each, then the packed records
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}
	le := binary.LittleEndian

	header := struct {
		Magic       [4]byte
		Version     uint16
		Compression uint8
		SHDegree    uint8
		Sections    uint32
		Splats      uint32
		Center      [3]float32
	}{
		Magic:       BufferMagic,
		Version:     BufferVersion,
		Compression: uint8(b.CompressionLevel),
		SHDegree:    uint8(b.SHDegree),
		Sections:    uint32(len(b.Sections)),
		Splats:      uint32(b.SplatCount()),
		Center:      b.SceneCenter,
	}
	if err := binary.Write(cw, le, header); err != nil {
		return cw.n, fmt.Errorf("write buffer header: %w", err)
	}

	for i, s := range b.Sections {
		sh := struct {
			Splats     uint32
			Buckets    uint32
			BucketSize uint32
			BlockSize  float32
		}{uint32(len(s.Records)), uint32(len(s.Buckets)), uint32(s.BucketSize), s.BlockSize}
		if err := binary.Write(cw, le, sh); err != nil {
			return cw.n, fmt.Errorf("write section %d header: %w", i, err)
		}
		for _, bk := range s.Buckets {
			if err := binary.Write(cw, le, [3]float32(bk.Center)); err != nil {
				return cw.n, fmt.Errorf("write section %d bucket: %w", i, err)
			}
		}
		for _, bk := range s.Buckets {
			for _, r := range s.Records[bk.Start : bk.Start+bk.Count] {
				if err := b.writeRecord(cw, r, bk.Center); err != nil {
					return cw.n, fmt.Errorf("write section %d record: %w", i, err)
				}
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

func (b *Buffer) writeRecord(w io.Writer, r Record, center mgl32.Vec3) error {
	le := binary.LittleEndian
	rot := [4]float32{r.Rotation.W, r.Rotation.V[0], r.Rotation.V[1], r.Rotation.V[2]}
	tail := [4]uint8{r.Color[0], r.Color[1], r.Color[2], r.Opacity}

	if b.CompressionLevel == 0 {
		for _, v := range []interface{}{[3]float32(r.Position), [3]float32(r.Scale), rot, r.SH, tail} {
			if err := binary.Write(w, le, v); err != nil {
				return err
			}
		}
		return nil
	}

	offset := r.Position.Sub(center)
	halves := make([]uint16, 0, 10+len(r.SH))
	halves = appendHalves(halves, offset[:]...)
	halves = appendHalves(halves, r.Scale[:]...)
	halves = appendHalves(halves, rot[:]...)
	halves = appendHalves(halves, r.SH...)
	if err := binary.Write(w, le, halves); err != nil {
		return err
	}
	return binary.Write(w, le, tail)
}

func appendHalves(dst []uint16, vs ...float32) []uint16 {
	for _, v := range vs {
		dst = append(dst, float16.Fromfloat32(v).Bits())
	}
	return dst
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
