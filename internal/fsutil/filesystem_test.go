package fsutil

import (
	"errors"
	"io/fs"
	"testing"
)

func TestOSFileSystem_ReadFile(t *testing.T) {
	osfs := OSFileSystem{}

	data, err := osfs.ReadFile("filesystem.go")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty file content")
	}

	info, err := osfs.Stat("filesystem.go")
	if err != nil || info.Size() != int64(len(data)) {
		t.Errorf("Stat = %v, %v; want size %d", info, err, len(data))
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()
	payload := []byte("codebook")
	mfs.WriteFile("/assets/garden/../garden/point_cloud.codebook.npz", payload)
	payload[0] = 'X'

	data, err := mfs.ReadFile("/assets/garden/point_cloud.codebook.npz")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "codebook" {
		t.Errorf("ReadFile = %q, want stored copy", data)
	}
	if got := mfs.Reads("/assets/garden/point_cloud.codebook.npz"); got != 1 {
		t.Errorf("Reads = %d, want 1", got)
	}

	info, err := mfs.Stat("/assets/garden/point_cloud.codebook.npz")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Name() != "point_cloud.codebook.npz" || info.Size() != 8 || info.IsDir() {
		t.Errorf("unexpected FileInfo: %s %d %v", info.Name(), info.Size(), info.IsDir())
	}
}

func TestMemoryFileSystem_NotExist(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.ReadFile("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile error = %v, want fs.ErrNotExist", err)
	}
	if _, err := mfs.Stat("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat error = %v, want fs.ErrNotExist", err)
	}
}
