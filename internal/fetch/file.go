package fetch

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/banshee-data/splat.report/internal/fsutil"
	"github.com/banshee-data/splat.report/internal/security"
)

// FileFetcher reads file:// URLs and bare paths from disk. When Root is set,
// paths resolving outside it are refused with a 403.
type FileFetcher struct {
	Root string
	// FS defaults to the host filesystem.
	FS fsutil.FileSystem
}

// Fetch reads the whole file. Headers are ignored. A missing file is a 404.
func (f *FileFetcher) Fetch(ctx context.Context, rawURL string, _ map[string]string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	path, err := localPath(rawURL)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, StatusCode: http.StatusBadRequest, Err: err}
	}
	if f.Root != "" {
		if err := security.ValidatePathWithinDirectory(path, f.Root); err != nil {
			return nil, &NetworkError{URL: rawURL, StatusCode: http.StatusForbidden, Err: err}
		}
	}

	fsys := f.FS
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	data, err := fsys.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &NetworkError{URL: rawURL, StatusCode: http.StatusNotFound, Err: err}
	}
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	return data, nil
}

func localPath(rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, "file://") {
		return filepath.Clean(rawURL), nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return filepath.FromSlash(u.Path), nil
}
