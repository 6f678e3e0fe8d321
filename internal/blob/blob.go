// Package blob stores uploaded binary objects (note images, avatars) and
// reports upload progress. The filesystem implementation keeps the service
// self-contained; the Store interface is what handlers depend on.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ProgressFunc receives incremental upload progress. total is -1 when the
// object size is unknown up front.
type ProgressFunc func(written, total int64)

// Store saves objects under a key and resolves them to an address clients
// can fetch.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader, total int64, onProgress ProgressFunc) (string, error)
}

// ErrBadKey rejects keys that escape the storage root or are empty.
var ErrBadKey = errors.New("invalid object key")

// FSStore writes objects below a local directory and returns addresses under
// a configured public base URL.
type FSStore struct {
	dir     string
	baseURL string
}

// NewFSStore creates the storage root if needed.
func NewFSStore(dir, baseURL string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FSStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save streams r into the object at key, invoking onProgress as bytes land.
// The returned address is baseURL joined with the key. A failed write leaves
// no partial object behind, but callers performing multi-object operations
// get no rollback of objects already saved.
func (s *FSStore) Save(ctx context.Context, key string, r io.Reader, total int64, onProgress ProgressFunc) (string, error) {
	clean := path.Clean(key)
	if clean == "" || clean == "." || path.IsAbs(clean) ||
		clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrBadKey
	}

	dst := filepath.Join(s.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}

	if err := copyWithProgress(ctx, f, r, total, onProgress); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("close object: %w", err)
	}
	return s.baseURL + "/" + clean, nil
}

func copyWithProgress(ctx context.Context, w io.Writer, r io.Reader, total int64, onProgress ProgressFunc) error {
	buf := make([]byte, 32*1024)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return fmt.Errorf("write object: %w", werr)
			}
			written += int64(n)
			if onProgress != nil {
				onProgress(written, total)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read upload: %w", err)
		}
	}
}
