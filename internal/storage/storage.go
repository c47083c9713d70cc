// Package storage is the object store that holds receipts and product images.
package storage

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Buckets used by the storefront.
const (
	BucketReceipts = "receipts"
	BucketProducts = "products"
)

var ErrInvalidKey = errors.New("invalid object key")

// Upload is a file handed in by a user.
type Upload struct {
	Filename string
	Body     io.Reader
}

// ObjectStore uploads objects and resolves their public URLs.
type ObjectStore interface {
	// Upload stores body under bucket/key and returns the object's public URL.
	Upload(bucket, key string, body io.Reader) (string, error)
	PublicURL(bucket, key string) string
}

// ObjectKey builds a collision-resistant key: the upload time in unix millis, then the base filename.
func ObjectKey(now time.Time, filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r < 0x20:
			return -1
		case r == ' ':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		name = "upload"
	}
	return fmt.Sprintf("%d_%s", now.UnixMilli(), name)
}

// FSStore keeps objects as files on an afero filesystem, one directory per bucket.
type FSStore struct {
	fs      afero.Fs
	baseURL string
}

// NewFSStore creates a store rooted at fs. baseURL is the public prefix the objects are served under.
func NewFSStore(fs afero.Fs, baseURL string) *FSStore {
	return &FSStore{fs: fs, baseURL: strings.TrimRight(baseURL, "/")}
}

// NewDiskStore stores objects below dir on the local disk.
func NewDiskStore(dir, baseURL string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %s: %w", dir, err)
	}
	return NewFSStore(afero.NewBasePathFs(afero.NewOsFs(), dir), baseURL), nil
}

// Fs exposes the underlying filesystem so it can be served over HTTP.
func (s *FSStore) Fs() afero.Fs {
	return s.fs
}

func objectPath(bucket, key string) (string, error) {
	if bucket == "" || key == "" || strings.ContainsAny(bucket+key, "/\\") || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q/%q", ErrInvalidKey, bucket, key)
	}
	return path.Join("/", bucket, key), nil
}

// Upload writes body to bucket/key and returns the URL of the stored object. Existing objects
// are never overwritten: when key is taken the object is stored under a disambiguated key.
func (s *FSStore) Upload(bucket, key string, body io.Reader) (string, error) {
	p, err := objectPath(bucket, key)
	if err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	f, err := s.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	for attempt := 0; errors.Is(err, os.ErrExist) && attempt < maxKeyRetries; attempt++ {
		key = disambiguate(key)
		f, err = s.fs.OpenFile(path.Join("/", bucket, key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create object %s/%s: %w", bucket, key, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write object %s/%s: %w", bucket, key, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close object %s/%s: %w", bucket, key, err)
	}
	return s.PublicURL(bucket, key), nil
}

const maxKeyRetries = 3

// disambiguate inserts a short random tag after the timestamp prefix of key.
func disambiguate(key string) string {
	tag := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if i := strings.IndexByte(key, '_'); i >= 0 {
		return key[:i+1] + tag + "_" + key[i+1:]
	}
	return tag + "_" + key
}

// PublicURL returns the URL the object is served under.
func (s *FSStore) PublicURL(bucket, key string) string {
	return s.baseURL + "/" + url.PathEscape(bucket) + "/" + url.PathEscape(key)
}
