package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/oksasatya/linkcircle/internal/domain/apperror"
	"github.com/oksasatya/linkcircle/pkg/helpers"
)

// MaxImageBytes caps a single profile image upload.
const MaxImageBytes = 5 << 20

var ErrImageTooLarge = apperror.Invalid("image", "must be at most 5MB")

var allowedExt = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

// GCSImageStore writes profile images to a Cloud Storage bucket and returns public URLs.
type GCSImageStore struct {
	Client *gcs.Client
	Bucket string
}

func NewGCSImageStore(client *gcs.Client, bucket string) *GCSImageStore {
	return &GCSImageStore{Client: client, Bucket: bucket}
}

func (s *GCSImageStore) Save(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	ext, err := imageExt(filename)
	if err != nil {
		return "", err
	}
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+ext))
	return helpers.UploadObject(ctx, s.Client, s.Bucket, objectPath, contentType, limit(r))
}

// DiskImageStore writes profile images under Dir; they are served at /uploads.
type DiskImageStore struct {
	Dir string
}

func NewDiskImageStore(dir string) (*DiskImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskImageStore{Dir: dir}, nil
}

func (s *DiskImageStore) Save(_ context.Context, _ string, r io.Reader, filename, _ string) (string, error) {
	ext, err := imageExt(filename)
	if err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), sanitize(base), ext)

	f, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	if _, err := io.Copy(f, limit(r)); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, filepath.Join(s.Dir, name)); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return "/uploads/" + name, nil
}

func imageExt(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", apperror.Invalid("image", "must be a png, jpg, gif or webp file")
	}
	return ext, nil
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "image"
	}
	return b.String()
}

type limitedReader struct {
	r io.Reader
	n int64
}

func limit(r io.Reader) io.Reader { return &limitedReader{r: r, n: MaxImageBytes + 1} }

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.n <= 0 {
		return 0, ErrImageTooLarge
	}
	if int64(len(p)) > l.n {
		p = p[:l.n]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	if l.n <= 0 && err == nil {
		return n, ErrImageTooLarge
	}
	return n, err
}
