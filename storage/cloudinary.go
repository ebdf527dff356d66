package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// ErrNotConfigured is returned by a nil store, i.e. when CLOUDINARY_URL is unset.
var ErrNotConfigured = errors.New("file storage is not configured")

// Blob describes an object written to the store.
type Blob struct {
	Key string
	URL string
}

// Cloudinary stores message attachments as raw Cloudinary assets.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
	http   *http.Client
}

func NewCloudinary(url, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &Cloudinary{
		cld:    cld,
		folder: folder,
		http:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *Cloudinary) Upload(ctx context.Context, fileName string, r io.Reader) (Blob, error) {
	if s == nil {
		return Blob{}, ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// raw assets keep the extension as part of the public id
	publicID := uuid.New().String() + strings.ToLower(path.Ext(fileName))
	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       s.folder,
		ResourceType: "raw",
	})
	if err != nil {
		return Blob{}, fmt.Errorf("upload %s: %w", fileName, err)
	}
	if res.Error.Message != "" {
		return Blob{}, fmt.Errorf("upload %s: %s", fileName, res.Error.Message)
	}
	return Blob{Key: res.PublicID, URL: res.SecureURL}, nil
}

// Open streams the asset at url. The caller closes the reader.
func (s *Cloudinary) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	if s == nil {
		return nil, ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("download request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download: unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (s *Cloudinary) Delete(ctx context.Context, key string) error {
	if s == nil {
		return ErrNotConfigured
	}
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     key,
		ResourceType: "raw",
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("delete %s: %s", key, res.Error.Message)
	}
	return nil
}
