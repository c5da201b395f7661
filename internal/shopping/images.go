package shopping

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/revibe-studio/revibe/internal/models"
)

// minImageBytes guards against retailer placeholder thumbnails; real
// product images are comfortably larger.
const minImageBytes = 1000

// ImageFetcher retrieves candidate product images. Tests substitute a
// fake to avoid the network.
type ImageFetcher interface {
	Fetch(ctx context.Context, imageURL string) ([]byte, error)
}

// Fetcher downloads product images over HTTP.
type Fetcher struct {
	httpClient *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch downloads one image, rejecting placeholder-sized responses.
func (f *Fetcher) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrImageFetchFailed, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrImageFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: image URL returned status %d", models.ErrImageFetchFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrImageFetchFailed, err)
	}

	if len(data) < minImageBytes {
		return nil, fmt.Errorf("%w: image too small (%d bytes, likely placeholder)", models.ErrImageFetchFailed, len(data))
	}

	return data, nil
}

// candidateFilename builds a deterministic, filesystem-safe name for a
// cached product image.
func candidateFilename(productType, imageURL string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '-', r == '_':
			return '_'
		default:
			return -1
		}
	}, productType)
	if len(safe) > 30 {
		safe = safe[:30]
	}
	sum := md5.Sum([]byte(imageURL))
	return fmt.Sprintf("%s_%x.jpg", safe, sum[:6])
}
