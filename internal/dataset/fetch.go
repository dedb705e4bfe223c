package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Fetcher retrieves the raw bytes of a dataset source.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// SourceFetcher reads http(s) URLs over HTTP and everything else from disk.
type SourceFetcher struct {
	Client *http.Client
	// MaxBytes bounds a single download; zero means maxBody.
	MaxBytes int64
}

const maxBody = 256 << 20

// Fetch implements Fetcher.
func (f SourceFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if !IsRemote(source) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return os.ReadFile(source)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}
	limit := f.MaxBytes
	if limit <= 0 {
		limit = maxBody
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

// IsRemote reports whether source is fetched over HTTP.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// FetchSamples fetches and decodes a surface dataset.
func FetchSamples(ctx context.Context, f Fetcher, source string) ([]SamplePoint, error) {
	data, err := f.Fetch(ctx, source)
	if err != nil {
		return nil, &FetchError{Source: source, Err: err}
	}
	pts, err := DecodeSamples(bytes.NewReader(data))
	if err != nil {
		return nil, &FetchError{Source: source, Err: err}
	}
	return pts, nil
}

// FetchVoxels fetches and decodes a voxel dataset.
func FetchVoxels(ctx context.Context, f Fetcher, source string) ([]Voxel, error) {
	data, err := f.Fetch(ctx, source)
	if err != nil {
		return nil, &FetchError{Source: source, Err: err}
	}
	vs, err := DecodeVoxels(bytes.NewReader(data))
	if err != nil {
		return nil, &FetchError{Source: source, Err: err}
	}
	return vs, nil
}
