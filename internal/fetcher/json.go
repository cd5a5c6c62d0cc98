package fetcher

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// DecodeJSONArray downloads a URL and decodes its body as a JSON array of T.
func DecodeJSONArray[T any](ctx context.Context, f Fetcher, url string) ([]T, error) {
	body, err := f.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	var out []T
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		return nil, eris.Wrapf(err, "fetcher: decode json array from %s", url)
	}
	return out, nil
}

// DecodeJSONObject downloads a URL and decodes its body as a single JSON
// object of type T.
func DecodeJSONObject[T any](ctx context.Context, f Fetcher, url string) (*T, error) {
	body, err := f.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	var out T
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		return nil, eris.Wrapf(err, "fetcher: decode json object from %s", url)
	}
	return &out, nil
}

// ReadAll drains a reader, closing it. Convenience for small payloads.
func ReadAll(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close() //nolint:errcheck
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: read body")
	}
	return b, nil
}
