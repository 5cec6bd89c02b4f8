// Package fetcher downloads remote feeds over HTTP.
package fetcher

import "context"

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// DownloadText fetches the URL and returns the body decoded to UTF-8
	// using the charset from the response Content-Type.
	DownloadText(ctx context.Context, url string) (string, error)
}
