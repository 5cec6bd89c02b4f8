package usgs

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/quake-cli/internal/fetcher"
)

// Client fetches summary feeds.
type Client interface {
	// Fetch validates req, performs one GET and returns the body as text.
	Fetch(ctx context.Context, req Request) (string, error)
	// FetchToFile is Fetch that also writes the text verbatim to path.
	FetchToFile(ctx context.Context, req Request, path string) (string, error)
}

// Option configures the client.
type Option func(*client)

// WithBaseURL overrides the feed root.
func WithBaseURL(u string) Option {
	return func(c *client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

type client struct {
	fetcher fetcher.Fetcher
	baseURL string
}

// NewClient creates a feed client over the given fetcher.
func NewClient(f fetcher.Fetcher, opts ...Option) Client {
	c := &client{fetcher: f, baseURL: DefaultBaseURL}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *client) Fetch(ctx context.Context, req Request) (string, error) {
	u, err := req.URL(c.baseURL)
	if err != nil {
		return "", err
	}

	zap.L().Info("usgs: fetching feed", zap.String("url", u))
	text, err := c.fetcher.DownloadText(ctx, u)
	if err != nil {
		return "", eris.Wrap(err, "usgs: fetch")
	}
	zap.L().Debug("usgs: fetched feed", zap.String("url", u), zap.Int("bytes", len(text)))
	return text, nil
}

func (c *client) FetchToFile(ctx context.Context, req Request, path string) (string, error) {
	text, err := c.Fetch(ctx, req)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", eris.Wrapf(err, "usgs: write %s", path)
	}
	return text, nil
}
