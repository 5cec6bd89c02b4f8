package usgs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/quake-cli/internal/apperr"
	"github.com/sells-group/quake-cli/internal/fetcher"
	fetchermocks "github.com/sells-group/quake-cli/internal/fetcher/mocks"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

const sampleFeed = `{"type":"FeatureCollection","features":[]}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second, RatePerSec: 100})
	return NewClient(f, WithBaseURL(srv.URL+"/summary/")), &calls
}

func TestFetch(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/summary/significant_week.geojson", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleFeed))
	})

	text, err := c.Fetch(context.Background(), Request{Format: FormatGeoJSON, Period: PeriodWeek, Magnitude: MagnitudeSignificant})
	require.NoError(t, err)
	assert.Equal(t, sampleFeed, text)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_InvalidMagnitudeNoRequest(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	})

	_, err := c.Fetch(context.Background(), Request{Format: FormatGeoJSON, Period: PeriodDay, Magnitude: "9.9"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConfiguration))
	assert.Contains(t, err.Error(), "9.9")
	assert.Equal(t, int32(0), calls.Load(), "validation must precede any request")
}

func TestFetch_HTTPError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Fetch(context.Background(), DefaultRequest())
	require.Error(t, err)
	assert.Equal(t, apperr.KindTransport, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "usgs: fetch")
}

func TestFetchToFile(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	})
	path := filepath.Join(t.TempDir(), "feed.geojson")

	text, err := c.FetchToFile(context.Background(), DefaultRequest(), path)
	require.NoError(t, err)
	assert.Equal(t, sampleFeed, text)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleFeed, string(data))
}

func TestFetchToFile_NotWrittenOnError(t *testing.T) {
	f := fetchermocks.NewMockFetcher(t)
	f.On("DownloadText", mock.Anything, DefaultBaseURL+"all_month.geojson").
		Return("", apperr.Transport(errors.New("connection reset")))

	path := filepath.Join(t.TempDir(), "feed.geojson")
	_, err := NewClient(f).FetchToFile(context.Background(), DefaultRequest(), path)
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestFetchToFile_BadPath(t *testing.T) {
	f := fetchermocks.NewMockFetcher(t)
	f.On("DownloadText", mock.Anything, mock.Anything).Return(sampleFeed, nil)

	_, err := NewClient(f).FetchToFile(context.Background(), DefaultRequest(), filepath.Join(t.TempDir(), "missing", "feed.geojson"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usgs: write")
}
