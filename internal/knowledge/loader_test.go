package knowledge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/knowledge-dashboard/internal/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingServer serves body with status and counts requests.
func countingServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func writeLocal(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "knowledge.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func missingLocal(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.json")
}

// stubFetcher records calls and optionally blocks until release is closed.
type stubFetcher struct {
	calls   atomic.Int32
	release chan struct{}
	value   any
	err     error
}

func (s *stubFetcher) FetchJSON(_ context.Context, _ string) (any, error) {
	s.calls.Add(1)
	if s.release != nil {
		<-s.release
	}
	return s.value, s.err
}

func TestLoad_RemoteSuccessSkipsLocal(t *testing.T) {
	server, hits := countingServer(t, http.StatusOK, `{"title":"remote"}`)
	// Malformed local file: reading it would be a hard error.
	local := writeLocal(t, `{ broken`)

	loader := NewLoader(fetch.NewClient(time.Second), local, nil)
	doc, err := loader.Load(context.Background(), server.URL)
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, map[string]any{"title": "remote"}, doc.Value)
	assert.Equal(t, SourceRemote, doc.Source)
	assert.Equal(t, server.URL, doc.URL)
	assert.Equal(t, int32(1), hits.Load())
}

func TestLoad_RemoteFailureFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"title":"remote"}`},
		{name: "server error", status: http.StatusInternalServerError, body: ``},
		{name: "non JSON body", status: http.StatusOK, body: `<html><body>oops</body></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := countingServer(t, tt.status, tt.body)
			local := writeLocal(t, `{"title":"local"}`)

			loader := NewLoader(fetch.NewClient(time.Second), local, nil)
			doc, err := loader.Load(context.Background(), server.URL)
			require.NoError(t, err)
			require.NotNil(t, doc)

			assert.Equal(t, map[string]any{"title": "local"}, doc.Value)
			assert.Equal(t, SourceLocal, doc.Source)
		})
	}
}

func TestLoad_RemoteTimeoutFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()
	local := writeLocal(t, `{"title":"local"}`)

	loader := NewLoader(fetch.NewClient(50*time.Millisecond), local, nil)
	doc, err := loader.Load(context.Background(), server.URL)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, SourceLocal, doc.Source)
}

func TestLoad_InvalidURLFallsBack(t *testing.T) {
	local := writeLocal(t, `[1, 2]`)

	loader := NewLoader(fetch.NewClient(time.Second), local, nil)
	doc, err := loader.Load(context.Background(), "::not a url")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, []any{float64(1), float64(2)}, doc.Value)
}

func TestLoad_NoURLMissingFileReturnsNoData(t *testing.T) {
	fetcher := &stubFetcher{}
	loader := NewLoader(fetcher, missingLocal(t), nil)

	doc, err := loader.Load(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, doc)
	assert.Equal(t, int32(0), fetcher.calls.Load())
}

func TestLoad_NoURLReadsLocal(t *testing.T) {
	loader := NewLoader(&stubFetcher{}, writeLocal(t, `{"a": 1}`), nil)

	doc, err := loader.Load(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, map[string]any{"a": float64(1)}, doc.Value)
	assert.Equal(t, SourceLocal, doc.Source)
	assert.Empty(t, doc.URL)
}

func TestLoad_RemoteFailureAndNoLocalReturnsNoData(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	loader := NewLoader(fetcher, missingLocal(t), nil)

	doc, err := loader.Load(context.Background(), "https://example.com/kb.json")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestLoad_MalformedLocalIsHardError(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	loader := NewLoader(fetcher, writeLocal(t, `{"a": `), nil)

	doc, err := loader.Load(context.Background(), "https://example.com/kb.json")
	require.Error(t, err)
	assert.Nil(t, doc)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "failed to parse JSON")
}

func TestLoad_EmptyLocalIsHardError(t *testing.T) {
	loader := NewLoader(nil, writeLocal(t, ``), nil)

	_, err := loader.Load(context.Background(), "")
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestLoad_HardErrorIsNotCached(t *testing.T) {
	local := writeLocal(t, `{ broken`)
	loader := NewLoader(nil, local, nil)

	_, err := loader.Load(context.Background(), "")
	require.Error(t, err)

	require.NoError(t, os.WriteFile(local, []byte(`{"fixed": true}`), 0644))

	doc, err := loader.Load(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, map[string]any{"fixed": true}, doc.Value)
}

func TestLoad_RepeatedCallsFetchOnce(t *testing.T) {
	server, hits := countingServer(t, http.StatusOK, `{"title":"remote"}`)
	loader := NewLoader(fetch.NewClient(time.Second), missingLocal(t), nil)

	first, err := loader.Load(context.Background(), server.URL)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		doc, err := loader.Load(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Same(t, first, doc)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestLoad_CancelledCallerDoesNotCacheFallback(t *testing.T) {
	server, hits := countingServer(t, http.StatusOK, `{"title":"remote"}`)
	local := writeLocal(t, `{"title":"local"}`)
	loader := NewLoader(fetch.NewClient(time.Second), local, nil)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	doc, err := loader.Load(cancelled, server.URL)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, SourceRemote, doc.Source)

	doc, err = loader.Load(context.Background(), server.URL)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, map[string]any{"title": "remote"}, doc.Value)
	assert.Equal(t, int32(1), hits.Load())
}

func TestLoad_FallbackResultIsCached(t *testing.T) {
	server, hits := countingServer(t, http.StatusServiceUnavailable, ``)
	local := writeLocal(t, `{"title":"local"}`)
	loader := NewLoader(fetch.NewClient(time.Second), local, nil)

	for i := 0; i < 3; i++ {
		doc, err := loader.Load(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, SourceLocal, doc.Source)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestLoad_NoDataIsCached(t *testing.T) {
	local := missingLocal(t)
	loader := NewLoader(nil, local, nil)

	doc, err := loader.Load(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, doc)

	// Creating the file later does not change the cached outcome.
	require.NoError(t, os.WriteFile(local, []byte(`{"late": true}`), 0644))

	doc, err = loader.Load(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestLoad_DistinctURLsAreCachedSeparately(t *testing.T) {
	first, firstHits := countingServer(t, http.StatusOK, `{"n":1}`)
	second, secondHits := countingServer(t, http.StatusOK, `{"n":2}`)
	loader := NewLoader(fetch.NewClient(time.Second), missingLocal(t), nil)

	a, err := loader.Load(context.Background(), first.URL)
	require.NoError(t, err)
	b, err := loader.Load(context.Background(), second.URL)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"n": float64(1)}, a.Value)
	assert.Equal(t, map[string]any{"n": float64(2)}, b.Value)
	assert.Equal(t, int32(1), firstHits.Load())
	assert.Equal(t, int32(1), secondHits.Load())
	assert.Equal(t, 2, loader.cache.len())
}

func TestLoad_ConcurrentCallsShareOneFetch(t *testing.T) {
	fetcher := &stubFetcher{
		release: make(chan struct{}),
		value:   map[string]any{"title": "remote"},
	}
	loader := NewLoader(fetcher, missingLocal(t), nil)

	const callers = 8
	results := make([]*Document, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := loader.Load(context.Background(), "https://example.com/kb.json")
			assert.NoError(t, err)
			results[i] = doc
		}(i)
	}

	// Let every caller reach the in-flight load before it completes.
	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(fetcher.release)
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
	for _, doc := range results {
		require.NotNil(t, doc)
		assert.Same(t, results[0], doc)
	}
}

func TestLoadLocal(t *testing.T) {
	doc, err := LoadLocal(writeLocal(t, `"scalar"`))
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "scalar", doc.Value)

	doc, err = LoadLocal(missingLocal(t))
	assert.NoError(t, err)
	assert.Nil(t, doc)
}
