package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amywork777/jewelry-sub001/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newFetcherForServer(t *testing.T, srv *httptest.Server, mutate func(*FetcherConfig)) *Fetcher {
	t.Helper()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	cfg := FetcherConfig{
		BearerToken:  "asset-secret",
		AllowedHosts: []string{u.Hostname()},
		Timeout:      5 * time.Second,
		MaxBytes:     1 << 20,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewFetcher(cfg, zap.NewNop())
}

func TestFetchInjectsHeaders(t *testing.T) {
	var gotAuth, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("GLBDATA"))
	}))
	defer srv.Close()

	f := newFetcherForServer(t, srv, nil)
	asset, err := f.Fetch(context.Background(), srv.URL+"/tasks/a/model.glb")
	require.NoError(t, err)

	assert.Equal(t, "Bearer asset-secret", gotAuth)
	assert.Equal(t, userAgent, gotUA)
	assert.Equal(t, []byte("GLBDATA"), asset.Body)
	assert.Equal(t, "model/gltf-binary", asset.ContentType)
}

func TestFetchContentTypeFallsBackToUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		w.Write([]byte("zipbytes"))
	}))
	defer srv.Close()

	f := newFetcherForServer(t, srv, nil)
	asset, err := f.Fetch(context.Background(), srv.URL+"/tasks/a/archive.zip")
	require.NoError(t, err)
	assert.Equal(t, "application/zip", asset.ContentType)
}

func TestFetchHostNotAllowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be reached")
	}))
	defer srv.Close()

	f := newFetcherForServer(t, srv, func(cfg *FetcherConfig) {
		cfg.AllowedHosts = []string{"assets.meshy.ai"}
	})

	_, err := f.Fetch(context.Background(), srv.URL+"/model.glb")
	require.Error(t, err)

	var typed *types.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, types.ErrHostNotAllowed, typed.Code)
	assert.Equal(t, http.StatusForbidden, typed.HTTPStatus)
}

func TestFetchAllowedHostSuffixMatch(t *testing.T) {
	f := NewFetcher(FetcherConfig{AllowedHosts: []string{"meshy.ai"}}, zap.NewNop())

	assert.True(t, f.hostAllowed("assets.meshy.ai"))
	assert.True(t, f.hostAllowed("meshy.ai"))
	assert.False(t, f.hostAllowed("evilmeshy.ai"))
	assert.False(t, f.hostAllowed("meshy.ai.evil.com"))
}

func TestFetchUpstreamStatusPropagates(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode types.ErrorCode
	}{
		{"not found", http.StatusNotFound, types.ErrAssetNotFound},
		{"forbidden", http.StatusForbidden, types.ErrUpstreamError},
		{"server error", http.StatusInternalServerError, types.ErrUpstreamError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			f := newFetcherForServer(t, srv, nil)
			_, err := f.Fetch(context.Background(), srv.URL+"/model.glb")
			require.Error(t, err)

			var typed *types.Error
			require.ErrorAs(t, err, &typed)
			assert.Equal(t, tt.wantCode, typed.Code)
			assert.Equal(t, tt.status, typed.HTTPStatus)
		})
	}
}

func TestFetchAssetTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	f := newFetcherForServer(t, srv, func(cfg *FetcherConfig) {
		cfg.MaxBytes = 1024
	})

	_, err := f.Fetch(context.Background(), srv.URL+"/model.glb")
	require.Error(t, err)

	var typed *types.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, types.ErrAssetTooLarge, typed.Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, typed.HTTPStatus)
}

func TestFetchClientTimeoutMapsToGatewayTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	// 超时来自 http.Client.Timeout 而非调用方 ctx
	f := newFetcherForServer(t, srv, func(cfg *FetcherConfig) {
		cfg.Timeout = 50 * time.Millisecond
	})

	_, err := f.Fetch(context.Background(), srv.URL+"/model.glb")
	require.Error(t, err)

	var typed *types.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, types.ErrUpstreamTimeout, typed.Code)
	assert.Equal(t, http.StatusGatewayTimeout, typed.HTTPStatus)
	assert.True(t, typed.Retryable)
}

func TestFetchInvalidOriginURL(t *testing.T) {
	f := NewFetcher(FetcherConfig{AllowedHosts: []string{"x"}}, zap.NewNop())

	for _, bad := range []string{"", "not a url", "ftp://host/file", "/relative/path"} {
		_, err := f.Fetch(context.Background(), bad)
		require.Error(t, err, "input %q", bad)
		assert.Equal(t, types.ErrInvalidRequest, types.GetErrorCode(err))
	}
}

func TestFetchSingleflightDedup(t *testing.T) {
	var upstreamCalls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls.Add(1)
		<-release
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	f := newFetcherForServer(t, srv, nil)
	target := srv.URL + "/tasks/a/model.glb"

	const concurrent = 8
	var wg sync.WaitGroup
	results := make([]*Asset, concurrent)
	errs := make([]error, concurrent)

	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.Fetch(context.Background(), target)
		}(i)
	}

	// 等待首个请求抵达上游，再放行，确保其余请求已在 singleflight 中等待
	require.Eventually(t, func() bool { return upstreamCalls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < concurrent; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, []byte("payload"), results[i].Body)
	}
	assert.Equal(t, int32(1), upstreamCalls.Load(), "concurrent fetches of the same URL must hit upstream once")
}
