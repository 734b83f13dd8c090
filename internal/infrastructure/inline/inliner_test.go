package inline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/campus/docgen/internal/domain/document"
	"github.com/campus/docgen/internal/infrastructure/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeFetcher struct {
	calls atomic.Int32
	fn    func(ref string) ([]byte, string, error)
}

func (f *fakeFetcher) FetchBinary(_ context.Context, ref string, _ int64) ([]byte, string, error) {
	f.calls.Add(1)
	return f.fn(ref)
}

type fakeObjects map[string][]byte

func (f fakeObjects) Get(_ context.Context, ref string, _ int64) ([]byte, string, error) {
	data, ok := f[ref]
	if !ok {
		return nil, "", errors.New("no such object")
	}
	return data, "", nil
}

func TestInliner_Primary(t *testing.T) {
	fetcher := &fakeFetcher{fn: func(string) ([]byte, string, error) {
		return pngBytes, "image/png", nil
	}}
	in := New(fetcher, Config{})

	img, ok := in.Inline(context.Background(), document.SignatureAsset{ID: "sig-1", SignatureImageURL: "/files/sig.png"})
	require.True(t, ok)
	assert.Equal(t, "image/png", img.MediaType)

	raw, err := img.Bytes()
	require.NoError(t, err)
	assert.Equal(t, pngBytes, raw)
}

func TestInliner_SniffsMediaType(t *testing.T) {
	fetcher := &fakeFetcher{fn: func(string) ([]byte, string, error) {
		return pngBytes, "application/octet-stream", nil
	}}
	img, ok := New(fetcher, Config{}).Inline(context.Background(), document.SignatureAsset{ID: "s", SignatureImageURL: "/x"})
	require.True(t, ok)
	assert.Equal(t, "image/png", img.MediaType)
}

func TestInliner_RejectsNonImages(t *testing.T) {
	fetcher := &fakeFetcher{fn: func(string) ([]byte, string, error) {
		return []byte("<html>login</html>"), "text/html; charset=utf-8", nil
	}}
	_, ok := New(fetcher, Config{}).Inline(context.Background(), document.SignatureAsset{ID: "s", SignatureImageURL: "/x"})
	assert.False(t, ok)
}

func TestInliner_NoImageURL(t *testing.T) {
	fetcher := &fakeFetcher{fn: func(string) ([]byte, string, error) {
		return pngBytes, "image/png", nil
	}}
	_, ok := New(fetcher, Config{}).Inline(context.Background(), document.SignatureAsset{ID: "s", SignatureImageURL: "  "})
	assert.False(t, ok)
	assert.Zero(t, fetcher.calls.Load())
}

func TestInliner_Fallback(t *testing.T) {
	// CDN that refuses requests carrying credentials
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	defer cdn.Close()

	client, err := backend.NewClient(backend.Config{BaseURL: cdn.URL + "/api", AuthType: "bearer", Token: "t"},
		backend.WithHTTPClient(cdn.Client()))
	require.NoError(t, err)

	asset := document.SignatureAsset{ID: "sig-1", SignatureImageURL: cdn.URL + "/sig.png"}

	t.Run("recovers without credentials", func(t *testing.T) {
		img, ok := New(client, Config{FallbackEnabled: true}, WithPublicClient(cdn.Client())).Inline(context.Background(), asset)
		require.True(t, ok)
		assert.Equal(t, "image/png", img.MediaType)
	})

	t.Run("disabled fallback fails", func(t *testing.T) {
		_, ok := New(client, Config{FallbackEnabled: false}).Inline(context.Background(), asset)
		assert.False(t, ok)
	})

	t.Run("both paths failing", func(t *testing.T) {
		missing := document.SignatureAsset{ID: "sig-2", SignatureImageURL: cdn.URL + "/gone.png"}
		broken := &fakeFetcher{fn: func(string) ([]byte, string, error) {
			return nil, "", &backend.APIError{StatusCode: http.StatusNotFound}
		}}
		down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer down.Close()
		missing.SignatureImageURL = down.URL + "/gone.png"

		_, ok := New(broken, Config{FallbackEnabled: true}).Inline(context.Background(), missing)
		assert.False(t, ok)
	})
}

func TestInliner_ObjectStorage(t *testing.T) {
	fetcher := &fakeFetcher{fn: func(string) ([]byte, string, error) {
		return nil, "", errors.New("unexpected")
	}}
	in := New(fetcher, Config{}, WithObjectStorage(fakeObjects{"s3://sigs/director.png": pngBytes}))

	img, ok := in.Inline(context.Background(), document.SignatureAsset{ID: "d", SignatureImageURL: "s3://sigs/director.png"})
	require.True(t, ok)
	assert.Equal(t, "image/png", img.MediaType)
	assert.Zero(t, fetcher.calls.Load())

	_, ok = New(fetcher, Config{}).Inline(context.Background(), document.SignatureAsset{ID: "d", SignatureImageURL: "s3://sigs/director.png"})
	assert.False(t, ok, "s3 references need object storage")
}

func TestInliner_SharesFetchOnlyWithinSameToken(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()

		time.Sleep(100 * time.Millisecond)
		if r.Header.Get("Authorization") != "Bearer alice" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	defer server.Close()

	client, err := backend.NewClient(backend.Config{BaseURL: server.URL}, backend.WithHTTPClient(server.Client()))
	require.NoError(t, err)
	in := New(client, Config{})
	asset := document.SignatureAsset{ID: "sig-1", SignatureImageURL: "/files/sig.png"}

	var aliceOK, bobOK bool
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, aliceOK = in.Inline(backend.WithToken(context.Background(), "alice"), asset)
	}()
	go func() {
		defer wg.Done()
		_, bobOK = in.Inline(backend.WithToken(context.Background(), "bob"), asset)
	}()
	wg.Wait()

	assert.True(t, aliceOK)
	assert.False(t, bobOK, "bob must not receive an image fetched with alice's token")
	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"Bearer alice", "Bearer bob"}, seen)
}

func TestInliner_CancelledCallerDoesNotFailOthers(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	fetcher := &fakeFetcher{fn: func(string) ([]byte, string, error) {
		once.Do(func() { close(arrived) })
		<-release
		return pngBytes, "image/png", nil
	}}
	in := New(fetcher, Config{Timeout: 5 * time.Second})
	asset := document.SignatureAsset{ID: "sig-1", SignatureImageURL: "/files/sig.png"}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan bool, 1)
	go func() {
		_, ok := in.Inline(firstCtx, asset)
		firstDone <- ok
	}()
	<-arrived

	secondDone := make(chan bool, 1)
	go func() {
		_, ok := in.Inline(context.Background(), asset)
		secondDone <- ok
	}()

	cancelFirst()
	select {
	case ok := <-firstDone:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller kept waiting on the fetch")
	}

	close(release)
	select {
	case ok := <-secondDone:
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("live caller never received the image")
	}
}

func TestInliner_InlineAll(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	fetcher := &fakeFetcher{fn: func(ref string) ([]byte, string, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		if ref == "/bad.png" {
			return nil, "", errors.New("boom")
		}
		return pngBytes, "image/png", nil
	}}

	assets := []document.SignatureAsset{
		{ID: "a", SignatureImageURL: "/a.png"},
		{ID: "b", SignatureImageURL: "/b.png"},
		{ID: "c", SignatureImageURL: "/c.png"},
		{ID: "d", SignatureImageURL: "/d.png"},
		{ID: "bad", SignatureImageURL: "/bad.png"},
		{ID: "none"},
	}

	got := New(fetcher, Config{Concurrency: 2}).InlineAll(context.Background(), assets)

	assert.Len(t, got, 4)
	assert.Contains(t, got, "a")
	assert.NotContains(t, got, "bad")
	assert.NotContains(t, got, "none")
	assert.LessOrEqual(t, maxInFlight.Load(), int32(2))
}

func TestMediaType(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		contentType string
		want        string
	}{
		{"header wins", pngBytes, "image/jpeg", "image/jpeg"},
		{"header with params", pngBytes, "image/png; q=1", "image/png"},
		{"sniffed png", pngBytes, "", "image/png"},
		{"sniffed jpeg", []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), "binary/octet-stream", "image/jpeg"},
		{"plain text", []byte("hello"), "", "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MediaType(tt.data, tt.contentType))
		})
	}
}
