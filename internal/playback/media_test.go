package playback

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpener(t *testing.T, handler http.HandlerFunc) (*CacheOpener, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	o, err := NewCacheOpener(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	o.httpClient = server.Client()
	o.probe = func(_ context.Context, path string) (time.Duration, error) {
		info, err := os.Stat(path)
		if err != nil {
			return 0, err
		}
		return time.Duration(info.Size()) * time.Second, nil
	}
	return o, server
}

func TestCacheOpener_DownloadsOnceAndProbes(t *testing.T) {
	var hits atomic.Int32
	o, server := newTestOpener(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("0123456789"))
	})
	url := server.URL + "/audio/001.mp3"

	res, err := o.Open(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, res.Duration())

	_, err = o.Open(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "second open is served from the cache")

	data, err := os.ReadFile(o.Path(url))
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))
}

func TestCacheOpener_UpstreamFailure(t *testing.T) {
	o, server := newTestOpener(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	_, err := o.Open(context.Background(), server.URL+"/missing.mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")

	_, statErr := os.Stat(o.Path(server.URL + "/missing.mp3"))
	assert.True(t, os.IsNotExist(statErr), "failed downloads leave nothing behind")
}

// stallingHandler serves /slow.mp3 only after release is closed and every
// other path immediately.
func stallingHandler(started chan<- struct{}, release <-chan struct{}, slowHits *atomic.Int32) http.HandlerFunc {
	var once sync.Once
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow.mp3" {
			slowHits.Add(1)
			once.Do(func() { close(started) })
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
		}
		_, _ = w.Write([]byte("0123456789"))
	}
}

func TestCacheOpener_StalledDownloadDoesNotBlockOtherURLs(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var slowHits atomic.Int32
	o, server := newTestOpener(t, stallingHandler(started, release, &slowHits))
	slowDone := make(chan struct{})
	t.Cleanup(func() {
		close(release)
		<-slowDone
	})

	_, err := o.Open(context.Background(), server.URL+"/fast.mp3")
	require.NoError(t, err)

	go func() {
		defer close(slowDone)
		_, _ = o.Open(context.Background(), server.URL+"/slow.mp3")
	}()
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("slow download never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	_, err = o.Open(ctx, server.URL+"/fast.mp3")
	require.NoError(t, err)
	_, err = o.Open(ctx, server.URL+"/other.mp3")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestCacheOpener_WaiterHonorsContext(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var slowHits atomic.Int32
	o, server := newTestOpener(t, stallingHandler(started, release, &slowHits))
	url := server.URL + "/slow.mp3"

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := o.Open(ctx, url)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The abandoned download keeps going and fills the cache.
	close(release)
	res, err := o.Open(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, res.Duration())
	assert.Equal(t, int32(1), slowHits.Load())
}

func TestCacheOpener_ConcurrentOpensShareDownload(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var slowHits atomic.Int32
	o, server := newTestOpener(t, stallingHandler(started, release, &slowHits))
	url := server.URL + "/slow.mp3"

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Go(func() {
			_, errs[i] = o.Open(context.Background(), url)
		})
	}

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("download never started")
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), slowHits.Load())
}

func TestCacheOpener_PathKeepsExtension(t *testing.T) {
	o, err := NewCacheOpener(t.TempDir(), slog.Default())
	require.NoError(t, err)

	assert.Equal(t, ".m4a", filepath.Ext(o.Path("https://cdn/a.m4a?x=1")))
	assert.Equal(t, ".mp3", filepath.Ext(o.Path("https://cdn/stream")))
	assert.NotEqual(t, o.Path("https://cdn/a.mp3"), o.Path("https://cdn/b.mp3"))
}

func TestNewCacheOpener_RequiresPath(t *testing.T) {
	_, err := NewCacheOpener("", slog.Default())
	assert.Error(t, err)
}

func TestClockResource_PlayPauseSeek(t *testing.T) {
	r := NewClockResource(time.Minute)
	t.Cleanup(func() { _ = r.Close() })

	require.NoError(t, r.Seek(30*time.Second))
	assert.Equal(t, 30*time.Second, r.Position())

	require.NoError(t, r.Play())
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, r.Pause())

	pos := r.Position()
	assert.Greater(t, pos, 30*time.Second)
	assert.Less(t, pos, 31*time.Second)

	require.NoError(t, r.Seek(2*time.Minute))
	assert.Equal(t, time.Minute, r.Position())
}

func TestClockResource_SignalsEnd(t *testing.T) {
	r := NewClockResource(20 * time.Millisecond)
	t.Cleanup(func() { _ = r.Close() })

	require.NoError(t, r.Play())

	select {
	case err := <-r.Finished():
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("resource never finished")
	}
	assert.Equal(t, 20*time.Millisecond, r.Position())
}

func TestClockResource_PauseCancelsEnd(t *testing.T) {
	r := NewClockResource(30 * time.Millisecond)
	t.Cleanup(func() { _ = r.Close() })

	require.NoError(t, r.Play())
	require.NoError(t, r.Pause())

	select {
	case <-r.Finished():
		t.Fatal("paused resource must not finish")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestClockResource_ClosedRejectsCommands(t *testing.T) {
	r := NewClockResource(time.Minute)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	assert.Error(t, r.Play())
	assert.Error(t, r.Seek(time.Second))
	assert.Error(t, r.SetVolume(0.5))
}
