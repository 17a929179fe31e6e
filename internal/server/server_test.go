package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-birthday-bot/internal/config"
)

func get(t *testing.T, h http.Handler, method, path string, header map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	resp := w.Result()
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// -----------------------------------------------------------------------------
// Handler
// -----------------------------------------------------------------------------

func TestHandler_ServingContent(t *testing.T) {
	tests := []struct {
		path string
		mime string
		body string
	}{
		{config.RouteCalendar, config.MimeTextCalendar, "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"},
		{config.RouteRoster, config.MimeVCard, "BEGIN:VCARD\r\nEND:VCARD\r\n"},
	}

	srv := NewFeedServer("0")
	for _, tt := range tests {
		srv.Update(tt.path, []byte(tt.body))
	}
	h := srv.Handler()

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := get(t, h, http.MethodGet, tt.path, nil)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.mime, resp.Header.Get(config.HeaderContentType))
			assert.Equal(t, config.MimeNoSniff, resp.Header.Get(config.HeaderXContentType))
			assert.Equal(t, config.UserAgent, resp.Header.Get(config.HeaderServer))
			assert.NotEmpty(t, resp.Header.Get(config.HeaderETag))

			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.body, string(body))
		})
	}
}

func TestHandler_HeadHasNoBody(t *testing.T) {
	srv := NewFeedServer("0")
	srv.Update(config.RouteCalendar, []byte("DATA"))

	resp := get(t, srv.Handler(), http.MethodHead, config.RouteCalendar, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Empty(t, body)
}

func TestHandler_Caching(t *testing.T) {
	srv := NewFeedServer("0")
	srv.Update(config.RouteCalendar, []byte("DATA_VERSION_1"))
	h := srv.Handler()

	etag := get(t, h, http.MethodGet, config.RouteCalendar, nil).Header.Get(config.HeaderETag)
	require.NotEmpty(t, etag)

	resp := get(t, h, http.MethodGet, config.RouteCalendar, map[string]string{config.HeaderIfNoneMatch: etag})
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Empty(t, body, "Body must be empty on 304 Not Modified")

	srv.Update(config.RouteCalendar, []byte("DATA_VERSION_2"))
	resp = get(t, h, http.MethodGet, config.RouteCalendar, map[string]string{config.HeaderIfNoneMatch: etag})
	assert.Equal(t, http.StatusOK, resp.StatusCode, "A new payload invalidates the old ETag")
}

func TestHandler_IfModifiedSince(t *testing.T) {
	srv := NewFeedServer("0")
	srv.Update(config.RouteRoster, []byte("DATA"))
	h := srv.Handler()

	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	resp := get(t, h, http.MethodGet, config.RouteRoster, map[string]string{config.HeaderIfModifiedSince: future})
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	past := time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)
	resp = get(t, h, http.MethodGet, config.RouteRoster, map[string]string{config.HeaderIfModifiedSince: past})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	srv := NewFeedServer("0")
	srv.Update(config.RouteCalendar, []byte("DATA"))

	resp := get(t, srv.Handler(), http.MethodPost, config.RouteCalendar, nil)

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, config.AllowedMethods, resp.Header.Get(config.HeaderAllow))
}

func TestHandler_Initializing(t *testing.T) {
	srv := NewFeedServer("0")
	srv.Update(config.RouteCalendar, []byte("DATA"))

	resp := get(t, srv.Handler(), http.MethodGet, config.RouteRoster, nil)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, config.RetryAfterSeconds, resp.Header.Get(config.HeaderRetryAfter))
}

func TestHandler_UnknownRoute(t *testing.T) {
	srv := NewFeedServer("0")
	srv.Update("/secret", []byte("DATA"))

	resp := get(t, srv.Handler(), http.MethodGet, "/secret", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// -----------------------------------------------------------------------------
// Concurrency
// -----------------------------------------------------------------------------

// TestServer_RaceCondition runs writers and readers together; run with -race.
func TestServer_RaceCondition(t *testing.T) {
	srv := NewFeedServer("0")
	h := srv.Handler()
	var wg sync.WaitGroup
	end := time.Now().Add(300 * time.Millisecond)

	for w := range 4 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; time.Now().Before(end); i++ {
				srv.Update(config.RouteCalendar, []byte(fmt.Sprintf("VERSION:%d-%d", id, i)))
				time.Sleep(time.Microsecond)
			}
		}(w)
	}

	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, config.RouteCalendar, nil))
				if w.Code != http.StatusOK && w.Code != http.StatusServiceUnavailable {
					t.Errorf("Unexpected status code during race test: %d", w.Code)
				}
			}
		}()
	}

	wg.Wait()
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return strconv.Itoa(port)
}

func TestServer_Lifecycle(t *testing.T) {
	port := freePort(t)
	srv := NewFeedServer(port)
	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)

	go func() { errChan <- srv.Start(ctx) }()

	url := "http://127.0.0.1:" + port + config.RouteCalendar
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return true
	}, 2*time.Second, 50*time.Millisecond, "Server failed to bind/listen in time")

	srv.Update(config.RouteCalendar, []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"))

	resp, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "BEGIN:VCALENDAR")

	cancel()
	select {
	case err := <-errChan:
		assert.NoError(t, err, "Server should shutdown gracefully without error")
	case <-time.After(5 * time.Second):
		t.Fatal("Server shutdown timed out")
	}
}

func TestServer_PortRequired(t *testing.T) {
	err := NewFeedServer("").Start(context.Background())
	assert.EqualError(t, err, config.ErrPortRequired)
}
