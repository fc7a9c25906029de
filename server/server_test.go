package server_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vkrss/config"
	"vkrss/server"
	"vkrss/vk"
)

const timelineBody = `{"response": {
	"items": [{"type": "post", "source_id": 1, "date": 100, "post_id": 7, "text": "hello"}],
	"profiles": [{"uid": 1, "first_name": "Alice", "last_name": "Smith", "photo": "http://a/"}],
	"groups": []
}}`

func newApp(t *testing.T, upstreamBody string) (*http.Request, *server.ServerConfig) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(upstreamBody))
	}))
	t.Cleanup(upstream.Close)

	cfg := &server.ServerConfig{
		Hostname:    "localhost",
		Client:      vk.NewClientWithBaseURL(time.Second, upstream.URL+"/"),
		CaptureMode: config.CaptureOff,
	}

	return httptest.NewRequest(http.MethodGet, "/vk", nil), cfg
}

func TestVKHandlerRequiresToken(t *testing.T) {
	req, cfg := newApp(t, timelineBody)
	app := server.Server(cfg)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"),
		"Please enter VK access_token in password box.")
}

func TestVKHandlerServesFeed(t *testing.T) {
	req, cfg := newApp(t, timelineBody)
	req.SetBasicAuth("any", "token")
	app := server.Server(cfg)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/rss+xml", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	parsed, err := gofeed.NewParser().ParseString(string(body))
	require.NoError(t, err)

	assert.Equal(t, "ВКонтакте: Новости", parsed.Title)
	require.Len(t, parsed.Items, 1)
	assert.Equal(t, "id1/post/100", parsed.Items[0].GUID)
}

func TestVKHandlerRejectedToken(t *testing.T) {
	req, cfg := newApp(t,
		`{"error": {"error_code": 5, "error_msg": "User authorization failed"}}`)
	req.SetBasicAuth("any", "expired")
	app := server.Server(cfg)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "error")
}

func TestVKHandlerUpstreamFailure(t *testing.T) {
	req, cfg := newApp(t,
		`{"error": {"error_code": 6, "error_msg": "Too many requests per second"}}`)
	req.SetBasicAuth("any", "token")
	app := server.Server(cfg)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestVKHandlerMalformedTimeline(t *testing.T) {
	req, cfg := newApp(t, `{"response": {"items": []}}`)
	req.SetBasicAuth("any", "token")
	app := server.Server(cfg)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	_, cfg := newApp(t, timelineBody)
	app := server.Server(cfg)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "vkrss_feeds_generated_total")
}
