package vk_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vkrss/vk"
)

func stubServer(t *testing.T, contentType string, body string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server
}

func TestNewsfeed(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"response": {"items": [], "profiles": [], "groups": []}}`))
	}))
	defer server.Close()

	client := vk.NewClientWithBaseURL(time.Second, server.URL+"/")

	raw, err := client.Newsfeed(context.Background(), "secret")
	require.NoError(t, err)

	assert.JSONEq(t, `{"items": [], "profiles": [], "groups": []}`, string(raw))
	assert.Equal(t, "/method/newsfeed.get", gotPath)
	assert.Equal(t, []string{"secret"}, gotQuery["access_token"])
	assert.Equal(t, []string{"10"}, gotQuery["max_photos"])
	assert.Equal(t, []string{"0"}, gotQuery["language"])
}

func TestCallApiErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantAuth bool
	}{
		{
			name:     "auth error",
			body:     `{"error": {"error_code": 5, "error_msg": "User authorization failed"}}`,
			wantCode: 5,
			wantAuth: true,
		},
		{
			name:     "other error",
			body:     `{"error": {"error_code": 6, "error_msg": "Too many requests per second"}}`,
			wantCode: 6,
			wantAuth: false,
		},
		{
			name:     "missing response payload",
			body:     `{}`,
			wantCode: 1,
			wantAuth: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := stubServer(t, "application/json", tt.body)
			client := vk.NewClientWithBaseURL(time.Second, server.URL+"/")

			_, err := client.Newsfeed(context.Background(), "secret")
			require.Error(t, err)

			var apiErr *vk.ApiError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantAuth, vk.IsAuthError(err))
		})
	}
}

func TestCallRejectsNonJSONResponses(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
	}{
		{
			name:        "no content type",
			contentType: "",
		},
		{
			name:        "html content type",
			contentType: "text/html",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := stubServer(t, tt.contentType, "<html></html>")
			client := vk.NewClientWithBaseURL(time.Second, server.URL+"/")

			_, err := client.Newsfeed(context.Background(), "secret")
			require.Error(t, err)
			assert.False(t, vk.IsAuthError(err))

			var apiErr *vk.ApiError
			assert.False(t, errors.As(err, &apiErr))
		})
	}
}
