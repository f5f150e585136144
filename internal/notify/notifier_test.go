package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPublishFailure(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_test_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := &EmailNotifier{
		apiKey: "re_test_key",
		from:   "alerts@postpilot.app",
		client: srv.Client(),
		apiURL: srv.URL,
	}

	err := n.SendPublishFailure(context.Background(), PublishFailure{
		To:           "owner@example.com",
		PostID:       10,
		PostContent:  "hello world",
		Platforms:    []FailedPlatform{{Name: "twitter", Error: "rate limited"}},
		DashboardURL: "https://app.example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, []interface{}{"owner@example.com"}, received["to"])
	html := received["html"].(string)
	assert.Contains(t, html, "hello world")
	assert.Contains(t, html, "twitter")
	assert.Contains(t, html, "https://app.example.com/dashboard/posts/10")
}

func TestSendPublishFailureNoAPIKey(t *testing.T) {
	n := &EmailNotifier{client: &http.Client{Timeout: time.Second}, apiURL: "http://unused"}

	err := n.SendPublishFailure(context.Background(), PublishFailure{To: "owner@example.com"})
	assert.NoError(t, err)
}

func TestSendPublishFailureServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer srv.Close()

	n := &EmailNotifier{apiKey: "re_test_key", client: srv.Client(), apiURL: srv.URL}

	err := n.SendPublishFailure(context.Background(), PublishFailure{To: "owner@example.com"})
	assert.Error(t, err)
}

func TestBuildFailureHTMLEscapesContent(t *testing.T) {
	html := buildFailureHTML(PublishFailure{
		PostContent: "<script>alert(1)</script>",
		Platforms:   []FailedPlatform{{Name: "twitter", Error: "<b>bad</b>"}},
	})
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, "<b>bad</b>")
}
