package platform

import (
	"errors"
	"net/http"
	"testing"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatContent(t *testing.T) {
	assert.Equal(t, "hello", FormatContent("hello", nil))
	assert.Equal(t, "hello", FormatContent("hello", []string{}))

	assert.Equal(t, "hello\n\n#go #release", FormatContent("hello", []string{"go", "release"}))
	assert.Equal(t, "hello\n\n#go #release", FormatContent("hello", []string{"#go", "release"}))
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry(config.Config{BlueskyHost: "https://bsky.social"})

	for _, name := range []string{"twitter", "linkedin", "bluesky"} {
		p, err := r.Publisher(name)
		require.NoError(t, err)
		assert.NotNil(t, p)

		o, err := r.OAuth(name)
		require.NoError(t, err)
		assert.NotNil(t, o)
	}

	_, err := r.Publisher("mastodon")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)

	_, err = r.OAuth("")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestPublishErrorMessage(t *testing.T) {
	err := &PublishError{Platform: "twitter", StatusCode: 429, Body: "rate limited"}
	assert.Equal(t, "twitter publish failed (429): rate limited", err.Error())

	var pubErr *PublishError
	wrapped := errors.New("outer")
	assert.False(t, errors.As(wrapped, &pubErr))
	assert.True(t, errors.As(err, &pubErr))
}

func TestPublishErrorRetryAfterHeader(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusTooManyRequests,
		Header:     http.Header{"Retry-After": []string{"120"}},
	}

	err := publishError("twitter", resp, []byte("slow down"))
	assert.Equal(t, 120, err.RetryAfter)
	assert.Equal(t, http.StatusTooManyRequests, err.StatusCode)

	resp.Header.Set("Retry-After", "not-a-number")
	assert.Equal(t, 0, publishError("twitter", resp, nil).RetryAfter)
}
