package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	config "github.com/maheshrc27/postpilot/configs"
	"golang.org/x/oauth2"
)

// ErrUnsupportedPlatform is returned by the registry for platform names it
// has no adapter for.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

type PublishInput struct {
	Content  string
	Hashtags []string
}

type PublishResult struct {
	PlatformPostID  string
	PlatformPostURL string
}

// PublishError is the single failure type crossing from an adapter into the
// publisher. StatusCode is the platform's HTTP status; RetryAfter carries
// the rate-limit hint in seconds when the platform sent one.
type PublishError struct {
	Platform   string
	StatusCode int
	RetryAfter int
	Body       string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("%s publish failed (%d): %s", e.Platform, e.StatusCode, e.Body)
}

// Publisher is the publish-call side of a platform adapter.
type Publisher interface {
	PublishPost(ctx context.Context, accessToken string, input PublishInput, platformUserID string) (*PublishResult, error)
}

type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

type UserInfo struct {
	ID          string
	Username    string
	DisplayName string
	Scopes      []string
}

// OAuthProvider is the OAuth-facing side of a platform adapter, consumed by
// the connect/callback flow and the token refresher. It is deliberately
// separate from Publisher.
type OAuthProvider interface {
	AuthorizationURL(state string) (string, error)
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*TokenResponse, error)
	FetchUserInfo(ctx context.Context, accessToken, platformUserID string) (*UserInfo, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error)
}

// Registry holds one concrete adapter per supported platform.
type Registry struct {
	publishers map[string]Publisher
	oauth      map[string]OAuthProvider
}

func NewRegistry(cfg config.Config) *Registry {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	twitter := NewTwitterAdapter(cfg, httpClient)
	linkedin := NewLinkedinAdapter(cfg, httpClient)
	bluesky := NewBlueskyAdapter(cfg, httpClient)

	return &Registry{
		publishers: map[string]Publisher{
			"twitter":  twitter,
			"linkedin": linkedin,
			"bluesky":  bluesky,
		},
		oauth: map[string]OAuthProvider{
			"twitter":  twitter,
			"linkedin": linkedin,
			"bluesky":  bluesky,
		},
	}
}

func (r *Registry) Publisher(platformName string) (Publisher, error) {
	p, ok := r.publishers[platformName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, platformName)
	}
	return p, nil
}

func (r *Registry) OAuth(platformName string) (OAuthProvider, error) {
	p, ok := r.oauth[platformName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, platformName)
	}
	return p, nil
}

// FormatContent appends normalized hashtags (leading # enforced) after a
// blank line. Content without hashtags passes through untouched.
func FormatContent(content string, hashtags []string) string {
	if len(hashtags) == 0 {
		return content
	}

	tags := make([]string, 0, len(hashtags))
	for _, tag := range hashtags {
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		tags = append(tags, tag)
	}

	return content + "\n\n" + strings.Join(tags, " ")
}

func tokenResponseFromOauth2(token *oauth2.Token) *TokenResponse {
	expiresIn := 0
	if !token.Expiry.IsZero() {
		expiresIn = int(time.Until(token.Expiry).Seconds())
	}
	return &TokenResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    expiresIn,
	}
}

func publishError(platformName string, resp *http.Response, body []byte) *PublishError {
	retryAfter := 0
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil {
			retryAfter = secs
		}
	}
	return &PublishError{
		Platform:   platformName,
		StatusCode: resp.StatusCode,
		RetryAfter: retryAfter,
		Body:       string(body),
	}
}
