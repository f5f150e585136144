package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	config "github.com/maheshrc27/postpilot/configs"
)

// Bluesky access tokens are short-lived session JWTs; the refresher keeps
// them alive well inside this window.
const blueskySessionTTL = 2 * time.Hour

type BlueskyAdapter struct {
	cfg     config.Config
	client  *http.Client
	apiBase string
}

func NewBlueskyAdapter(cfg config.Config, client *http.Client) *BlueskyAdapter {
	return &BlueskyAdapter{cfg: cfg, client: client, apiBase: cfg.BlueskyHost}
}

// PublishPost creates an app.bsky.feed.post record. The account's DID is
// required as the record owner.
func (a *BlueskyAdapter) PublishPost(ctx context.Context, accessToken string, input PublishInput, platformUserID string) (*PublishResult, error) {
	if platformUserID == "" {
		return nil, &PublishError{
			Platform:   "bluesky",
			StatusCode: http.StatusBadRequest,
			Body:       "bluesky publish requires the platform user id (DID)",
		}
	}

	body, err := json.Marshal(map[string]interface{}{
		"repo":       platformUserID,
		"collection": "app.bsky.feed.post",
		"record": map[string]interface{}{
			"$type":     "app.bsky.feed.post",
			"text":      FormatContent(input.Content, input.Hashtags),
			"createdAt": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiBase+"/xrpc/com.atproto.repo.createRecord", bytes.NewReader(body))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, publishError("bluesky", resp, respBody)
	}

	var result struct {
		URI string `json:"uri"`
		CID string `json:"cid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	// URI format: at://did:plc:xxx/app.bsky.feed.post/rkey
	rkey := result.URI
	if idx := strings.LastIndex(result.URI, "/"); idx >= 0 {
		rkey = result.URI[idx+1:]
	}

	return &PublishResult{
		PlatformPostID:  result.CID,
		PlatformPostURL: "https://bsky.app/profile/" + platformUserID + "/post/" + rkey,
	}, nil
}

// AuthorizationURL is not available: bluesky accounts connect with an app
// password session created outside this pipeline.
func (a *BlueskyAdapter) AuthorizationURL(state string) (string, error) {
	return "", errors.New("bluesky does not use OAuth authorization; connect with an app password")
}

func (a *BlueskyAdapter) ExchangeCode(ctx context.Context, code, codeVerifier string) (*TokenResponse, error) {
	return nil, errors.New("bluesky does not use OAuth code exchange")
}

func (a *BlueskyAdapter) FetchUserInfo(ctx context.Context, accessToken, platformUserID string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiBase+"/xrpc/com.atproto.server.getSession", nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, publishError("bluesky", resp, respBody)
	}

	var result struct {
		DID    string `json:"did"`
		Handle string `json:"handle"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &UserInfo{
		ID:          result.DID,
		Username:    result.Handle,
		DisplayName: result.Handle,
	}, nil
}

// RefreshAccessToken rotates the session: the refresh JWT is presented as
// the bearer token and a fresh access/refresh pair comes back.
func (a *BlueskyAdapter) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiBase+"/xrpc/com.atproto.server.refreshSession", nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+refreshToken)

	resp, err := a.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, publishError("bluesky", resp, respBody)
	}

	var result struct {
		AccessJwt  string `json:"accessJwt"`
		RefreshJwt string `json:"refreshJwt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &TokenResponse{
		AccessToken:  result.AccessJwt,
		RefreshToken: result.RefreshJwt,
		ExpiresIn:    int(blueskySessionTTL.Seconds()),
	}, nil
}
