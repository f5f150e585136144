package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	config "github.com/maheshrc27/postpilot/configs"
	"golang.org/x/oauth2"
)

const twitterAPIBase = "https://api.x.com"

type TwitterAdapter struct {
	cfg     config.Config
	client  *http.Client
	apiBase string
}

func NewTwitterAdapter(cfg config.Config, client *http.Client) *TwitterAdapter {
	return &TwitterAdapter{cfg: cfg, client: client, apiBase: twitterAPIBase}
}

func (a *TwitterAdapter) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.cfg.TwitterClientID,
		ClientSecret: a.cfg.TwitterClientSecret,
		RedirectURL:  a.cfg.TwitterRedirectURI,
		Scopes:       []string{"tweet.read", "tweet.write", "users.read", "offline.access"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://x.com/i/oauth2/authorize",
			TokenURL:  a.apiBase + "/2/oauth2/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

func (a *TwitterAdapter) PublishPost(ctx context.Context, accessToken string, input PublishInput, platformUserID string) (*PublishResult, error) {
	body, err := json.Marshal(map[string]string{
		"text": FormatContent(input.Content, input.Hashtags),
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiBase+"/2/tweets", bytes.NewReader(body))
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
		return nil, publishError("twitter", resp, respBody)
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &PublishResult{
		PlatformPostID:  result.Data.ID,
		PlatformPostURL: "https://x.com/i/web/status/" + result.Data.ID,
	}, nil
}

func (a *TwitterAdapter) AuthorizationURL(state string) (string, error) {
	conf := a.oauthConfig()
	if conf.ClientID == "" || conf.RedirectURL == "" {
		return "", errors.New("twitter OAuth configuration is incomplete")
	}
	return conf.AuthCodeURL(state), nil
}

func (a *TwitterAdapter) ExchangeCode(ctx context.Context, code, codeVerifier string) (*TokenResponse, error) {
	opts := []oauth2.AuthCodeOption{}
	if codeVerifier != "" {
		opts = append(opts, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	}

	token, err := a.oauthConfig().Exchange(ctx, code, opts...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return tokenResponseFromOauth2(token), nil
}

func (a *TwitterAdapter) FetchUserInfo(ctx context.Context, accessToken, platformUserID string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiBase+"/2/users/me", nil)
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
		return nil, publishError("twitter", resp, respBody)
	}

	var result struct {
		Data struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &UserInfo{
		ID:          result.Data.ID,
		Username:    result.Data.Username,
		DisplayName: result.Data.Name,
	}, nil
}

func (a *TwitterAdapter) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	tokenSource := a.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	token, err := tokenSource.Token()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return tokenResponseFromOauth2(token), nil
}
