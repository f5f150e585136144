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

const linkedinAPIBase = "https://api.linkedin.com"

type LinkedinAdapter struct {
	cfg     config.Config
	client  *http.Client
	apiBase string
}

func NewLinkedinAdapter(cfg config.Config, client *http.Client) *LinkedinAdapter {
	return &LinkedinAdapter{cfg: cfg, client: client, apiBase: linkedinAPIBase}
}

func (a *LinkedinAdapter) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.cfg.LinkedinClientID,
		ClientSecret: a.cfg.LinkedinClientSecret,
		RedirectURL:  a.cfg.LinkedinRedirectURI,
		Scopes:       []string{"openid", "profile", "email", "w_member_social"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://www.linkedin.com/oauth/v2/authorization",
			TokenURL:  "https://www.linkedin.com/oauth/v2/accessToken",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// PublishPost posts to the LinkedIn REST posts API. The author URN is built
// from the account's platform user id, and the new post's URN comes back in
// the x-restli-id response header rather than the body.
func (a *LinkedinAdapter) PublishPost(ctx context.Context, accessToken string, input PublishInput, platformUserID string) (*PublishResult, error) {
	if platformUserID == "" {
		return nil, &PublishError{
			Platform:   "linkedin",
			StatusCode: http.StatusBadRequest,
			Body:       "linkedin publish requires the platform user id (person URN)",
		}
	}

	body, err := json.Marshal(map[string]interface{}{
		"author":     "urn:li:person:" + platformUserID,
		"commentary": FormatContent(input.Content, input.Hashtags),
		"visibility": "PUBLIC",
		"distribution": map[string]interface{}{
			"feedDistribution": "MAIN_FEED",
		},
		"lifecycleState": "PUBLISHED",
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiBase+"/rest/posts", bytes.NewReader(body))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	req.Header.Set("LinkedIn-Version", "202401")

	resp, err := a.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, publishError("linkedin", resp, respBody)
	}

	postURN := resp.Header.Get("x-restli-id")

	return &PublishResult{
		PlatformPostID:  postURN,
		PlatformPostURL: "https://www.linkedin.com/feed/update/" + postURN,
	}, nil
}

func (a *LinkedinAdapter) AuthorizationURL(state string) (string, error) {
	conf := a.oauthConfig()
	if conf.ClientID == "" || conf.RedirectURL == "" {
		return "", errors.New("linkedin OAuth configuration is incomplete")
	}
	return conf.AuthCodeURL(state), nil
}

func (a *LinkedinAdapter) ExchangeCode(ctx context.Context, code, codeVerifier string) (*TokenResponse, error) {
	token, err := a.oauthConfig().Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return tokenResponseFromOauth2(token), nil
}

func (a *LinkedinAdapter) FetchUserInfo(ctx context.Context, accessToken, platformUserID string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiBase+"/v2/userinfo", nil)
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
		return nil, publishError("linkedin", resp, respBody)
	}

	var result struct {
		Sub   string `json:"sub"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &UserInfo{
		ID:          result.Sub,
		Username:    result.Email,
		DisplayName: result.Name,
	}, nil
}

func (a *LinkedinAdapter) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	tokenSource := a.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	token, err := tokenSource.Token()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return tokenResponseFromOauth2(token), nil
}
