package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/pkg/utils"
)

var ErrNoTeam = errors.New("user has no team")

type PlatformService interface {
	// ConnectURL builds the provider authorization redirect for a platform.
	ConnectURL(platformName, state string) (string, error)

	// HandleCallback exchanges the authorization code, fetches the account
	// identity and stores the encrypted tokens on the user's team.
	HandleCallback(ctx context.Context, userID int64, platformName, code, codeVerifier string) (int64, error)
}

type platformService struct {
	cfg      config.Config
	ar       repository.PlatformAccountRepository
	tm       repository.TeamRepository
	adapters OAuthSource
}

func NewPlatformService(cfg config.Config, ar repository.PlatformAccountRepository, tm repository.TeamRepository, adapters OAuthSource) PlatformService {
	return &platformService{cfg: cfg, ar: ar, tm: tm, adapters: adapters}
}

func (s *platformService) ConnectURL(platformName, state string) (string, error) {
	adapter, err := s.adapters.OAuth(platformName)
	if err != nil {
		return "", err
	}
	return adapter.AuthorizationURL(state)
}

func (s *platformService) HandleCallback(ctx context.Context, userID int64, platformName, code, codeVerifier string) (int64, error) {
	teamID, err := s.tm.GetIDByOwner(ctx, userID)
	if err != nil {
		return 0, err
	}
	if teamID == 0 {
		return 0, ErrNoTeam
	}

	adapter, err := s.adapters.OAuth(platformName)
	if err != nil {
		return 0, err
	}

	tokens, err := adapter.ExchangeCode(ctx, code, codeVerifier)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	info, err := adapter.FetchUserInfo(ctx, tokens.AccessToken, "")
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	key := utils.DeriveKey(s.cfg.SecretKey)

	encryptedAccessToken, err := utils.Encrypt([]byte(tokens.AccessToken), key)
	if err != nil {
		return 0, err
	}

	var encryptedRefreshToken string
	if tokens.RefreshToken != "" {
		encryptedRefreshToken, err = utils.Encrypt([]byte(tokens.RefreshToken), key)
		if err != nil {
			return 0, err
		}
	}

	var expiresAt *time.Time
	if tokens.ExpiresIn > 0 {
		t := GetExpiresAt(tokens.ExpiresIn)
		expiresAt = &t
	}

	acc := &models.PlatformAccount{
		TeamID:         teamID,
		Platform:       platformName,
		PlatformUserID: info.ID,
		Username:       info.Username,
		DisplayName:    info.DisplayName,
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedRefreshToken,
		TokenExpiresAt: expiresAt,
		Scopes:         info.Scopes,
	}

	id, err := s.ar.Create(ctx, acc)
	if err != nil {
		return 0, err
	}

	slog.Info("platform account connected",
		"account_id", id,
		"platform", platformName,
		"team_id", teamID)
	return id, nil
}
