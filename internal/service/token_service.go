package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/platform"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/pkg/utils"
)

const (
	// The batch refresher runs every 2 hours; the look-ahead window is wider
	// so an overlapping or missed run cannot let a token expire unrefreshed.
	refreshLookahead = 150 * time.Minute

	// refreshConcurrency bounds the batch fan-out of provider round trips.
	refreshConcurrency = 10
)

// OAuthSource resolves an OAuth-capable adapter for a platform name.
// *platform.Registry satisfies it.
type OAuthSource interface {
	OAuth(platformName string) (platform.OAuthProvider, error)
}

type TokenService interface {
	// TryRefreshToken renews an account's access token and returns the new
	// plaintext token. It returns "" (with a nil error for not-refreshable
	// conditions) when the token could not be renewed; callers must treat
	// that as "proceed to generic retry", never as fatal.
	TryRefreshToken(ctx context.Context, accountID int64, platformName string) (string, error)

	// RefreshExpiringTokens proactively renews tokens nearing expiry and
	// deactivates accounts whose refresh attempt fails.
	RefreshExpiringTokens(ctx context.Context) (refreshed, failed int)
}

type tokenService struct {
	cfg      config.Config
	ar       repository.PlatformAccountRepository
	adapters OAuthSource
}

func NewTokenService(cfg config.Config, ar repository.PlatformAccountRepository, adapters OAuthSource) TokenService {
	return &tokenService{cfg: cfg, ar: ar, adapters: adapters}
}

func (s *tokenService) TryRefreshToken(ctx context.Context, accountID int64, platformName string) (string, error) {
	acc, err := s.ar.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if acc == nil || acc.RefreshToken == "" {
		return "", nil
	}

	adapter, err := s.adapters.OAuth(platformName)
	if err != nil {
		slog.Info(err.Error())
		return "", nil
	}

	accessToken, err := s.refreshAccount(ctx, adapter, acc)
	if err != nil {
		slog.Error("token refresh failed",
			"account_id", accountID,
			"platform", platformName,
			"error", err.Error())
		return "", err
	}

	slog.Info("token refreshed", "account_id", accountID, "platform", platformName)
	return accessToken, nil
}

// refreshAccount performs one refresh round trip and persists the
// re-encrypted result. Returns the new plaintext access token.
func (s *tokenService) refreshAccount(ctx context.Context, adapter platform.OAuthProvider, acc *models.PlatformAccount) (string, error) {
	key := utils.DeriveKey(s.cfg.SecretKey)

	refreshToken, err := utils.Decrypt(acc.RefreshToken, key)
	if err != nil {
		return "", err
	}

	tokens, err := adapter.RefreshAccessToken(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(tokens.AccessToken), key)
	if err != nil {
		return "", err
	}

	// Platforms that do not rotate refresh tokens return an empty one; the
	// repository keeps the stored value in that case.
	var encryptedRefreshToken string
	if tokens.RefreshToken != "" {
		encryptedRefreshToken, err = utils.Encrypt([]byte(tokens.RefreshToken), key)
		if err != nil {
			return "", err
		}
	}

	var expiresAt *time.Time
	if tokens.ExpiresIn > 0 {
		t := GetExpiresAt(tokens.ExpiresIn)
		expiresAt = &t
	}

	if err := s.ar.UpdateTokens(ctx, acc.ID, encryptedAccessToken, encryptedRefreshToken, expiresAt); err != nil {
		return "", err
	}

	return tokens.AccessToken, nil
}

func (s *tokenService) RefreshExpiringTokens(ctx context.Context) (int, int) {
	accounts, err := s.ar.ListExpiring(ctx, time.Now().Add(refreshLookahead))
	if err != nil {
		slog.Info(err.Error())
		return 0, 0
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	refreshed, failed := 0, 0

	semaphore := make(chan struct{}, refreshConcurrency)

	for _, acc := range accounts {
		// Accounts without a refresh token cannot be renewed; they are not
		// failures and must stay active.
		if acc.RefreshToken == "" {
			continue
		}

		adapter, err := s.adapters.OAuth(acc.Platform)
		if err != nil {
			slog.Info(err.Error())
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.PlatformAccount, adapter platform.OAuthProvider) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if _, err := s.refreshAccount(ctx, adapter, acc); err != nil {
				slog.Error("scheduled token refresh failed, deactivating account",
					"account_id", acc.ID,
					"platform", acc.Platform,
					"error", err.Error())
				if err := s.ar.SetActive(ctx, acc.ID, false); err != nil {
					slog.Info(err.Error())
				}
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}

			slog.Info("token refreshed", "account_id", acc.ID, "platform", acc.Platform)
			mu.Lock()
			refreshed++
			mu.Unlock()
		}(acc, adapter)
	}

	wg.Wait()

	slog.Info("token refresh scan complete",
		"total", len(accounts),
		"refreshed", refreshed,
		"failed", failed)
	return refreshed, failed
}
