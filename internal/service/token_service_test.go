package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/platform"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenAccountRepo struct {
	repository.PlatformAccountRepository
	mu          sync.Mutex
	accounts    map[int64]*models.PlatformAccount
	expiring    []*models.PlatformAccount
	updated     map[int64]string
	deactivated []int64
}

func (f *tokenAccountRepo) GetByID(ctx context.Context, id int64) (*models.PlatformAccount, error) {
	return f.accounts[id], nil
}

func (f *tokenAccountRepo) ListExpiring(ctx context.Context, until time.Time) ([]*models.PlatformAccount, error) {
	return f.expiring, nil
}

func (f *tokenAccountRepo) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = make(map[int64]string)
	}
	f.updated[id] = accessToken
	return nil
}

func (f *tokenAccountRepo) SetActive(ctx context.Context, id int64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !active {
		f.deactivated = append(f.deactivated, id)
	}
	return nil
}

type fakeOAuthProvider struct {
	platform.OAuthProvider
	tokens *platform.TokenResponse
	err    error
}

func (f *fakeOAuthProvider) RefreshAccessToken(ctx context.Context, refreshToken string) (*platform.TokenResponse, error) {
	return f.tokens, f.err
}

type fakeOAuthSource struct {
	providers map[string]platform.OAuthProvider
}

func (f *fakeOAuthSource) OAuth(platformName string) (platform.OAuthProvider, error) {
	p, ok := f.providers[platformName]
	if !ok {
		return nil, platform.ErrUnsupportedPlatform
	}
	return p, nil
}

func encryptedAccount(t *testing.T, cfg config.Config, id int64, platformName string) *models.PlatformAccount {
	t.Helper()
	key := utils.DeriveKey(cfg.SecretKey)

	access, err := utils.Encrypt([]byte("old-access"), key)
	require.NoError(t, err)
	refresh, err := utils.Encrypt([]byte("old-refresh"), key)
	require.NoError(t, err)

	return &models.PlatformAccount{
		ID:           id,
		Platform:     platformName,
		AccessToken:  access,
		RefreshToken: refresh,
		IsActive:     true,
	}
}

func TestTryRefreshToken(t *testing.T) {
	cfg := config.Config{SecretKey: "test-secret"}
	acc := encryptedAccount(t, cfg, 1, "twitter")

	repo := &tokenAccountRepo{accounts: map[int64]*models.PlatformAccount{1: acc}}
	source := &fakeOAuthSource{providers: map[string]platform.OAuthProvider{
		"twitter": &fakeOAuthProvider{tokens: &platform.TokenResponse{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresIn:    7200,
		}},
	}}

	s := NewTokenService(cfg, repo, source)

	token, err := s.TryRefreshToken(context.Background(), 1, "twitter")
	require.NoError(t, err)
	assert.Equal(t, "new-access", token)

	stored, err := utils.Decrypt(repo.updated[1], utils.DeriveKey(cfg.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, "new-access", stored)
}

func TestTryRefreshTokenNotRefreshable(t *testing.T) {
	cfg := config.Config{SecretKey: "test-secret"}
	source := &fakeOAuthSource{providers: map[string]platform.OAuthProvider{}}

	t.Run("unknown account", func(t *testing.T) {
		repo := &tokenAccountRepo{accounts: map[int64]*models.PlatformAccount{}}
		token, err := NewTokenService(cfg, repo, source).TryRefreshToken(context.Background(), 99, "twitter")
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("no refresh token", func(t *testing.T) {
		acc := encryptedAccount(t, cfg, 1, "twitter")
		acc.RefreshToken = ""
		repo := &tokenAccountRepo{accounts: map[int64]*models.PlatformAccount{1: acc}}
		token, err := NewTokenService(cfg, repo, source).TryRefreshToken(context.Background(), 1, "twitter")
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("unsupported platform", func(t *testing.T) {
		acc := encryptedAccount(t, cfg, 1, "myspace")
		repo := &tokenAccountRepo{accounts: map[int64]*models.PlatformAccount{1: acc}}
		token, err := NewTokenService(cfg, repo, source).TryRefreshToken(context.Background(), 1, "myspace")
		require.NoError(t, err)
		assert.Empty(t, token)
	})
}

func TestTryRefreshTokenProviderFailure(t *testing.T) {
	cfg := config.Config{SecretKey: "test-secret"}
	acc := encryptedAccount(t, cfg, 1, "twitter")

	repo := &tokenAccountRepo{accounts: map[int64]*models.PlatformAccount{1: acc}}
	source := &fakeOAuthSource{providers: map[string]platform.OAuthProvider{
		"twitter": &fakeOAuthProvider{err: errors.New("invalid_grant")},
	}}

	token, err := NewTokenService(cfg, repo, source).TryRefreshToken(context.Background(), 1, "twitter")
	assert.Error(t, err)
	assert.Empty(t, token)
}

func TestRefreshExpiringTokensDeactivatesFailures(t *testing.T) {
	cfg := config.Config{SecretKey: "test-secret"}

	good := encryptedAccount(t, cfg, 1, "twitter")
	bad := encryptedAccount(t, cfg, 2, "linkedin")

	repo := &tokenAccountRepo{
		accounts: map[int64]*models.PlatformAccount{1: good, 2: bad},
		expiring: []*models.PlatformAccount{good, bad},
	}
	source := &fakeOAuthSource{providers: map[string]platform.OAuthProvider{
		"twitter":  &fakeOAuthProvider{tokens: &platform.TokenResponse{AccessToken: "fresh", ExpiresIn: 7200}},
		"linkedin": &fakeOAuthProvider{err: errors.New("revoked")},
	}}

	refreshed, failed := NewTokenService(cfg, repo, source).RefreshExpiringTokens(context.Background())
	assert.Equal(t, 1, refreshed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []int64{2}, repo.deactivated)
	assert.Contains(t, repo.updated, int64(1))
}

func TestRefreshExpiringTokensSkipsAccountsWithoutRefreshToken(t *testing.T) {
	cfg := config.Config{SecretKey: "test-secret"}

	// A linkedin account with an expiring access token but no refresh token
	// cannot be renewed, and must not be treated as a failure.
	noRefresh := encryptedAccount(t, cfg, 7, "linkedin")
	noRefresh.RefreshToken = ""
	good := encryptedAccount(t, cfg, 1, "twitter")

	repo := &tokenAccountRepo{
		accounts: map[int64]*models.PlatformAccount{1: good, 7: noRefresh},
		expiring: []*models.PlatformAccount{noRefresh, good},
	}
	source := &fakeOAuthSource{providers: map[string]platform.OAuthProvider{
		"twitter":  &fakeOAuthProvider{tokens: &platform.TokenResponse{AccessToken: "fresh", ExpiresIn: 7200}},
		"linkedin": &fakeOAuthProvider{err: errors.New("should never be called")},
	}}

	refreshed, failed := NewTokenService(cfg, repo, source).RefreshExpiringTokens(context.Background())
	assert.Equal(t, 1, refreshed)
	assert.Zero(t, failed)
	assert.Empty(t, repo.deactivated)
	assert.True(t, noRefresh.IsActive)
}
