package job

import (
	"context"

	"github.com/maheshrc27/postpilot/internal/service"
)

type TokenRefreshJob struct {
	tokens service.TokenService
}

func NewTokenRefreshJob(tokens service.TokenService) *TokenRefreshJob {
	return &TokenRefreshJob{tokens: tokens}
}

func (j *TokenRefreshJob) Run() {
	j.tokens.RefreshExpiringTokens(context.Background())
}
