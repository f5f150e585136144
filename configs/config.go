package config

import "os"

type Config struct {
	TwitterClientID      string
	TwitterClientSecret  string
	TwitterRedirectURI   string
	LinkedinClientID     string
	LinkedinClientSecret string
	LinkedinRedirectURI  string
	BlueskyHost          string
	PostgresURI          string
	RedisURI             string
	FrontendURL          string
	ResendAPIKey         string
	EmailFrom            string
	SecretKey            string
	CookieName           string
}

func LoadConfig() *Config {
	return &Config{
		TwitterClientID:      getEnv("TWITTER_CLIENT_ID", ""),
		TwitterClientSecret:  getEnv("TWITTER_CLIENT_SECRET", ""),
		TwitterRedirectURI:   getEnv("TWITTER_REDIRECT_URI", ""),
		LinkedinClientID:     getEnv("LINKEDIN_CLIENT_ID", ""),
		LinkedinClientSecret: getEnv("LINKEDIN_CLIENT_SECRET", ""),
		LinkedinRedirectURI:  getEnv("LINKEDIN_REDIRECT_URI", ""),
		BlueskyHost:          getEnv("BLUESKY_HOST", "https://bsky.social"),
		PostgresURI:          getEnv("POSTGRES_URI", ""),
		RedisURI:             getEnv("REDIS_URI", "localhost:6379"),
		FrontendURL:          getEnv("FRONTEND_URL", "http://localhost:5173"),
		ResendAPIKey:         getEnv("RESEND_API_KEY", ""),
		EmailFrom:            getEnv("EMAIL_FROM", "notifications@postpilot.app"),
		SecretKey:            getEnv("SECRET_KEY", ""),
		CookieName:           getEnv("COOKIE_NAME", "postpilot_session"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
