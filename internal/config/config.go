package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the evaluation service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	JWTSecret        string
	JudgeBaseURL     string
	JudgeAPIKey      string
	JudgeAPIHost     string
	JudgePollWait    time.Duration
	JudgeMaxPolls    int
	JudgeHTTPTimeout time.Duration
	RankingCacheTTL  time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EXAMHUB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "ExamHub Evaluation API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("judge.base_url", "https://judge0-ce.p.rapidapi.com/")
	v.SetDefault("judge.api_host", "judge0-ce.p.rapidapi.com")
	v.SetDefault("judge.poll_wait_ms", 1500)
	v.SetDefault("judge.max_polls", 20)
	v.SetDefault("judge.http_timeout_ms", 10000)
	v.SetDefault("ranking.cache_ttl", "2m")

	ttlString := v.GetString("ranking.cache_ttl")
	if ttlString == "" {
		ttlString = "2m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid ranking cache ttl: %w", err)
	}

	pollWaitMs := v.GetInt("judge.poll_wait_ms")
	if pollWaitMs <= 0 {
		pollWaitMs = 1500
	}

	maxPolls := v.GetInt("judge.max_polls")
	if maxPolls <= 0 {
		maxPolls = 20
	}

	httpTimeoutMs := v.GetInt("judge.http_timeout_ms")
	if httpTimeoutMs <= 0 {
		httpTimeoutMs = 10000
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		JWTSecret:        v.GetString("jwt.secret"),
		JudgeBaseURL:     v.GetString("judge.base_url"),
		JudgeAPIKey:      v.GetString("judge.api_key"),
		JudgeAPIHost:     v.GetString("judge.api_host"),
		JudgePollWait:    time.Duration(pollWaitMs) * time.Millisecond,
		JudgeMaxPolls:    maxPolls,
		JudgeHTTPTimeout: time.Duration(httpTimeoutMs) * time.Millisecond,
		RankingCacheTTL:  ttl,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if !strings.HasSuffix(cfg.JudgeBaseURL, "/") {
		cfg.JudgeBaseURL += "/"
	}

	return cfg, nil
}
