package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates configuration for both binaries. The session API only
// needs Server and Upstream; the reference upstream service also needs AI
// and Search.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	AI       AIConfig
	Search   SearchConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	upstream, err := loadUpstreamConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	search, err := loadSearchConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Upstream: upstream, AI: ai, Search: search}, nil
}

// ServerConfig describes the HTTP listen address.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// UpstreamConfig locates the upstream AI search service the session gateway
// talks to.
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

func loadUpstreamConfig() (UpstreamConfig, error) {
	timeoutSeconds := 60
	if override, err := parseOptionalIntEnv("UPSTREAM_TIMEOUT"); err != nil {
		return UpstreamConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return UpstreamConfig{}, fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %d", *override)
		}
		timeoutSeconds = *override
	}

	return UpstreamConfig{
		BaseURL: getEnvOrDefault("UPSTREAM_BASE_URL", "http://localhost:8001"),
		Timeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// AIConfig describes the Ark chat model used by the reference upstream
// service for summarization and instruction processing.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: provide ARK_API_KEY + Model, or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// SearchConfig describes the Exa-style web search API used by the reference
// upstream service.
type SearchConfig struct {
	APIKey     string
	BaseURL    string
	MaxResults int
}

// Enabled reports whether the search API key is present.
func (c SearchConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadSearchConfig() (SearchConfig, error) {
	maxResults := 10
	if override, err := parseOptionalIntEnv("SEARCH_MAX_RESULTS"); err != nil {
		return SearchConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return SearchConfig{}, fmt.Errorf("SEARCH_MAX_RESULTS must be positive, got %d", *override)
		}
		maxResults = *override
	}

	return SearchConfig{
		APIKey:     strings.TrimSpace(os.Getenv("EXA_API_KEY")),
		BaseURL:    getEnvOrDefault("EXA_BASE_URL", "https://api.exa.ai"),
		MaxResults: maxResults,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
