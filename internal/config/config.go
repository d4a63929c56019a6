package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	AuthMode       string        `mapstructure:"AUTH_MODE"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	AuthIssuer     string        `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL    string        `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience   string        `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey string        `mapstructure:"AUTH_SIGNING_KEY"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	// Recommendation pipeline
	RecommendationCandidates int           `mapstructure:"RECOMMENDATION_CANDIDATES"`
	ScoringAuthority         string        `mapstructure:"SCORING_AUTHORITY"`
	Narrator                 string        `mapstructure:"NARRATOR"`
	ScoringTimeout           time.Duration `mapstructure:"SCORING_TIMEOUT"`
	LLMAPIKey                string        `mapstructure:"LLM_API_KEY"`
	LLMEndpoint              string        `mapstructure:"LLM_ENDPOINT"`
	LLMModel                 string        `mapstructure:"LLM_MODEL"`

	// Live traffic
	TrafficAPIKey   string        `mapstructure:"TRAFFIC_API_KEY"`
	TrafficAPIURL   string        `mapstructure:"TRAFFIC_API_URL"`
	TrafficTimeout  time.Duration `mapstructure:"TRAFFIC_TIMEOUT"`
	TrafficCacheTTL time.Duration `mapstructure:"TRAFFIC_CACHE_TTL"`
	RedisURL        string        `mapstructure:"REDIS_URL"`

	// Hospital geo index
	HospitalIndex      string `mapstructure:"HOSPITAL_INDEX"`
	ElasticsearchURL   string `mapstructure:"ELASTICSEARCH_URL"`
	ElasticsearchIndex string `mapstructure:"ELASTICSEARCH_INDEX"`

	NATSURL string `mapstructure:"NATS_URL"`
}

var keys = []string{
	"PORT", "ENV", "AUTH_MODE", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"AUTH_ISSUER", "AUTH_JWKS_URL", "AUTH_AUDIENCE", "AUTH_SIGNING_KEY",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT",
	"RECOMMENDATION_CANDIDATES", "SCORING_AUTHORITY", "NARRATOR", "SCORING_TIMEOUT",
	"LLM_API_KEY", "LLM_ENDPOINT", "LLM_MODEL",
	"TRAFFIC_API_KEY", "TRAFFIC_API_URL", "TRAFFIC_TIMEOUT", "TRAFFIC_CACHE_TTL", "REDIS_URL",
	"HOSPITAL_INDEX", "ELASTICSEARCH_URL", "ELASTICSEARCH_INDEX",
	"NATS_URL",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("AUTH_MODE", "") // "" -> inferred from ENV
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("RECOMMENDATION_CANDIDATES", 4)
	v.SetDefault("SCORING_AUTHORITY", "rules")
	v.SetDefault("NARRATOR", "none")
	v.SetDefault("SCORING_TIMEOUT", "20s")
	v.SetDefault("LLM_MODEL", "gpt-4.1-nano")
	v.SetDefault("TRAFFIC_API_URL", "https://api.tomtom.com/traffic/services/4/flowSegmentData/absolute/10/json")
	v.SetDefault("TRAFFIC_TIMEOUT", "3s")
	v.SetDefault("TRAFFIC_CACHE_TTL", "60s")
	v.SetDefault("HOSPITAL_INDEX", "postgres")
	v.SetDefault("ELASTICSEARCH_INDEX", "hopitaux")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active, unauthenticated requests get the admin role.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedAuthMode returns the effective auth mode. If AUTH_MODE is explicitly
// set, it is returned. Otherwise ENV=development maps to "development" and
// everything else to "external" (bearer tokens from the identity provider).
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return "development"
	}
	return "external"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	mode := c.ResolvedAuthMode()
	if mode != "development" && mode != "external" {
		return fmt.Errorf("AUTH_MODE must be \"development\" or \"external\", got %q", mode)
	}
	if mode == "external" && c.AuthIssuer == "" && c.AuthSigningKey == "" {
		return fmt.Errorf(
			"AUTH_ISSUER or AUTH_SIGNING_KEY must be set when AUTH_MODE is \"external\" (current ENV=%q)", c.Env)
	}

	if c.RecommendationCandidates <= 0 {
		return fmt.Errorf("RECOMMENDATION_CANDIDATES must be positive, got %d", c.RecommendationCandidates)
	}

	switch c.ScoringAuthority {
	case "rules":
	case "llm":
		if c.LLMAPIKey == "" {
			return fmt.Errorf("LLM_API_KEY is required when SCORING_AUTHORITY is \"llm\"")
		}
	default:
		return fmt.Errorf("SCORING_AUTHORITY must be \"rules\" or \"llm\", got %q", c.ScoringAuthority)
	}

	switch c.Narrator {
	case "", "none":
	case "llm":
		if c.LLMAPIKey == "" {
			return fmt.Errorf("LLM_API_KEY is required when NARRATOR is \"llm\"")
		}
	default:
		return fmt.Errorf("NARRATOR must be \"none\" or \"llm\", got %q", c.Narrator)
	}

	switch c.HospitalIndex {
	case "postgres":
	case "elasticsearch":
		if c.ElasticsearchURL == "" {
			return fmt.Errorf("ELASTICSEARCH_URL is required when HOSPITAL_INDEX is \"elasticsearch\"")
		}
	default:
		return fmt.Errorf("HOSPITAL_INDEX must be \"postgres\" or \"elasticsearch\", got %q", c.HospitalIndex)
	}

	if c.TrafficTimeout <= 0 || c.ScoringTimeout <= 0 {
		return fmt.Errorf("TRAFFIC_TIMEOUT and SCORING_TIMEOUT must be positive")
	}

	return nil
}
