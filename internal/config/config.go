package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cafeteria-planner/internal/order"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration for the application.
type Config struct {
	AppEnv string

	DatabasePath         string
	DatabaseURL          string
	RecipeStorePath      string
	PreloadedRecipesPath string

	RedisAddr     string
	RedisPassword string
	RedisKey      string

	RulesPath string

	JWTSecret string
	JWTTTL    time.Duration
	Port      string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64

	LogLevel  string
	LogFormat string
}

// NewFromEnv creates a new Config object from environment variables. Outside
// production a .env file in the working directory is loaded first.
func NewFromEnv() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		DatabasePath:         getEnv("DATABASE_PATH", filepath.Join("data", "cafeteria.db")),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RecipeStorePath:      getEnv("RECIPE_STORE_PATH", filepath.Join("data", "recipes.json")),
		PreloadedRecipesPath: os.Getenv("PRELOADED_RECIPES_PATH"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisKey:             getEnv("REDIS_KEY", "cafeteria:recipes"),
		RulesPath:            os.Getenv("RULES_PATH"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		Port:                 getEnv("PORT", "8080"),
		TelegramBotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:   os.Getenv("TELEGRAM_WEBHOOK_URL"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "json"),
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	cfg.JWTTTL = ttl

	if raw := os.Getenv("TELEGRAM_ALLOWED_USER_IDS"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", part, err)
			}
			cfg.TelegramAllowedUserIDs = append(cfg.TelegramAllowedUserIDs, id)
		}
	}

	if raw := os.Getenv("ADMIN_TELEGRAM_ID"); raw != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
		cfg.AdminTelegramID = id
	}

	return cfg, nil
}

// DataDir is the directory holding the SQLite database.
func (c *Config) DataDir() string {
	return filepath.Dir(c.DatabasePath)
}

// RequireJWTSecret fails when the API cannot sign tokens.
func (c *Config) RequireJWTSecret() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable not set")
	}
	return nil
}

// RequireTelegram fails when the bot cannot start.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return errors.New("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	if len(c.TelegramAllowedUserIDs) == 0 {
		return errors.New("TELEGRAM_ALLOWED_USER_IDS environment variable not set")
	}
	return nil
}

// LoadRules reads calculator rules from a YAML file over the defaults. An
// empty path returns the defaults. A promotions map in the file replaces the
// default one instead of merging into it.
func LoadRules(path string) (order.Rules, error) {
	rules := order.DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return order.Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	defaults := rules.Promotions
	rules.Promotions = nil
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return order.Rules{}, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	if rules.Promotions == nil {
		rules.Promotions = defaults
	}
	return rules, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
