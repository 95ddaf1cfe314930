package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"cafeteria-planner/internal/order"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	t.Run("Defaults", func(t *testing.T) {
		for _, key := range []string{"DATABASE_PATH", "PORT", "REDIS_KEY", "JWT_SECRET", "TELEGRAM_ALLOWED_USER_IDS", "ADMIN_TELEGRAM_ID", "JWT_TTL"} {
			t.Setenv(key, "")
		}

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("data", "cafeteria.db"), cfg.DatabasePath)
		assert.Equal(t, "data", cfg.DataDir())
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "cafeteria:recipes", cfg.RedisKey)
		assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
		assert.Error(t, cfg.RequireJWTSecret())
		assert.Error(t, cfg.RequireTelegram())
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("DATABASE_PATH", "/var/lib/comedor/db.sqlite")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("JWT_TTL", "2h")
		t.Setenv("TELEGRAM_BOT_TOKEN", "token")
		t.Setenv("TELEGRAM_WEBHOOK_URL", "https://example.org/webhook")
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "12, 34")
		t.Setenv("ADMIN_TELEGRAM_ID", "12")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/comedor", cfg.DataDir())
		assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
		assert.Equal(t, []int64{12, 34}, cfg.TelegramAllowedUserIDs)
		assert.Equal(t, int64(12), cfg.AdminTelegramID)
		assert.NoError(t, cfg.RequireJWTSecret())
		assert.NoError(t, cfg.RequireTelegram())
	})

	t.Run("InvalidUserID", func(t *testing.T) {
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "12,abc")
		_, err := NewFromEnv()
		assert.Error(t, err)
	})
}

func TestLoadRules(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, order.DefaultRules(), rules)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	doc := `
fruit_names: [melon, sandia]
grams_per_egg: 50
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	rules, err = LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"melon", "sandia"}, rules.FruitNames)
	assert.Equal(t, 50.0, rules.GramsPerEgg)
	assert.Equal(t, 1000.0, rules.PromotionThreshold)
	assert.Equal(t, order.DefaultRules().EggNames, rules.EggNames)
	assert.Equal(t, order.DefaultRules().Promotions, rules.Promotions)

	t.Run("PromotionsReplaceDefaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("promotions: {g: kg}\n"), 0644))

		rules, err := LoadRules(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"g": "kg"}, rules.Promotions)
	})

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	SetupLogging("debug", "console")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	SetupLogging("nonsense", "json")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
