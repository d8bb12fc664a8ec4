package app

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-auth/internal/auth"
	"github.com/odyssey-erp/odyssey-auth/internal/permission"
	_ "github.com/odyssey-erp/odyssey-auth/testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "rbac_login", cfg.RedisKey)
	assert.Equal(t, 864000*time.Second, cfg.SessionTTL)
	assert.Empty(t, cfg.JWTSecret)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)

	policy, err := cfg.LoginPolicy()
	require.NoError(t, err)
	assert.Equal(t, auth.PolicyTrustCache, policy)

	mode, err := cfg.CheckMode()
	require.NoError(t, err)
	assert.Equal(t, permission.CheckLastWins, mode)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("REDIS_KEY", "erp_login")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("LOGIN_MASK_POLICY", "refresh")
	t.Setenv("ACCESS_CHECK_MODE", "any")
	t.Setenv("ACCESS_MAP_PERMISSION", "7")
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "erp_login", cfg.RedisKey)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, uint64(7), cfg.AccessMapPermission)
	assert.True(t, cfg.IsProduction())

	policy, _ := cfg.LoginPolicy()
	assert.Equal(t, auth.PolicyAlwaysRefresh, policy)
	mode, _ := cfg.CheckMode()
	assert.Equal(t, permission.CheckAny, mode)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"LOGIN_MASK_POLICY":     "sometimes",
		"ACCESS_CHECK_MODE":     "all",
		"SESSION_TTL":           "0s",
		"RATE_LIMIT_PER_MINUTE": "0",
		"MAILBOX_BUFFER":        "-1",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestInTestMode(t *testing.T) {
	RefreshTestMode()
	assert.True(t, InTestMode())
}

func TestTestModeParsing(t *testing.T) {
	t.Cleanup(func() {
		_ = os.Setenv(TestModeEnv, "1")
		RefreshTestMode()
	})
	t.Setenv(TestModeEnv, "false")
	RefreshTestMode()
	assert.False(t, InTestMode())

	t.Setenv(TestModeEnv, "true")
	RefreshTestMode()
	assert.True(t, InTestMode())
}
