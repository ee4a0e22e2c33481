package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INGAT_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "INGAT API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, time.Minute, cfg.TickInterval)
	require.Equal(t, cfg.TickInterval, cfg.ReminderTolerance)
	require.Equal(t, 9, cfg.WeeklyHour)
	require.Equal(t, 5*time.Minute, cfg.DigestCacheTTL)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("INGAT_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadWeeklyTime(t *testing.T) {
	t.Setenv("INGAT_JWT_SECRET", "secret")
	t.Setenv("INGAT_WEEKLY_HOUR", "25")

	_, err := Load()
	require.Error(t, err)
}

func TestHTTPAddressKeepsExplicitColon(t *testing.T) {
	cfg := Config{AppPort: ":9000"}
	require.Equal(t, ":9000", cfg.HTTPAddress())
}
