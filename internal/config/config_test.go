package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dukaan-labs/backend-dukaan/internal/pricing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost:5432/dukaan",
		"REDIS_URL":    "redis://localhost:6379/0",
		"JWT_SECRET":   "test-secret",
	})
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "INR", cfg.CurrencyCode)

	sched := cfg.CheckoutSchedule()
	require.Equal(t, pricing.Money(7500), sched.DeliveryFlat)
	require.Equal(t, pricing.Money(20000), sched.FreeDeliveryMin)
	require.Equal(t, 300, sched.PlatformFeeBps)
	require.Equal(t, 500, sched.GSTBps)

	payout := cfg.PayoutSchedule()
	require.Equal(t, 1500, payout.PlatformFeeBps)
	require.Equal(t, 1800, payout.GSTBps)
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379/0",
		"JWT_SECRET":   "test-secret",
	})
	require.Error(t, err)
}

func TestFeeScheduleOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":            "postgres://localhost:5432/dukaan",
		"REDIS_URL":               "redis://localhost:6379/0",
		"JWT_SECRET":              "test-secret",
		"DELIVERY_FLAT_PAISE":     "9900",
		"FREE_DELIVERY_MIN_PAISE": "50000",
		"PLATFORM_FEE_BPS":        "250",
	})
	require.NoError(t, err)
	require.Equal(t, pricing.Money(9900), cfg.DeliveryFlat)
	require.Equal(t, pricing.Money(50000), cfg.FreeDeliveryMin)
	require.Equal(t, 250, cfg.PlatformFeeBps)
}
