package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribe/loyalty-engine/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "./data/loyalty.db", cfg.Database.Path)
	assert.EqualValues(t, 500, cfg.Program.WelcomeBonus)
	assert.EqualValues(t, 500, cfg.Program.BirthdayBonus)
	assert.EqualValues(t, 10, cfg.Program.DefaultActivityPoints)
	assert.EqualValues(t, 100, cfg.Program.RedemptionMinBalance)
	assert.Equal(t, 5, cfg.Program.MaxGiftsPerDay)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("SERVER_PORT", "3000")
	t.Setenv("DATABASE_PATH", ":memory:")
	t.Setenv("PROGRAM_WELCOME_BONUS", "0")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.EqualValues(t, 0, cfg.Program.WelcomeBonus)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
program:
  welcome_bonus: 250
  max_gifts_per_day: 3
logging:
  format: json
`), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.EqualValues(t, 250, cfg.Program.WelcomeBonus)
	assert.Equal(t, 3, cfg.Program.MaxGiftsPerDay)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestValidate_Rejections(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	base := func(t *testing.T) *config.Config {
		cfg, err := config.Load()
		require.NoError(t, err)
		return cfg
	}

	cfg := base(t)
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = base(t)
	cfg.Program.PurchaseFeePercent = 100
	assert.Error(t, cfg.Validate(), "a 100% fee never yields a positive net")

	cfg = base(t)
	cfg.Program.WelcomeBonus = -1
	assert.Error(t, cfg.Validate())

	cfg = base(t)
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestProgramConfig_RulesConversion(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	cfg, err := config.Load()
	require.NoError(t, err)

	rules := cfg.Program.Rules()
	assert.EqualValues(t, 500, rules.WelcomeBonus)
	assert.True(t, rules.PurchaseFeePercent.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 5, rules.MaxGiftsPerDay)
}
