package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("POSTGRES_USER", "checkout")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_DB", "learnhub")
	t.Setenv("POSTGRES_HOST", "localhost")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PUBLIC_BASE_URL", "https://api.example.com/")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "VND", cfg.Currency)
	assert.Equal(t, "https://api.example.com", cfg.PublicBaseURL)
	assert.Equal(t, "captureWallet", cfg.MoMo.RequestType)
	assert.Equal(t, 30*time.Second, cfg.MoMo.Timeout)
	assert.Equal(t, "2.1.0", cfg.VNPay.Version)
	assert.Equal(t, 15*time.Minute, cfg.VNPay.ExpireIn)
	assert.Equal(t, 7*24*time.Hour, cfg.CartTTL)
	assert.Contains(t, cfg.DSN(), "dbname=learnhub")
}

func TestLoadConfigMissingDatabase(t *testing.T) {
	t.Setenv("POSTGRES_USER", "")
	t.Setenv("POSTGRES_PASSWORD", "")
	t.Setenv("POSTGRES_DB", "learnhub")
	t.Setenv("POSTGRES_HOST", "localhost")

	_, err := LoadConfig()
	assert.EqualError(t, err, "missing required environment variables: POSTGRES_PASSWORD, POSTGRES_USER")
}

func TestLoadConfigRejectsUnknownBus(t *testing.T) {
	setRequired(t)
	t.Setenv("EVENT_BUS", "rabbit")

	_, err := LoadConfig()
	assert.Error(t, err)
}

type fakeSecrets struct {
	value string
	err   error
}

func (f fakeSecrets) GetSecret(_ context.Context, _ string) (string, error) {
	return f.value, f.err
}

func TestApplySecrets(t *testing.T) {
	cfg := &Config{SecretName: "s", MoMo: MoMoConfig{AccessKey: "env-access"}}

	err := cfg.ApplySecrets(context.Background(), fakeSecrets{value: `{"momo_secret_key":"sm-secret","vnpay_hash_secret":"sm-hash"}`})
	require.NoError(t, err)
	assert.Equal(t, "env-access", cfg.MoMo.AccessKey)
	assert.Equal(t, "sm-secret", cfg.MoMo.SecretKey)
	assert.Equal(t, "sm-hash", cfg.VNPay.HashSecret)

	assert.Error(t, cfg.ApplySecrets(context.Background(), fakeSecrets{value: "not json"}))
	assert.Error(t, cfg.ApplySecrets(context.Background(), fakeSecrets{err: errors.New("denied")}))
}
