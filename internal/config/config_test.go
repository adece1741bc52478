package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			JWTSecret:  "secure-secret-at-least-32-chars-long!!",
			Port:       "8460",
			DBPassword: "secure-password",
			DBSSLMode:  "require",
			Env:        "development",
		}
	}

	t.Run("ValidDevelopmentConfig", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("MissingPort", func(t *testing.T) {
		c := base()
		c.Port = ""
		assert.Error(t, c.Validate())
	})

	t.Run("MissingJWTSecret", func(t *testing.T) {
		c := base()
		c.JWTSecret = ""
		assert.Error(t, c.Validate())
	})

	t.Run("ProductionRejectsDefaultJWTSecret", func(t *testing.T) {
		c := base()
		c.Env = "production"
		c.JWTSecret = "your-secret-key-change-in-production"
		assert.Error(t, c.Validate())
	})

	t.Run("ProductionRejectsShortJWTSecret", func(t *testing.T) {
		c := base()
		c.Env = "production"
		c.JWTSecret = "short"
		assert.Error(t, c.Validate())
	})

	t.Run("ProductionRejectsWeakDBPassword", func(t *testing.T) {
		c := base()
		c.Env = "production"
		c.DBPassword = "password"
		assert.Error(t, c.Validate())
	})

	t.Run("StrictProductionConfigPasses", func(t *testing.T) {
		c := base()
		c.Env = "production"
		assert.NoError(t, c.Validate())
	})

	t.Run("ShortSecretOnlyWarnsOutsideProduction", func(t *testing.T) {
		c := base()
		c.JWTSecret = "short"
		assert.NoError(t, c.Validate())
	})
}

func TestIsProduction(t *testing.T) {
	assert.True(t, (&Config{Env: "production"}).IsProduction())
	assert.True(t, (&Config{Env: "prod"}).IsProduction())
	assert.False(t, (&Config{Env: "development"}).IsProduction())
	assert.False(t, (&Config{Env: "test"}).IsProduction())
	assert.False(t, (&Config{}).IsProduction())
}
