package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "pulsecrm", cfg.Database.Database)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 60, cfg.JWT.ExpiresMinutes)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_PORT", "15432")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("JWT_EXPIRES_MINUTES", "15")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 15432, cfg.Database.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 15, cfg.JWT.ExpiresMinutes)
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")

	cfg := Load()
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestDatabaseConfigDSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: 5433, User: "u", Password: "p",
		Database: "crm", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=crm sslmode=disable", c.DSN())
}
