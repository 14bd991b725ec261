package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_NAME", "resumes_test")
	t.Setenv("LIFECYCLE_INTERVAL", "0")
	t.Setenv("AI_TIMEOUT", "not-a-duration")
	t.Setenv("RATE_LIMIT", "120")

	cfg := Load()

	assert.Equal(t, "resumes_test", cfg.DBName)
	assert.Equal(t, time.Duration(0), cfg.LifecycleInterval)
	assert.Equal(t, 60*time.Second, cfg.AITimeout)
	assert.Equal(t, 120, cfg.RateLimit)
	assert.Equal(t, 30*24*time.Hour, cfg.LogRetention)
	assert.Contains(t, cfg.DSN(), "dbname=resumes_test")
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 5*time.Minute, parseDuration("5m", time.Hour))
	assert.Equal(t, time.Hour, parseDuration("", time.Hour))
	assert.Equal(t, 10, parseInt("-3", 10))
	assert.Equal(t, 7, parseInt("7", 10))
}
