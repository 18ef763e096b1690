package config

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := parse(flag.NewFlagSet("test", flag.ContinueOnError), []string{})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddr)
	assert.Equal(t, "xlsx", cfg.StoreBackend)
	assert.Equal(t, 10*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
}

func TestParse_FlagsAndEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("STORE_TIMEOUT", "3s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := parse(flag.NewFlagSet("test", flag.ContinueOnError), []string{
		"-a", "127.0.0.1:9000",
		"-b", "memory",
		"-d", "postgres://localhost/fuel",
	})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.ServerAddr)
	assert.Equal(t, "postgres", cfg.StoreBackend, "environment overrides flags")
	assert.Equal(t, "postgres://localhost/fuel", cfg.DatabaseURI)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}

func TestParse_BadFlag(t *testing.T) {
	fset := flag.NewFlagSet("test", flag.ContinueOnError)
	fset.SetOutput(nopWriter{})

	_, err := parse(fset, []string{"-t", "soon"})
	assert.Error(t, err)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
