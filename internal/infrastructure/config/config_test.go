package config

import (
	"encoding/base64"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedEnv = []string{
	"TASKFLOW_APP_NAME",
	"TASKFLOW_APP_ENV",
	"TASKFLOW_APP_PORT",
	"TASKFLOW_DATABASE_HOST",
	"TASKFLOW_DATABASE_PORT",
	"TASKFLOW_DATABASE_PASSWORD",
	"TASKFLOW_DATABASE_DBNAME",
	"TASKFLOW_DATABASE_SSLMODE",
	"TASKFLOW_DATABASE_MAX_OPEN_CONNS",
	"TASKFLOW_DATABASE_MAX_IDLE_CONNS",
	"TASKFLOW_SESSION_SECRET",
	"TASKFLOW_COOKIE_SECURE",
	"TASKFLOW_COOKIE_SAME_SITE",
	"TASKFLOW_STORAGE_TYPE",
	"TASKFLOW_GOOGLE_ENABLED",
	"TASKFLOW_GOOGLE_CLIENT_ID",
	"TASKFLOW_GOOGLE_CLIENT_SECRET",
	"TASKFLOW_GOOGLE_REDIRECT_URL",
	"TASKFLOW_GOOGLE_TOKEN_KEY",
	"TASKFLOW_JOBS_CLOSED_RETENTION",
	"TASKFLOW_TELEMETRY_SAMPLING_RATIO",
}

// isolateEnv clears all managed variables and restores them when the test ends
func isolateEnv(t *testing.T) {
	t.Helper()
	saved := make(map[string]string, len(managedEnv))
	for _, k := range managedEnv {
		saved[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for k, v := range saved {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "taskflow-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "taskflow", cfg.Database.DBName)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "JSESSIONID", cfg.Cookie.Name)
	assert.Equal(t, "lax", cfg.Cookie.SameSite)
	assert.Equal(t, 24*time.Hour, cfg.Session.Expiration)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, time.Minute, cfg.Jobs.DeadlineInterval)
	assert.Equal(t, 48*time.Hour, cfg.Jobs.ClosedRetention)
	assert.Equal(t, time.Hour, cfg.Jobs.CacheEvictionInterval)
	assert.Equal(t, "primary", cfg.Google.CalendarID)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, cfg.App.Name, cfg.Telemetry.ServiceName)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolateEnv(t)
	os.Setenv("TASKFLOW_APP_NAME", "test-app")
	os.Setenv("TASKFLOW_APP_PORT", "9000")
	os.Setenv("TASKFLOW_DATABASE_HOST", "testdb.local")
	os.Setenv("TASKFLOW_DATABASE_PORT", "5433")
	os.Setenv("TASKFLOW_DATABASE_MAX_OPEN_CONNS", "50")
	os.Setenv("TASKFLOW_DATABASE_MAX_IDLE_CONNS", "10")
	os.Setenv("TASKFLOW_STORAGE_TYPE", "s3")
	os.Setenv("TASKFLOW_JOBS_CLOSED_RETENTION", "24h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-app", cfg.App.Name)
	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "testdb.local", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, 10, cfg.Database.MaxIdleConns)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, 24*time.Hour, cfg.Jobs.ClosedRetention)
}

func TestLoad_Validation(t *testing.T) {
	validKey := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))

	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "idle conns above open conns",
			env:     map[string]string{"TASKFLOW_DATABASE_MAX_OPEN_CONNS": "5", "TASKFLOW_DATABASE_MAX_IDLE_CONNS": "10"},
			wantErr: "cannot exceed",
		},
		{
			name:    "unknown storage type",
			env:     map[string]string{"TASKFLOW_STORAGE_TYPE": "ftp"},
			wantErr: "storage.type",
		},
		{
			name:    "google enabled without credentials",
			env:     map[string]string{"TASKFLOW_GOOGLE_ENABLED": "true"},
			wantErr: "google.client_id",
		},
		{
			name: "google token key with wrong length",
			env: map[string]string{
				"TASKFLOW_GOOGLE_ENABLED":       "true",
				"TASKFLOW_GOOGLE_CLIENT_ID":     "id",
				"TASKFLOW_GOOGLE_CLIENT_SECRET": "secret",
				"TASKFLOW_GOOGLE_REDIRECT_URL":  "http://localhost/cb",
				"TASKFLOW_GOOGLE_TOKEN_KEY":     base64.StdEncoding.EncodeToString([]byte("short")),
			},
			wantErr: "32 bytes",
		},
		{
			name:    "same_site none without secure",
			env:     map[string]string{"TASKFLOW_COOKIE_SAME_SITE": "none"},
			wantErr: "same_site=none",
		},
		{
			name:    "sampling ratio out of range",
			env:     map[string]string{"TASKFLOW_TELEMETRY_SAMPLING_RATIO": "1.5"},
			wantErr: "sampling_ratio",
		},
		{
			name:    "production requires long secret",
			env:     map[string]string{"TASKFLOW_APP_ENV": "production", "TASKFLOW_SESSION_SECRET": "short"},
			wantErr: "session.secret",
		},
		{
			name: "production requires secure cookie",
			env: map[string]string{
				"TASKFLOW_APP_ENV":           "production",
				"TASKFLOW_SESSION_SECRET":    strings.Repeat("s", 32),
				"TASKFLOW_DATABASE_PASSWORD": "pw",
				"TASKFLOW_DATABASE_SSLMODE":  "require",
			},
			wantErr: "cookie.secure",
		},
		{
			name: "google fully configured",
			env: map[string]string{
				"TASKFLOW_GOOGLE_ENABLED":       "true",
				"TASKFLOW_GOOGLE_CLIENT_ID":     "id",
				"TASKFLOW_GOOGLE_CLIENT_SECRET": "secret",
				"TASKFLOW_GOOGLE_REDIRECT_URL":  "http://localhost/cb",
				"TASKFLOW_GOOGLE_TOKEN_KEY":     validKey,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr == "" {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.local",
		Port:     5432,
		User:     "task",
		Password: "p@ss word",
		DBName:   "taskflow",
		SSLMode:  "disable",
	}

	dsn := d.DSN()
	assert.True(t, strings.HasPrefix(dsn, "postgres://task:"))
	assert.Contains(t, dsn, "db.local:5432/taskflow")
	assert.Contains(t, dsn, "sslmode=disable")
	assert.NotContains(t, dsn, "p@ss word")
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.Addr())
	assert.True(t, r.Enabled())
}
