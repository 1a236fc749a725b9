// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "localhost:7233", cfg.Temporal.HostPort)
	assert.Equal(t, "default", cfg.Temporal.Namespace)
	assert.Equal(t, "tsbridge", cfg.Temporal.Identity)
	assert.Equal(t, "temporal", cfg.Temporal.ServiceRole)
	assert.Equal(t, 10*time.Second, cfg.Server.DispatchTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestNewConfig_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
temporal:
  namespace: security-engineering
  task_queue: template-taskqueue
server:
  port: 9090
  dispatch_timeout: 3s
  allowed_origins: "https://a.example,https://b.example"
slack:
  default_channel: C123
`)

	cfg, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "security-engineering", cfg.Temporal.Namespace)
	assert.Equal(t, "template-taskqueue", cfg.Temporal.TaskQueue)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.DispatchTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "C123", cfg.Slack.DefaultChannel)
	// untouched sections keep their defaults
	assert.Equal(t, "localhost:7233", cfg.Temporal.HostPort)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("TSBRIDGE_SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("TSBRIDGE_TEMPORAL_HOST_PORT", "temporal:7233")

	cfg, err := NewConfig(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "xoxb-test", cfg.Slack.BotToken)
	assert.Equal(t, "temporal:7233", cfg.Temporal.HostPort)
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "bad log level",
			body: "log:\n  level: LOUD\n",
			want: "invalid log level",
		},
		{
			name: "bad port",
			body: "server:\n  port: 70000\n",
			want: "invalid server port",
		},
		{
			name: "unsupported driver",
			body: "database:\n  driver: mysql\n",
			want: "unsupported database driver",
		},
		{
			name: "sample ratio out of range",
			body: "tracing:\n  enabled: true\n  sample_ratio: 2\n",
			want: "sample_ratio",
		},
		{
			name: "empty namespace",
			body: "temporal:\n  namespace: \"\"\n",
			want: "temporal.namespace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	mem := DatabaseConfig{Driver: "sqlite", Database: ":memory:"}
	assert.Equal(t, "file::memory:?cache=shared", mem.GetDSN())

	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, Username: "u", Password: "p", Database: "audit", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=audit sslmode=disable", pg.GetDSN())
}

func TestServerConfig_Addr(t *testing.T) {
	sc := ServerConfig{Host: "0.0.0.0", Port: 8080}
	assert.Equal(t, "0.0.0.0:8080", sc.Addr())
}
