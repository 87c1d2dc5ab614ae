// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	content := `
environment: staging
identity:
  subscriber_id: bap.example.org
  subscriber_url: https://bap.example.org
  unique_key_id: key-1
  type: BAP
database:
  host: db.internal
shared_store:
  addr: redis.internal:6379
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "bap.example.org", cfg.Identity.SubscriberID)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "disable", cfg.Database.SSLMode, "setDefaults should fill ssl_mode")
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{
		Database:   &DatabaseConfig{},
		Broker:     &BrokerConfig{},
		Middleware: &MiddlewareConfig{},
		Logging:    &LoggingConfig{},
		Health:     &HealthConfig{},
	}

	setDefaults(cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "beckn.search.fanout", cfg.Broker.Exchange)
	assert.Equal(t, 8, cfg.Broker.WorkerCount)
	assert.Equal(t, 16, cfg.Broker.PrefetchSize)
	assert.Equal(t, 600, cfg.Middleware.RateLimitPerMinute)
	assert.Equal(t, 5*time.Minute, cfg.Middleware.DedupWindow)
	assert.Equal(t, 30*time.Second, cfg.Middleware.MaxClockSkew)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, 8090, cfg.Health.Port)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roundtrip.yaml")

	cfg := &Config{
		Environment: "production",
		Identity: &IdentityConfig{
			SubscriberID:  "bpp.example.org",
			SubscriberURL: "https://bpp.example.org",
			UniqueKeyID:   "key-2",
			Type:          "BPP",
		},
		Database:    &DatabaseConfig{Host: "db", Port: 5432},
		SharedStore: &SharedStoreConfig{Addr: "redis:6379"},
	}

	require.NoError(t, SaveToFile(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Identity.SubscriberID, loaded.Identity.SubscriberID)
	assert.Equal(t, cfg.Database.Port, loaded.Database.Port)
}
