// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for any of the four Beckn Mesh
// services (registry, gateway, bap, bpp). A single binary is handed one
// Config and reads only the sections its role needs.
type Config struct {
	Environment string           `yaml:"environment" json:"environment"`
	Server      *ServerConfig    `yaml:"server" json:"server"`
	Identity    *IdentityConfig  `yaml:"identity" json:"identity"`
	Database    *DatabaseConfig  `yaml:"database" json:"database"`
	SharedStore *SharedStoreConfig `yaml:"shared_store" json:"shared_store"`
	Broker      *BrokerConfig    `yaml:"broker" json:"broker"`
	Peers       *PeersConfig     `yaml:"peers" json:"peers"`
	Middleware  *MiddlewareConfig `yaml:"middleware" json:"middleware"`
	Logging     *LoggingConfig   `yaml:"logging" json:"logging"`
	Metrics     *MetricsConfig   `yaml:"metrics" json:"metrics"`
	Health      *HealthConfig    `yaml:"health" json:"health"`
	Admin       *AdminConfig     `yaml:"admin" json:"admin"`
}

// AdminConfig configures the Registry-only bearer-JWT-gated admin
// endpoint (SUSPENDED/REVOKED status transitions).
type AdminConfig struct {
	JWTSecretEnv string `yaml:"jwt_secret_env" json:"jwt_secret_env"` // env var holding the HMAC signing secret
}

// IdentityConfig holds the signing/encryption identity this instance
// presents to the network.
type IdentityConfig struct {
	SubscriberID    string `yaml:"subscriber_id" json:"subscriber_id"`
	SubscriberURL   string `yaml:"subscriber_url" json:"subscriber_url"`
	UniqueKeyID     string `yaml:"unique_key_id" json:"unique_key_id"`
	Type            string `yaml:"type" json:"type"` // BAP, BPP, BG, BRegistry
	Domain          string `yaml:"domain" json:"domain"`
	City            string `yaml:"city" json:"city"`
	SigningKeyEnv   string `yaml:"signing_key_env" json:"signing_key_env"`     // env var holding base64 Ed25519 seed
	EncryptKeyEnv   string `yaml:"encrypt_key_env" json:"encrypt_key_env"`     // env var holding base64 X25519 private key, optional
	WrapPassphraseEnv string `yaml:"wrap_passphrase_env" json:"wrap_passphrase_env"` // PBKDF2 passphrase for at-rest key wrapping
	SiteVerificationRequestID string `yaml:"site_verification_request_id" json:"site_verification_request_id"` // Registry-only: request_id for ondc-site-verification.html
}

// ServerConfig configures the instance's own protocol-plane HTTP listener
// (the Registry/Gateway/BAP/BPP routes, not the health/metrics listener).
type ServerConfig struct {
	Port            int           `yaml:"port" json:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DatabaseConfig configures the Postgres-backed relational store.
type DatabaseConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	Database string `yaml:"database" json:"database"`
	SSLMode  string `yaml:"ssl_mode" json:"ssl_mode"`
}

// SharedStoreConfig configures the Redis-backed cache/dedup/rate-limit store.
type SharedStoreConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
}

// BrokerConfig configures the Gateway's AMQP fan-out broker. Unused by
// Registry/BAP/BPP instances.
type BrokerConfig struct {
	URL          string `yaml:"url" json:"url"`
	Exchange     string `yaml:"exchange" json:"exchange"`
	WorkerCount  int    `yaml:"worker_count" json:"worker_count"`
	PrefetchSize int    `yaml:"prefetch_size" json:"prefetch_size"`
}

// PeersConfig names the other network roles this instance talks to.
type PeersConfig struct {
	RegistryURL string `yaml:"registry_url" json:"registry_url"`
	GatewayURL  string `yaml:"gateway_url" json:"gateway_url"`
}

// MiddlewareConfig tunes the shared compliance pipeline.
type MiddlewareConfig struct {
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute" json:"rate_limit_per_minute"`
	DedupWindow        time.Duration `yaml:"dedup_window" json:"dedup_window"`
	MaxClockSkew       time.Duration `yaml:"max_clock_skew" json:"max_clock_skew"`
	EnforceSLA         bool          `yaml:"enforce_sla" json:"enforce_sla"`
	RequiredHeaders    []string      `yaml:"required_headers" json:"required_headers"`
	EnforceTags        bool          `yaml:"enforce_tags" json:"enforce_tags"`
	TaggedActions      []string      `yaml:"tagged_actions" json:"tagged_actions"`
	EnforceSettlement  bool          `yaml:"enforce_settlement" json:"enforce_settlement"` // BPP-only finder-fee check (§4.8)
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// HealthConfig represents health check configuration
type HealthConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Port    int  `yaml:"port" json:"port"`
}

// LoadFromFile loads configuration from a file, trying YAML then JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)

	return cfg, nil
}

// SaveToFile saves configuration to a file
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if len(path) > 5 && path[len(path)-5:] == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// setDefaults sets default values for configuration
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Database != nil && cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	if cfg.Server == nil {
		cfg.Server = &ServerConfig{}
	}
	if cfg.Middleware == nil {
		cfg.Middleware = &MiddlewareConfig{}
	}
	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}
	if cfg.Health == nil {
		cfg.Health = &HealthConfig{}
	}

	if cfg.Broker != nil {
		if cfg.Broker.Exchange == "" {
			cfg.Broker.Exchange = "beckn.search.fanout"
		}
		if cfg.Broker.WorkerCount == 0 {
			cfg.Broker.WorkerCount = 8
		}
		if cfg.Broker.PrefetchSize == 0 {
			cfg.Broker.PrefetchSize = 16
		}
	}

	if cfg.Middleware != nil {
		if cfg.Middleware.RateLimitPerMinute == 0 {
			cfg.Middleware.RateLimitPerMinute = 600
		}
		if cfg.Middleware.DedupWindow == 0 {
			cfg.Middleware.DedupWindow = 5 * time.Minute
		}
		if cfg.Middleware.MaxClockSkew == 0 {
			cfg.Middleware.MaxClockSkew = 30 * time.Second
		}
	}

	if cfg.Logging != nil {
		if cfg.Logging.Level == "" {
			cfg.Logging.Level = "info"
		}
		if cfg.Logging.Format == "" {
			cfg.Logging.Format = "json"
		}
		if cfg.Logging.Output == "" {
			cfg.Logging.Output = "stdout"
		}
	}

	if cfg.Health != nil && cfg.Health.Port == 0 {
		cfg.Health.Port = 8090
	}

	if cfg.Server != nil {
		if cfg.Server.Port == 0 {
			cfg.Server.Port = 8080
		}
		if cfg.Server.ShutdownTimeout == 0 {
			cfg.Server.ShutdownTimeout = 10 * time.Second
		}
	}
}
