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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// LoaderOptions configures the configuration loader
type LoaderOptions struct {
	// ConfigDir is the directory containing config files (default: ./config)
	ConfigDir string
	// Environment overrides automatic environment detection
	Environment string
	// SkipEnvSubstitution disables environment variable substitution
	SkipEnvSubstitution bool
	// SkipValidation disables configuration validation
	SkipValidation bool
}

// DefaultLoaderOptions returns default loader options
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{
		ConfigDir:           "config",
		Environment:         "",
		SkipEnvSubstitution: false,
		SkipValidation:      false,
	}
}

// Load loads configuration with automatic environment detection. It tries,
// in order: config/<env>.yaml, config/default.yaml, config/config.yaml, and
// finally falls back to a zero-value Config{} with defaults applied.
func Load(opts ...LoaderOptions) (*Config, error) {
	options := DefaultLoaderOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	env := options.Environment
	if env == "" {
		env = GetEnvironment()
	}

	envConfigPath := filepath.Join(options.ConfigDir, fmt.Sprintf("%s.yaml", env))
	cfg, err := loadConfigFile(envConfigPath)
	if err != nil {
		defaultConfigPath := filepath.Join(options.ConfigDir, "default.yaml")
		cfg, err = loadConfigFile(defaultConfigPath)
		if err != nil {
			configPath := filepath.Join(options.ConfigDir, "config.yaml")
			cfg, err = loadConfigFile(configPath)
			if err != nil {
				cfg = &Config{}
			}
		}
	}

	if cfg.Environment == "" {
		cfg.Environment = env
	}

	setDefaults(cfg)

	if !options.SkipEnvSubstitution {
		SubstituteEnvVarsInConfig(cfg)
	}

	applyEnvironmentOverrides(cfg)

	if !options.SkipValidation {
		issues := ValidateConfiguration(cfg)
		for _, e := range issues {
			if e.Level == "error" {
				return nil, fmt.Errorf("configuration validation failed: %s - %s", e.Field, e.Message)
			}
		}
	}

	return cfg, nil
}

// loadConfigFile loads a single config file
func loadConfigFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return LoadFromFile(path)
}

// applyEnvironmentOverrides overrides config with BECKN_-prefixed environment
// variables. These take precedence over both file values and ${VAR}
// substitution.
func applyEnvironmentOverrides(cfg *Config) {
	if cfg.Identity != nil {
		if v := os.Getenv("BECKN_SUBSCRIBER_ID"); v != "" {
			cfg.Identity.SubscriberID = v
		}
		if v := os.Getenv("BECKN_SUBSCRIBER_URL"); v != "" {
			cfg.Identity.SubscriberURL = v
		}
		if v := os.Getenv("BECKN_UNIQUE_KEY_ID"); v != "" {
			cfg.Identity.UniqueKeyID = v
		}
	}

	if cfg.Database != nil {
		if v := os.Getenv("BECKN_DB_HOST"); v != "" {
			cfg.Database.Host = v
		}
		if v := os.Getenv("BECKN_DB_PORT"); v != "" {
			if p, err := strconv.Atoi(v); err == nil {
				cfg.Database.Port = p
			}
		}
		if v := os.Getenv("BECKN_DB_USER"); v != "" {
			cfg.Database.User = v
		}
		if v := os.Getenv("BECKN_DB_PASSWORD"); v != "" {
			cfg.Database.Password = v
		}
		if v := os.Getenv("BECKN_DB_NAME"); v != "" {
			cfg.Database.Database = v
		}
	}

	if cfg.SharedStore != nil {
		if v := os.Getenv("BECKN_REDIS_ADDR"); v != "" {
			cfg.SharedStore.Addr = v
		}
		if v := os.Getenv("BECKN_REDIS_PASSWORD"); v != "" {
			cfg.SharedStore.Password = v
		}
	}

	if cfg.Broker != nil {
		if v := os.Getenv("BECKN_BROKER_URL"); v != "" {
			cfg.Broker.URL = v
		}
	}

	if cfg.Peers != nil {
		if v := os.Getenv("BECKN_REGISTRY_URL"); v != "" {
			cfg.Peers.RegistryURL = v
		}
		if v := os.Getenv("BECKN_GATEWAY_URL"); v != "" {
			cfg.Peers.GatewayURL = v
		}
	}

	if cfg.Logging != nil {
		if v := os.Getenv("BECKN_LOG_LEVEL"); v != "" {
			cfg.Logging.Level = v
		}
		if v := os.Getenv("BECKN_LOG_FORMAT"); v != "" {
			cfg.Logging.Format = v
		}
	}

	if cfg.Metrics != nil {
		if os.Getenv("BECKN_METRICS_ENABLED") == "true" {
			cfg.Metrics.Enabled = true
		}
		if os.Getenv("BECKN_METRICS_ENABLED") == "false" {
			cfg.Metrics.Enabled = false
		}
	}
}

// LoadForEnvironment loads configuration for a specific environment
func LoadForEnvironment(environment string) (*Config, error) {
	return Load(LoaderOptions{
		ConfigDir:   "config",
		Environment: environment,
	})
}

// MustLoad loads configuration or panics on error
func MustLoad(opts ...LoaderOptions) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
