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

package main

import (
	"context"
	"crypto/ecdh"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/beckn-mesh/network/config"
	mesh "github.com/beckn-mesh/network/crypto"
	"github.com/beckn-mesh/network/crypto/keys"
	"github.com/beckn-mesh/network/internal/logger"
	"github.com/beckn-mesh/network/pkg/storage"
	"github.com/beckn-mesh/network/pkg/storage/memory"
	"github.com/beckn-mesh/network/pkg/storage/postgres"
	"github.com/beckn-mesh/network/sharedstore"
)

// loadConfig reads the --config file every subcommand requires. A
// .env in the working directory, if present, is loaded into the process environment
// first so identity.signing_key_env and friends can be kept out of the
// operator's shell history; its absence is not an error.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	_ = godotenv.Load()
	return config.LoadFromFile(configPath)
}

// buildLogger builds the structured logger the teacher's services all
// share, honoring cfg.Logging.Level (defaults already applied by
// config.LoadFromFile).
func buildLogger(cfg *config.Config) logger.Logger {
	level := logger.InfoLevel
	if cfg.Logging != nil {
		switch cfg.Logging.Level {
		case "debug":
			level = logger.DebugLevel
		case "warn":
			level = logger.WarnLevel
		case "error":
			level = logger.ErrorLevel
		}
	}
	l := logger.NewLogger(os.Stdout, level)
	if cfg.Logging != nil && cfg.Logging.Format != "json" {
		l.SetPrettyPrint(true)
	}
	return l
}

// buildStore selects the in-memory store for development or when no
// database section is configured, and the Postgres-backed store
// otherwise.
func buildStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.Environment == "development" || cfg.Database == nil {
		return memory.NewStore(), nil
	}
	return postgres.NewStore(ctx, &postgres.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
		SSLMode:  cfg.Database.SSLMode,
	})
}

// buildSharedStore connects the Redis-backed cache/dedup/rate-limit
// client every role needs for its compliance middleware.
func buildSharedStore(ctx context.Context, cfg *config.Config) (*sharedstore.Client, error) {
	if cfg.SharedStore == nil {
		return nil, fmt.Errorf("shared_store config is required")
	}
	return sharedstore.New(ctx, sharedstore.Config{
		Addr:     cfg.SharedStore.Addr,
		Password: cfg.SharedStore.Password,
		DB:       cfg.SharedStore.DB,
	})
}

// loadSigningKey reads the base64 Ed25519 seed named by
// IdentityConfig.SigningKeyEnv and builds the instance's signing
// keypair.
func loadSigningKey(cfg *config.IdentityConfig) (mesh.KeyPair, error) {
	if cfg == nil || cfg.SigningKeyEnv == "" {
		return nil, fmt.Errorf("identity.signing_key_env is required")
	}
	raw := os.Getenv(cfg.SigningKeyEnv)
	if raw == "" {
		return nil, fmt.Errorf("env var %s is empty", cfg.SigningKeyEnv)
	}
	seed, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", cfg.SigningKeyEnv, err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%s must hold a %d-byte Ed25519 seed, got %d bytes", cfg.SigningKeyEnv, ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return keys.NewEd25519KeyPair(priv, cfg.UniqueKeyID)
}

// loadEncryptKey reads the optional base64 X25519 private key named by
// IdentityConfig.EncryptKeyEnv, used by the Registry's subscription
// challenge and by PeerRole.DecryptChallenge. Returns nil, nil when the
// env var is unset — callers treat that as "no encryption key
// configured" rather than an error.
func loadEncryptKey(cfg *config.IdentityConfig) (mesh.KeyPair, error) {
	if cfg == nil || cfg.EncryptKeyEnv == "" {
		return nil, nil
	}
	raw := os.Getenv(cfg.EncryptKeyEnv)
	if raw == "" {
		return nil, nil
	}
	rawKey, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", cfg.EncryptKeyEnv, err)
	}
	priv, err := ecdh.X25519().NewPrivateKey(rawKey)
	if err != nil {
		return nil, fmt.Errorf("parsing X25519 private key from %s: %w", cfg.EncryptKeyEnv, err)
	}
	return keys.NewX25519KeyPair(priv, cfg.UniqueKeyID)
}

// waitForShutdown blocks until SIGINT or SIGTERM is received; the
// caller then runs its own shutdown sequence.
func waitForShutdown() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
}
