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
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/beckn-mesh/network/internal/logger"
	"github.com/beckn-mesh/network/pkg/health"
	"github.com/beckn-mesh/network/registry"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Run the Registry service (subscription handshake + public-key lookup)",
	RunE:  runRegistry,
}

func init() {
	rootCmd.AddCommand(registryCmd)
}

func runRegistry(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := buildLogger(cfg)
	ctx := context.Background()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building store: %w", err)
	}
	defer store.Close()

	cache, err := buildSharedStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building shared store: %w", err)
	}
	defer cache.Close()

	signingKey, err := loadSigningKey(cfg.Identity)
	if err != nil {
		return fmt.Errorf("loading signing key: %w", err)
	}
	encryptKey, err := loadEncryptKey(cfg.Identity)
	if err != nil {
		return fmt.Errorf("loading encrypt key: %w", err)
	}

	keyStore := registry.NewKeyStore(cache, store.SubscriberStore())
	challenge := registry.NewChallengeIssuer(cache)
	peer, err := registry.NewPeerRole(encryptKey)
	if err != nil {
		return fmt.Errorf("building peer role: %w", err)
	}
	site := registry.NewSiteVerifier(cfg.Identity.SiteVerificationRequestID, signingKey)
	svc := registry.NewService(store.SubscriberStore(), store.AuditStore(), keyStore, challenge, log)
	handlers := registry.NewHandlers(svc, store.SubscriberStore(), peer, site, log)

	mux := http.NewServeMux()
	handlers.Register(mux)

	if cfg.Admin == nil || cfg.Admin.JWTSecretEnv == "" {
		return fmt.Errorf("admin.jwt_secret_env is required to mount the status-transition endpoint")
	}
	adminHandler, err := requireAdminJWT(cfg.Admin.JWTSecretEnv, handlers.HandleAdminSetStatus)
	if err != nil {
		return fmt.Errorf("building admin auth: %w", err)
	}
	mux.HandleFunc("/admin/status", adminHandler)

	handler := wrapProtocolRoute(mux, cache, cfg.Middleware, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	healthSrv := health.NewServer(health.NewChecker(
		health.Dependency{Name: "store", Ping: store.Ping, Critical: true},
		health.Dependency{Name: "shared_store", Ping: cache.Ping, Critical: true},
	), log, cfg.Health.Port)
	if err := healthSrv.Start(); err != nil {
		return fmt.Errorf("starting health server: %w", err)
	}

	go func() {
		log.Info("registry listening", logger.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("registry server error", logger.Error(err))
		}
	}()

	waitForShutdown()
	log.Info("registry shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = healthSrv.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}
