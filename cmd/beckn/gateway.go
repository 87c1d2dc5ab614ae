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

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"

	"github.com/beckn-mesh/network/gateway"
	"github.com/beckn-mesh/network/internal/logger"
	"github.com/beckn-mesh/network/participant"
	"github.com/beckn-mesh/network/pkg/health"
	"github.com/beckn-mesh/network/registry"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Run the Discovery Gateway service (search fan-out + on_search relay)",
	RunE:  runGateway,
}

func init() {
	rootCmd.AddCommand(gatewayCmd)
}

func runGateway(cmd *cobra.Command, args []string) error {
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

	if cfg.Broker == nil {
		return fmt.Errorf("broker config is required for the gateway role")
	}
	conn, err := amqp.Dial(cfg.Broker.URL)
	if err != nil {
		return fmt.Errorf("dialing broker: %w", err)
	}
	defer conn.Close()

	signingKey, err := loadSigningKey(cfg.Identity)
	if err != nil {
		return fmt.Errorf("loading signing key: %w", err)
	}
	identity := participant.Identity{
		SubscriberID: cfg.Identity.SubscriberID,
		UniqueKeyID:  cfg.Identity.UniqueKeyID,
		Domain:       cfg.Identity.Domain,
		Signer:       signingKey,
	}
	client := participant.NewClient(identity, log)

	keyStore := registry.NewKeyStore(cache, store.SubscriberStore())
	discoverer := gateway.NewDiscoverer(store.SubscriberStore())
	publisher, err := gateway.NewPublisher(conn, cfg.Broker.Exchange, log)
	if err != nil {
		return fmt.Errorf("building publisher: %w", err)
	}
	relay := gateway.NewRelay(client, log)
	gatewaySrv := gateway.NewServer(keyStore, discoverer, publisher, relay, store.TransactionStore(), log)

	worker := gateway.NewWorker(conn, "beckn.search.fanout.q", cfg.Broker.Exchange, cfg.Broker.PrefetchSize, client, store.TransactionStore(), store.AuditStore(), log)
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	if err := worker.Run(workerCtx, cfg.Broker.WorkerCount); err != nil {
		return fmt.Errorf("starting worker pool: %w", err)
	}

	handler := wrapProtocolRoute(gatewaySrv.Handler(), cache, cfg.Middleware, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	healthSrv := health.NewServer(health.NewChecker(
		health.Dependency{Name: "store", Ping: store.Ping, Critical: true},
		health.Dependency{Name: "shared_store", Ping: cache.Ping, Critical: true},
		health.Dependency{Name: "broker", Ping: func(ctx context.Context) error {
			if conn.IsClosed() {
				return fmt.Errorf("broker connection closed")
			}
			return nil
		}, Critical: true},
	), log, cfg.Health.Port)
	if err := healthSrv.Start(); err != nil {
		return fmt.Errorf("starting health server: %w", err)
	}

	go func() {
		log.Info("gateway listening", logger.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("gateway server error", logger.Error(err))
		}
	}()

	waitForShutdown()
	log.Info("gateway shutting down")
	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = healthSrv.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}
