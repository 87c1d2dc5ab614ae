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

	"github.com/beckn-mesh/network/beckn"
	"github.com/beckn-mesh/network/internal/logger"
	"github.com/beckn-mesh/network/middleware"
	"github.com/beckn-mesh/network/participant"
	"github.com/beckn-mesh/network/pkg/health"
	"github.com/beckn-mesh/network/pkg/storage"
	"github.com/beckn-mesh/network/registry"
)

// bppActions is the ONDC action set a BPP instance answers; each is
// wired to a stub handler that acknowledges without computing a real
// catalog/order response — order business logic is explicitly out of
// scope (spec.md Non-goals), but the protocol plumbing around it is not.
var bppActions = []string{"search", "select", "init", "confirm", "status", "track", "cancel", "update", "rating", "support"}

// bppCallback maps each inbound BPP action to the on_* callback it replies with.
var bppCallback = map[string]string{
	"search": "on_search", "select": "on_select", "init": "on_init", "confirm": "on_confirm",
	"status": "on_status", "track": "on_track", "cancel": "on_cancel", "update": "on_update",
	"rating": "on_rating", "support": "on_support",
}

// bapActions is the on_* callback set a BAP instance consumes.
var bapActions = []string{"search", "select", "init", "confirm", "status", "track", "cancel", "update", "rating", "support"}

var bapCmd = &cobra.Command{
	Use:   "bap",
	Short: "Run a BAP participant adapter (buyer-side)",
	RunE:  func(cmd *cobra.Command, args []string) error { return runParticipant(storage.ParticipantBAP) },
}

var bppCmd = &cobra.Command{
	Use:   "bpp",
	Short: "Run a BPP participant adapter (seller-side)",
	RunE:  func(cmd *cobra.Command, args []string) error { return runParticipant(storage.ParticipantBPP) },
}

func init() {
	rootCmd.AddCommand(bapCmd)
	rootCmd.AddCommand(bppCmd)
}

func runParticipant(role storage.ParticipantType) error {
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
	identity := participant.Identity{
		SubscriberID: cfg.Identity.SubscriberID,
		UniqueKeyID:  cfg.Identity.UniqueKeyID,
		Signer:       signingKey,
	}

	keyStore := registry.NewKeyStore(cache, store.SubscriberStore())
	var finderFee *middleware.FinderFeeValidator
	if role == storage.ParticipantBPP {
		finderFee = middleware.NewFinderFeeValidator(cfg.Middleware.EnforceSettlement)
	}
	srv := participant.NewServer(identity, role, keyStore, store.TransactionStore(), finderFee, log)

	if role == storage.ParticipantBPP {
		for _, action := range bppActions {
			callback := bppCallback[action]
			srv.RegisterAction(action, ackingStub(callback, log))
		}
	} else {
		for _, action := range bapActions {
			srv.RegisterAction(action, terminalStub(log))
		}
	}

	handler := wrapProtocolRoute(srv.Handler(), cache, cfg.Middleware, log)

	httpSrv := &http.Server{
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
		log.Info(string(role)+" listening", logger.Int("port", cfg.Server.Port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("participant server error", logger.Error(err))
		}
	}()

	waitForShutdown()
	log.Info(string(role) + " shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = healthSrv.Stop(shutdownCtx)
	return httpSrv.Shutdown(shutdownCtx)
}

// ackingStub is a BPP ActionHandler that replies on its callback action
// with an empty message body, exercising the callback-correlation path
// without computing real commerce content.
func ackingStub(callbackAction string, log logger.Logger) participant.ActionHandler {
	return func(ctx context.Context, env *beckn.Envelope) (string, interface{}, error) {
		log.Debug("bpp action received", logger.String("action", env.Context.Action), logger.String("transaction_id", env.Context.TransactionID))
		return callbackAction, struct{}{}, nil
	}
}

// terminalStub is a BAP ActionHandler for the on_* callbacks it
// receives: there is nothing further to send back.
func terminalStub(log logger.Logger) participant.ActionHandler {
	return func(ctx context.Context, env *beckn.Envelope) (string, interface{}, error) {
		log.Debug("bap callback received", logger.String("action", env.Context.Action), logger.String("transaction_id", env.Context.TransactionID))
		return "", nil, nil
	}
}
