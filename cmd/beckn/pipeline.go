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
	"net/http"
	"time"

	"github.com/beckn-mesh/network/beckn"
	"github.com/beckn-mesh/network/config"
	"github.com/beckn-mesh/network/internal/logger"
	"github.com/beckn-mesh/network/middleware"
	"github.com/beckn-mesh/network/sharedstore"
)

// wrapProtocolRoute applies §4.3's fixed compliance pipeline (rate
// limit, dedup, policy) and §4.8's panic-to-Nack recovery in front of
// any protocol-plane handler (Registry, Gateway, or participant). The
// raw body capture wraps every stage except the outermost request-ID
// stamp, since every downstream stage — signature verification
// included — reads from it.
func wrapProtocolRoute(handler http.Handler, cache *sharedstore.Client, cfg *config.MiddlewareConfig, log logger.Logger) http.Handler {
	rateLimiter := middleware.NewRateLimiter(cache, cfg.RateLimitPerMinute, time.Minute, log)
	dedup := middleware.NewDuplicateDetector(cache, log)
	policy := middleware.NewNetworkPolicy(cfg.EnforceSLA, cfg.EnforceTags, cfg.RequiredHeaders, cfg.TaggedActions)

	chained := middleware.Chain(handler, rateLimiter.Middleware, dedup.Middleware, policy.Middleware)
	recovered := beckn.RecoverMiddleware(log)(chained)
	captured := middleware.CaptureBody(recovered)
	return beckn.RequestIDMiddleware(captured)
}
