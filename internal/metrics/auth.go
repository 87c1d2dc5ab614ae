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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthRequestsVerified tracks inbound requests that reached signature verification
	AuthRequestsVerified = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "requests_verified_total",
			Help:      "Total number of inbound requests passed through signature verification",
		},
		[]string{"result"}, // ok, missing-header, stale, bad-digest, bad-signature, unknown-key
	)

	// AuthClockSkewSeconds tracks the observed |now - created| gap on accepted requests
	AuthClockSkewSeconds = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "clock_skew_seconds",
			Help:      "Observed clock skew between signer and verifier on accepted requests",
			Buckets:   prometheus.LinearBuckets(0, 5, 8), // 0s..35s
		},
	)

	// AuthVerifyDuration tracks the cost of the full verify path (digest + signature)
	AuthVerifyDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "verify_duration_seconds",
			Help:      "Duration of auth header parse + digest + signature verification",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 15),
		},
	)
)
