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
	// SearchFanout tracks how many BPPs a single search was multicast to
	SearchFanout = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "search_fanout_targets",
			Help:      "Number of BPP targets a search request was multicast to",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		},
	)

	// PublishAttempts tracks confirm-mode publishes to the fan-out broker
	PublishAttempts = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "publish_attempts_total",
			Help:      "Total publish attempts to the fan-out queue",
		},
		[]string{"result"}, // confirmed, nacked, error
	)

	// WorkerRetries tracks bounded-backoff retries of the BPP delivery worker
	WorkerRetries = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "delivery_retries_total",
			Help:      "Total delivery retry attempts by attempt number",
		},
		[]string{"attempt"},
	)

	// DeadLettered tracks messages that exhausted retries or hit a permanent error
	DeadLettered = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "dead_lettered_total",
			Help:      "Total messages dead-lettered by reason",
		},
		[]string{"reason"}, // retries-exhausted, policy-error
	)

	// RelayCallbacks tracks the fire-and-forget on_search relay to the BAP
	RelayCallbacks = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "relay_callbacks_total",
			Help:      "Total on_search relay attempts to the originating BAP",
		},
		[]string{"result"}, // delivered, timeout, error
	)
)
