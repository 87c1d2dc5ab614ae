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
	// RateLimitDecisions tracks the sliding-window rate limiter's allow/deny decisions
	RateLimitDecisions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "middleware",
			Name:      "rate_limit_decisions_total",
			Help:      "Total rate limiter decisions by decision",
		},
		[]string{"decision"}, // allowed, rejected, fail-open
	)

	// DedupDecisions tracks message_id dedup lookups
	DedupDecisions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "middleware",
			Name:      "dedup_decisions_total",
			Help:      "Total dedup decisions",
		},
		[]string{"decision"}, // novel, duplicate, fail-open
	)

	// PolicyRejections tracks SLA/tag policy enforcement rejections
	PolicyRejections = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "middleware",
			Name:      "policy_rejections_total",
			Help:      "Total requests rejected by policy enforcement, by rule",
		},
		[]string{"rule"},
	)

	// ChainDuration tracks the cost of the full compliance middleware chain
	ChainDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "middleware",
			Name:      "chain_duration_seconds",
			Help:      "Duration of the rate-limit/dedup/policy middleware chain",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		},
	)
)
