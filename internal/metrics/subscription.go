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
	// SubscriptionTransitions tracks state machine transitions by from/to state
	SubscriptionTransitions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "subscription_transitions_total",
			Help:      "Total subscriber status transitions",
		},
		[]string{"from", "to"},
	)

	// SubscribersActive tracks the current count of SUBSCRIBED subscribers
	SubscribersActive = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "subscribers_active",
			Help:      "Number of subscribers currently in SUBSCRIBED status",
		},
	)

	// ChallengesIssued tracks challenge/response handshake outcomes
	ChallengesIssued = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "challenges_total",
			Help:      "Total challenges issued and their resolution",
		},
		[]string{"outcome"}, // issued, verified, expired, reused, failed
	)

	// KeyCacheLookups tracks the public-key cache-aside hit/miss/invalidate path
	KeyCacheLookups = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "key_cache_lookups_total",
			Help:      "Public key cache-aside lookups",
		},
		[]string{"result"}, // hit, miss, invalidated
	)
)
