// Package gateway implements the Discovery Gateway of §4.7: search
// fan-out across subscribed BPPs via a durable broker, and the
// fire-and-forget relay of on_search callbacks back to the BAP.
package gateway

import (
	"context"

	"github.com/beckn-mesh/network/pkg/storage"
)

// Discoverer resolves a search's fan-out targets from the Registry's
// subscriber directory.
type Discoverer struct {
	subs storage.SubscriberStore
}

// NewDiscoverer builds a Discoverer over subs.
func NewDiscoverer(subs storage.SubscriberStore) *Discoverer {
	return &Discoverer{subs: subs}
}

// Targets returns the SUBSCRIBED BPPs serving domain and city. Other
// participant types sharing the same domain/city (a BAP, the Gateway
// itself) are filtered out — only BPPs are valid search targets.
func (d *Discoverer) Targets(ctx context.Context, domain, city string) ([]*storage.Subscriber, error) {
	all, err := d.subs.ListByDomainCity(ctx, domain, city)
	if err != nil {
		return nil, err
	}
	targets := make([]*storage.Subscriber, 0, len(all))
	for _, sub := range all {
		if sub.Type == storage.ParticipantBPP {
			targets = append(targets, sub)
		}
	}
	return targets, nil
}
