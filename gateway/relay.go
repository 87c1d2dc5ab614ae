package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/beckn-mesh/network/internal/logger"
	"github.com/beckn-mesh/network/internal/metrics"
	"github.com/beckn-mesh/network/participant"
)

const relayTimeout = 10 * time.Second

// Relay fire-and-forget delivers on_search callbacks back to the
// originating BAP. Failures are logged and counted but never affect
// the reply already sent to the BPP that produced the callback.
type Relay struct {
	client *participant.Client
	log    logger.Logger
}

// NewRelay builds a Relay signing with the Gateway's domain-bound identity.
func NewRelay(client *participant.Client, log logger.Logger) *Relay {
	return &Relay{client: client, log: log}
}

// Deliver posts body to bapURI+"/on_search" asynchronously.
func (r *Relay) Deliver(bapURI string, body []byte) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				metrics.RelayCallbacks.WithLabelValues("error").Inc()
				r.log.Error("on_search relay panicked", logger.String("bap_uri", bapURI), logger.Any("panic", rec))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), relayTimeout)
		defer cancel()

		status, _, err := r.client.PostRaw(ctx, bapURI+"/on_search", body)
		switch {
		case err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
			metrics.RelayCallbacks.WithLabelValues("timeout").Inc()
			r.log.Warn("on_search relay timed out", logger.String("bap_uri", bapURI))
		case err != nil:
			metrics.RelayCallbacks.WithLabelValues("error").Inc()
			r.log.Warn("on_search relay failed", logger.String("bap_uri", bapURI), logger.Error(err))
		case status != http.StatusOK:
			metrics.RelayCallbacks.WithLabelValues("error").Inc()
			r.log.Warn("on_search relay rejected", logger.String("bap_uri", bapURI), logger.Int("status", status))
		default:
			metrics.RelayCallbacks.WithLabelValues("delivered").Inc()
		}
	}()
}
