package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/beckn-mesh/network/auth"
	"github.com/beckn-mesh/network/beckn"
	"github.com/beckn-mesh/network/internal/logger"
	"github.com/beckn-mesh/network/internal/metrics"
	"github.com/beckn-mesh/network/middleware"
	"github.com/beckn-mesh/network/participant"
	"github.com/beckn-mesh/network/pkg/storage"
)

// Server implements §4.7's two HTTP surfaces: the BAP-facing /search
// fan-out endpoint and the BPP-facing /on_search relay endpoint.
type Server struct {
	keys      participant.KeyResolver
	discover  *Discoverer
	publisher *Publisher
	relay     *Relay
	txns      storage.TransactionStore
	log       logger.Logger
	mux       *http.ServeMux
}

// NewServer builds a Gateway Server and mounts its routes.
func NewServer(keys participant.KeyResolver, discover *Discoverer, publisher *Publisher, relay *Relay, txns storage.TransactionStore, log logger.Logger) *Server {
	s := &Server{
		keys: keys, discover: discover,
		publisher: publisher, relay: relay, txns: txns, log: log,
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("/search", s.handleSearch)
	s.mux.HandleFunc("/on_search", s.handleOnSearch)
	s.mux.HandleFunc("/health", s.handleHealth)
	return s
}

// Handler returns the Gateway's mux. Callers wrap it with
// middleware.CaptureBody and the compliance chain before serving it.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// verify runs the common auth + envelope validation steps shared by
// /search and /on_search, writing the appropriate Nack and returning a
// nil envelope when verification fails.
func (s *Server) verify(w http.ResponseWriter, r *http.Request, expectedAction string) *beckn.Envelope {
	body, ok := middleware.RawBody(r.Context())
	if !ok {
		beckn.WriteNack(w, http.StatusInternalServerError, beckn.ErrorTypeCore, beckn.CodeInternal, "raw body not captured")
		return nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		beckn.WriteNack(w, http.StatusUnauthorized, beckn.ErrorTypeContext, beckn.CodeAuth, "missing Authorization header")
		return nil
	}
	params, err := auth.ParseAuthHeader(header)
	if err != nil {
		beckn.WriteNack(w, http.StatusUnauthorized, beckn.ErrorTypeContext, beckn.CodeAuth, err.Error())
		return nil
	}
	pubKey, err := s.keys.ResolveSigningKey(r.Context(), params.SubscriberID, params.UniqueKeyID)
	if err != nil {
		beckn.WriteNack(w, http.StatusUnauthorized, beckn.ErrorTypeContext, beckn.CodeAuth, "unknown subscriber")
		return nil
	}
	verified, err := auth.VerifyAuthHeader(auth.VerifyOptions{
		Header:    header,
		Body:      body,
		PublicKey: auth.RawEd25519Verifier(pubKey),
		Now:       func() int64 { return time.Now().Unix() },
	})
	if err != nil || !verified {
		beckn.WriteNack(w, http.StatusUnauthorized, beckn.ErrorTypeContext, beckn.CodeAuth, "signature verification failed")
		return nil
	}

	env, err := beckn.ParseEnvelope(body)
	if err != nil {
		beckn.WriteNack(w, http.StatusBadRequest, beckn.ErrorTypeContext, beckn.CodeInvalidRequest, err.Error())
		return nil
	}
	if err := env.Context.Validate(); err != nil {
		beckn.WriteNack(w, http.StatusBadRequest, beckn.ErrorTypeContext, beckn.CodeInvalidRequest, err.Error())
		return nil
	}
	if env.Context.Action != expectedAction {
		beckn.WriteNack(w, http.StatusBadRequest, beckn.ErrorTypeContext, beckn.CodeInvalidRequest, "action does not match route")
		return nil
	}
	return env
}

// handleSearch discovers the subscribed BPPs for the request's
// domain/city, multicasts the signed search body onto the fan-out
// exchange, logs one SENT transaction row for the request, and replies 200
// immediately without waiting on any BPP response (§4.7).
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	env := s.verify(w, r, "search")
	if env == nil {
		return
	}
	body, _ := middleware.RawBody(r.Context())

	targets, err := s.discover.Targets(r.Context(), env.Context.Domain, env.Context.City)
	if err != nil {
		beckn.WriteNack(w, http.StatusInternalServerError, beckn.ErrorTypeCore, beckn.CodeInternal, "discovery failed")
		return
	}
	metrics.SearchFanout.Observe(float64(len(targets)))

	// Exactly one SENT row, with no bpp_id, is logged for this /search
	// regardless of how many BPPs matched, so the transaction log always
	// has a record of the request having been received.
	if err := s.txns.Create(r.Context(), &storage.Transaction{
		TransactionID: env.Context.TransactionID,
		MessageID:     env.Context.MessageID,
		Action:        "search",
		BAPID:         env.Context.BapID,
		Status:        storage.TransactionSent,
	}); err != nil {
		s.log.Warn("gateway: transaction log append failed", logger.Error(err))
	}

	msgs := make([]FanoutMessage, 0, len(targets))
	for _, t := range targets {
		msgs = append(msgs, FanoutMessage{
			BppID:         t.SubscriberID,
			BppURL:        t.URL,
			TransactionID: env.Context.TransactionID,
			MessageID:     env.Context.MessageID,
			Body:          body,
		})
	}

	s.publisher.PublishAll(r.Context(), msgs)
	beckn.WriteAck(w)
}

// handleOnSearch accepts a BPP's on_search callback, logs it, and
// relays it to the originating BAP fire-and-forget before replying.
func (s *Server) handleOnSearch(w http.ResponseWriter, r *http.Request) {
	env := s.verify(w, r, "on_search")
	if env == nil {
		return
	}
	body, _ := middleware.RawBody(r.Context())

	if err := s.txns.UpdateStatus(r.Context(), env.Context.TransactionID, env.Context.MessageID, storage.TransactionCallbackReceived, 0); err != nil {
		s.log.Warn("gateway: transaction status update failed", logger.Error(err))
	}

	s.relay.Deliver(env.Context.BapURI, body)
	beckn.WriteAck(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
