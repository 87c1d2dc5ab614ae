package registry

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/beckn-mesh/network/beckn"
	mesh "github.com/beckn-mesh/network/crypto"
	"github.com/beckn-mesh/network/crypto/formats"
	"github.com/beckn-mesh/network/crypto/keys"
	"github.com/beckn-mesh/network/internal/logger"
	"github.com/beckn-mesh/network/pkg/storage"
)

// Handlers wires the subscription Service and peer role onto the
// Registry's HTTP endpoints (§6).
type Handlers struct {
	svc  *Service
	subs storage.SubscriberStore
	peer *PeerRole
	site *SiteVerifier
	log  logger.Logger
}

// NewHandlers builds the Registry's HTTP handler set.
func NewHandlers(svc *Service, subs storage.SubscriberStore, peer *PeerRole, site *SiteVerifier, log logger.Logger) *Handlers {
	return &Handlers{svc: svc, subs: subs, peer: peer, site: site, log: log}
}

// Register mounts every Registry endpoint on mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/subscribe", h.handleSubscribe)
	mux.HandleFunc("/on_subscribe", h.handleOnSubscribe)
	mux.HandleFunc("/ondc/on_subscribe", h.handleOndcOnSubscribe)
	mux.HandleFunc("/ondc-site-verification.html", h.handleSiteVerification)
	mux.HandleFunc("/lookup", h.handleLookup)
}

func (h *Handlers) handleLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	if sid, kid := q.Get("subscriber_id"), q.Get("unique_key_id"); sid != "" && kid != "" {
		sub, err := h.subs.Get(r.Context(), sid, kid)
		if err != nil {
			beckn.WriteNack(w, http.StatusNotFound, beckn.ErrorTypeDomain, beckn.CodeInvalidRequest, "subscriber not found")
			return
		}
		if q.Get("format") == "jwk" {
			h.writeJWK(w, sub)
			return
		}
		beckn.WriteJSON(w, http.StatusOK, []*storage.Subscriber{sub})
		return
	}

	domain, city := q.Get("domain"), q.Get("city")
	if domain == "" || city == "" {
		beckn.WriteNack(w, http.StatusBadRequest, beckn.ErrorTypeContext, beckn.CodeInvalidRequest,
			"provide either subscriber_id+unique_key_id or domain+city")
		return
	}
	subs, err := h.subs.ListByDomainCity(r.Context(), domain, city)
	if err != nil {
		h.log.Error("lookup failed", logger.Error(err))
		beckn.WriteNack(w, http.StatusInternalServerError, beckn.ErrorTypeCore, beckn.CodeInternal, "internal error")
		return
	}
	beckn.WriteJSON(w, http.StatusOK, subs)
}

// writeJWK exports a subscriber's Ed25519 signing key as a public JWK,
// the format ONDC-style registries publish lookup results in alongside
// the raw-bytes form.
func (h *Handlers) writeJWK(w http.ResponseWriter, sub *storage.Subscriber) {
	kp := keys.NewEd25519PublicKeyOnly(ed25519.PublicKey(sub.SigningPubKey), sub.UniqueKeyID)
	jwkBytes, err := formats.NewJWKExporter().ExportPublic(kp, mesh.KeyFormatJWK)
	if err != nil {
		beckn.WriteNack(w, http.StatusInternalServerError, beckn.ErrorTypeCore, beckn.CodeInternal, "jwk export failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(jwkBytes)
}

func (h *Handlers) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		beckn.WriteNack(w, http.StatusBadRequest, beckn.ErrorTypeContext, beckn.CodeInvalidRequest, "invalid request body")
		return
	}

	encryptedChallenge, err := h.svc.Subscribe(r.Context(), req)
	if err != nil {
		h.log.Error("subscribe failed", logger.String("subscriber_id", req.SubscriberID), logger.Error(err))
		beckn.WriteNack(w, http.StatusBadRequest, beckn.ErrorTypeDomain, beckn.CodeInvalidRequest, err.Error())
		return
	}

	beckn.WriteJSON(w, http.StatusOK, struct {
		Challenge string `json:"encrypted_challenge"`
	}{Challenge: encryptedChallenge})
}

type onSubscribeRequest struct {
	SubscriberID string `json:"subscriber_id"`
	UniqueKeyID  string `json:"unique_key_id"`
	Answer       string `json:"answer"`
}

func (h *Handlers) handleOnSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req onSubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		beckn.WriteNack(w, http.StatusBadRequest, beckn.ErrorTypeContext, beckn.CodeInvalidRequest, "invalid request body")
		return
	}

	err := h.svc.OnSubscribe(r.Context(), req.SubscriberID, req.UniqueKeyID, req.Answer)
	switch {
	case err == nil:
		beckn.WriteAck(w)
	case errors.Is(err, ErrChallengeFailed):
		beckn.WriteNack(w, http.StatusUnauthorized, beckn.ErrorTypeContext, beckn.CodeAuth, "CHALLENGE_FAILED")
	case errors.Is(err, ErrSubscriberNotFound), errors.Is(err, ErrWrongState):
		beckn.WriteNack(w, http.StatusBadRequest, beckn.ErrorTypeDomain, beckn.CodeInvalidRequest, err.Error())
	default:
		h.log.Error("on_subscribe failed", logger.String("subscriber_id", req.SubscriberID), logger.Error(err))
		beckn.WriteNack(w, http.StatusInternalServerError, beckn.ErrorTypeCore, beckn.CodeInternal, "internal error")
	}
}

type ondcOnSubscribeRequest struct {
	Challenge string `json:"challenge"`
}

func (h *Handlers) handleOndcOnSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req ondcOnSubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		beckn.WriteNack(w, http.StatusBadRequest, beckn.ErrorTypeContext, beckn.CodeInvalidRequest, "invalid request body")
		return
	}

	answer, err := h.peer.DecryptChallenge(r.Context(), req.Challenge)
	switch {
	case errors.Is(err, ErrMissingKeyMaterial):
		beckn.WriteNack(w, http.StatusInternalServerError, beckn.ErrorTypeCore, beckn.CodeInternal, "MISSING_KEY")
		return
	case errors.Is(err, ErrOnSubscribeFailed):
		beckn.WriteNack(w, http.StatusInternalServerError, beckn.ErrorTypeCore, beckn.CodeInternal, "ON_SUBSCRIBE_FAILED")
		return
	case err != nil:
		h.log.Error("ondc on_subscribe failed", logger.Error(err))
		beckn.WriteNack(w, http.StatusInternalServerError, beckn.ErrorTypeCore, beckn.CodeInternal, "ON_SUBSCRIBE_FAILED")
		return
	}

	beckn.WriteJSON(w, http.StatusOK, struct {
		Answer string `json:"answer"`
	}{Answer: answer})
}

func (h *Handlers) handleSiteVerification(w http.ResponseWriter, r *http.Request) {
	page, err := h.site.Page()
	if err != nil {
		h.log.Error("site verification page generation failed", logger.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(page))
}

// adminStatusRequest is the admin-triggered SUSPENDED/REVOKED transition
// body; cmd/beckn mounts its handler behind a bearer-JWT check.
type adminStatusRequest struct {
	SubscriberID string                    `json:"subscriber_id"`
	UniqueKeyID  string                    `json:"unique_key_id"`
	Status       storage.SubscriptionStatus `json:"status"`
}

// HandleAdminSetStatus handles the admin status-transition endpoint.
// Callers must wrap this with their own bearer-JWT authorization
// middleware before mounting it.
func (h *Handlers) HandleAdminSetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req adminStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		beckn.WriteNack(w, http.StatusBadRequest, beckn.ErrorTypeContext, beckn.CodeInvalidRequest, "invalid request body")
		return
	}
	if err := h.svc.SetStatus(r.Context(), req.SubscriberID, req.UniqueKeyID, req.Status); err != nil {
		beckn.WriteNack(w, http.StatusBadRequest, beckn.ErrorTypeDomain, beckn.CodeInvalidRequest, err.Error())
		return
	}
	beckn.WriteAck(w)
}
