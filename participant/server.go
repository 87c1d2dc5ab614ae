package participant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/beckn-mesh/network/auth"
	"github.com/beckn-mesh/network/beckn"
	"github.com/beckn-mesh/network/internal/logger"
	"github.com/beckn-mesh/network/middleware"
	"github.com/beckn-mesh/network/pkg/storage"
	"github.com/beckn-mesh/network/pkg/version"
)

// Server implements the per-action handler contract of §4.6 for a BAP
// or BPP instance. One Server instance plays one role; Role only
// governs the callback destination (BPP posts on_* to bap_uri, BAP's
// on_* routes are themselves callback terminals with nothing further
// to send).
type Server struct {
	identity  Identity
	role      storage.ParticipantType
	keys      KeyResolver
	txns      storage.TransactionStore
	client    *Client
	finderFee *middleware.FinderFeeValidator
	log       logger.Logger
	mux       *http.ServeMux
}

// NewServer builds a participant Server. finderFee may be nil — a BAP
// instance never consults it, and a BPP instance built without
// settlement enforcement configured passes nil too.
func NewServer(identity Identity, role storage.ParticipantType, keys KeyResolver, txns storage.TransactionStore, finderFee *middleware.FinderFeeValidator, log logger.Logger) *Server {
	return &Server{
		identity:  identity,
		role:      role,
		keys:      keys,
		txns:      txns,
		client:    NewClient(identity, log),
		finderFee: finderFee,
		log:       log,
		mux:       http.NewServeMux(),
	}
}

// RegisterAction mounts an action at `/<action>` (BPP) or `/on_<action>`
// (BAP), wrapping handler with the signature/envelope verification
// steps of §4.6 (steps 3-4) that are common to any action.
func (s *Server) RegisterAction(action string, handler ActionHandler) {
	path := "/" + action
	if s.role == storage.ParticipantBAP {
		path = "/on_" + action
	}
	s.mux.HandleFunc(path, s.wrapAction(action, handler))
}

// Handler returns the participant's mux. Callers are expected to wrap
// it with middleware.CaptureBody and the compliance chain (§4.3)
// before serving it — Server assumes the raw body is already in the
// request context.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) wrapAction(expectedAction string, handler ActionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := middleware.RawBody(r.Context())
		if !ok {
			beckn.WriteNack(w, http.StatusInternalServerError, beckn.ErrorTypeCore, beckn.CodeInternal, "raw body not captured")
			return
		}

		// Step 3: auth.
		header := r.Header.Get("Authorization")
		if header == "" {
			beckn.WriteNack(w, http.StatusUnauthorized, beckn.ErrorTypeContext, beckn.CodeAuth, "missing Authorization header")
			return
		}
		params, err := auth.ParseAuthHeader(header)
		if err != nil {
			beckn.WriteNack(w, http.StatusUnauthorized, beckn.ErrorTypeContext, beckn.CodeAuth, err.Error())
			return
		}
		pubKey, err := s.keys.ResolveSigningKey(r.Context(), params.SubscriberID, params.UniqueKeyID)
		if err != nil {
			beckn.WriteNack(w, http.StatusUnauthorized, beckn.ErrorTypeContext, beckn.CodeAuth, "unknown subscriber")
			return
		}
		ok, err = auth.VerifyAuthHeader(auth.VerifyOptions{
			Header:    header,
			Body:      body,
			PublicKey: auth.RawEd25519Verifier(pubKey),
			Now:       func() int64 { return time.Now().Unix() },
		})
		if err != nil || !ok {
			beckn.WriteNack(w, http.StatusUnauthorized, beckn.ErrorTypeContext, beckn.CodeAuth, "signature verification failed")
			return
		}

		// Step 4: envelope validation.
		env, err := beckn.ParseEnvelope(body)
		if err != nil {
			beckn.WriteNack(w, http.StatusBadRequest, beckn.ErrorTypeContext, beckn.CodeInvalidRequest, err.Error())
			return
		}
		if err := env.Context.Validate(); err != nil {
			beckn.WriteNack(w, http.StatusBadRequest, beckn.ErrorTypeContext, beckn.CodeInvalidRequest, err.Error())
			return
		}
		routeAction := expectedAction
		if s.role == storage.ParticipantBAP {
			routeAction = "on_" + expectedAction
		}
		if env.Context.Action != routeAction {
			beckn.WriteNack(w, http.StatusBadRequest, beckn.ErrorTypeContext, beckn.CodeInvalidRequest,
				fmt.Sprintf("action %q does not match route %q", env.Context.Action, routeAction))
			return
		}

		// Step 5: finder-fee check, BPP role only, after auth (step 3) and
		// envelope validation (step 4) have already run.
		if s.role == storage.ParticipantBPP && s.finderFee != nil {
			if reason := s.finderFee.Check(expectedAction, body); reason != "" {
				beckn.WriteNack(w, http.StatusBadRequest, beckn.ErrorTypePolicy, beckn.CodePolicy, reason)
				return
			}
		}

		// Step 6: append transaction row; failures logged, not propagated.
		s.logTransaction(r.Context(), env, storage.TransactionSent)

		// Step 7: ACK immediately, compute business response async.
		beckn.WriteAck(w)

		receivedAt := time.Now()
		go s.runAsync(env, handler, receivedAt)
	}
}

func (s *Server) runAsync(env *beckn.Envelope, handler ActionHandler, receivedAt time.Time) {
	ctx := context.Background()
	callbackAction, payload, err := handler(ctx, env)
	if err != nil {
		s.log.Error("action handler failed",
			logger.String("action", env.Context.Action),
			logger.String("transaction_id", env.Context.TransactionID),
			logger.Error(err))
		return
	}
	if callbackAction == "" {
		return
	}

	coreVersion := env.Context.CoreVersion
	if coreVersion == "" {
		coreVersion = version.ProtocolVersion
	}
	callbackCtx := beckn.Context{
		Domain:        env.Context.Domain,
		Country:       env.Context.Country,
		City:          env.Context.City,
		Action:        callbackAction,
		CoreVersion:   coreVersion,
		BapID:         env.Context.BapID,
		BapURI:        env.Context.BapURI,
		BppID:         s.identity.SubscriberID,
		TransactionID: env.Context.TransactionID,
		MessageID:     env.Context.MessageID,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(struct {
		Context beckn.Context `json:"context"`
		Message interface{}   `json:"message"`
	}{Context: callbackCtx, Message: payload})
	if err != nil {
		s.log.Error("failed to marshal callback body", logger.Error(err))
		return
	}

	destination := env.Context.BapURI + "/" + callbackAction
	if err := s.client.Post(ctx, destination, body, nil); err != nil {
		s.log.Error("callback delivery failed",
			logger.String("destination", destination), logger.Error(err))
		return
	}
	s.logTransactionStatus(ctx, env.Context.TransactionID, env.Context.MessageID,
		storage.TransactionCallbackReceived, time.Since(receivedAt).Milliseconds())
}

func (s *Server) logTransaction(ctx context.Context, env *beckn.Envelope, status storage.TransactionStatus) {
	bppID := s.identity.SubscriberID
	if s.role == storage.ParticipantBAP {
		bppID = env.Context.BppID
	}
	if err := s.txns.Create(ctx, &storage.Transaction{
		TransactionID: env.Context.TransactionID,
		MessageID:     env.Context.MessageID,
		Action:        env.Context.Action,
		BAPID:         env.Context.BapID,
		BPPID:         bppID,
		Status:        status,
	}); err != nil {
		s.log.Warn("transaction log append failed",
			logger.String("transaction_id", env.Context.TransactionID), logger.Error(err))
	}
}

func (s *Server) logTransactionStatus(ctx context.Context, transactionID, messageID string, status storage.TransactionStatus, latencyMs int64) {
	if err := s.txns.UpdateStatus(ctx, transactionID, messageID, status, latencyMs); err != nil {
		s.log.Warn("transaction status update failed",
			logger.String("transaction_id", transactionID), logger.Error(err))
	}
}
