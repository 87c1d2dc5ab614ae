package participant

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beckn-mesh/network/auth"
	"github.com/beckn-mesh/network/beckn"
	"github.com/beckn-mesh/network/crypto/keys"
	"github.com/beckn-mesh/network/internal/logger"
	"github.com/beckn-mesh/network/middleware"
	"github.com/beckn-mesh/network/pkg/storage"
	"github.com/beckn-mesh/network/pkg/storage/memory"
	"github.com/beckn-mesh/network/pkg/version"
)

type fixedKeyResolver struct {
	pub []byte
	err error
}

func (f fixedKeyResolver) ResolveSigningKey(ctx context.Context, subscriberID, uniqueKeyID string) ([]byte, error) {
	return f.pub, f.err
}

func newTestBPP(t *testing.T, resolver KeyResolver) (*Server, *memory.Store) {
	t.Helper()
	kp, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	store := memory.NewStore()
	identity := Identity{SubscriberID: "bpp.example.com", UniqueKeyID: "key1", Signer: kp.(auth.Signer)}
	srv := NewServer(identity, storage.ParticipantBPP, resolver, store.TransactionStore(), middleware.NewFinderFeeValidator(false), logger.NewDefaultLogger())
	return srv, store
}

func newTestBPPWithFinderFee(t *testing.T, resolver KeyResolver) (*Server, *memory.Store) {
	t.Helper()
	kp, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	store := memory.NewStore()
	identity := Identity{SubscriberID: "bpp.example.com", UniqueKeyID: "key1", Signer: kp.(auth.Signer)}
	srv := NewServer(identity, storage.ParticipantBPP, resolver, store.TransactionStore(), middleware.NewFinderFeeValidator(true), logger.NewDefaultLogger())
	return srv, store
}

func validSelectBody(bapURI string) string {
	return `{"context":{"domain":"retail","country":"IND","city":"std:080","action":"select",` +
		`"bap_id":"bap.example.com","bap_uri":"` + bapURI + `","transaction_id":"t1","message_id":"m1",` +
		`"timestamp":"2026-07-29T00:00:00Z"},"message":{"order":{"payment":{}}}}`
}

func signedRequest(t *testing.T, subscriberID, uniqueKeyID string, signer auth.Signer, body []byte) *http.Request {
	t.Helper()
	header, err := auth.BuildAuthHeader(auth.BuildOptions{
		SubscriberID: subscriberID,
		UniqueKeyID:  uniqueKeyID,
		PrivateKey:   signer,
		Body:         body,
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(string(body)))
	req.Header.Set("Authorization", header)
	return req
}

func serveWithCapture(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	middleware.CaptureBody(h).ServeHTTP(rec, req)
	return rec
}

func validSearchBody(bapURI string) string {
	return `{"context":{"domain":"retail","country":"IND","city":"std:080","action":"search",` +
		`"bap_id":"bap.example.com","bap_uri":"` + bapURI + `","transaction_id":"t1","message_id":"m1",` +
		`"timestamp":"2026-07-29T00:00:00Z"},"message":{}}`
}

func TestWrapAction_RejectsMissingAuthHeader(t *testing.T) {
	srv, _ := newTestBPP(t, fixedKeyResolver{})
	srv.RegisterAction("search", func(ctx context.Context, env *beckn.Envelope) (string, interface{}, error) {
		return "", nil, nil
	})
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{}`))
	rec := serveWithCapture(srv.Handler(), req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWrapAction_RejectsBadSignature(t *testing.T) {
	wrongKP, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	otherKP, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	resolver := fixedKeyResolver{pub: wrongKP.PublicKey().(ed25519.PublicKey)}
	srv, _ := newTestBPP(t, resolver)
	srv.RegisterAction("search", func(ctx context.Context, env *beckn.Envelope) (string, interface{}, error) {
		return "", nil, nil
	})
	body := []byte(validSearchBody("http://bap.example.com"))
	req := signedRequest(t, "bap.example.com", "key1", otherKP.(auth.Signer), body)
	rec := serveWithCapture(srv.Handler(), req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWrapAction_RejectsActionMismatch(t *testing.T) {
	kp, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	resolver := fixedKeyResolver{pub: kp.PublicKey().(ed25519.PublicKey)}
	srv, _ := newTestBPP(t, resolver)
	srv.RegisterAction("confirm", func(ctx context.Context, env *beckn.Envelope) (string, interface{}, error) {
		return "", nil, nil
	})
	body := []byte(validSearchBody("http://bap.example.com"))
	req := signedRequest(t, "bap.example.com", "key1", kp.(auth.Signer), body)
	req.URL.Path = "/confirm"
	rec := serveWithCapture(srv.Handler(), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWrapAction_FinderFeeRunsAfterAuth(t *testing.T) {
	// An unsigned request carrying a finder-fee-violating body must still
	// fail with 401 (auth, step 3), not 400 (finder-fee, step 5) — the
	// finder-fee check never runs on a request that hasn't been
	// authenticated yet.
	srv, _ := newTestBPPWithFinderFee(t, fixedKeyResolver{})
	srv.RegisterAction("select", func(ctx context.Context, env *beckn.Envelope) (string, interface{}, error) {
		return "", nil, nil
	})
	req := httptest.NewRequest(http.MethodPost, "/select", strings.NewReader(validSelectBody("http://bap.example.com")))
	rec := serveWithCapture(srv.Handler(), req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWrapAction_RejectsMissingFinderFee(t *testing.T) {
	kp, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	resolver := fixedKeyResolver{pub: kp.PublicKey().(ed25519.PublicKey)}
	srv, _ := newTestBPPWithFinderFee(t, resolver)
	called := false
	srv.RegisterAction("select", func(ctx context.Context, env *beckn.Envelope) (string, interface{}, error) {
		called = true
		return "", nil, nil
	})
	body := []byte(validSelectBody("http://bap.example.com"))
	req := signedRequest(t, "bap.example.com", "key1", kp.(auth.Signer), body)
	req.URL.Path = "/select"
	rec := serveWithCapture(srv.Handler(), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
}

func TestWrapAction_AckThenAsyncCallback(t *testing.T) {
	callbackReceived := make(chan struct{}, 1)
	callbackServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		beckn.WriteAck(w)
		callbackReceived <- struct{}{}
	}))
	defer callbackServer.Close()

	kp, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	resolver := fixedKeyResolver{pub: kp.PublicKey().(ed25519.PublicKey)}
	srv, store := newTestBPP(t, resolver)

	handlerCalled := make(chan struct{}, 1)
	srv.RegisterAction("search", func(ctx context.Context, env *beckn.Envelope) (string, interface{}, error) {
		handlerCalled <- struct{}{}
		return "on_search", map[string]string{"status": "ok"}, nil
	})

	body := []byte(validSearchBody(callbackServer.URL))
	req := signedRequest(t, "bap.example.com", "key1", kp.(auth.Signer), body)
	rec := serveWithCapture(srv.Handler(), req)
	assert.Equal(t, http.StatusOK, rec.Code)

	select {
	case <-handlerCalled:
	case <-time.After(time.Second):
		t.Fatal("action handler was not invoked")
	}
	select {
	case <-callbackReceived:
	case <-time.After(time.Second):
		t.Fatal("callback was not delivered")
	}

	txns, err := store.TransactionStore().Get(context.Background(), "t1", "m1")
	require.NoError(t, err)
	assert.Equal(t, storage.TransactionSent, txns.Status)
}

func TestWrapAction_CallbackDefaultsCoreVersion(t *testing.T) {
	// validSearchBody carries no context.core_version, so the async
	// callback should stamp the build's protocol version rather than
	// leaving the field empty.
	bodyReceived := make(chan []byte, 1)
	callbackServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodyReceived <- b
		beckn.WriteAck(w)
	}))
	defer callbackServer.Close()

	kp, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	resolver := fixedKeyResolver{pub: kp.PublicKey().(ed25519.PublicKey)}
	srv, _ := newTestBPP(t, resolver)
	srv.RegisterAction("search", func(ctx context.Context, env *beckn.Envelope) (string, interface{}, error) {
		return "on_search", map[string]string{"status": "ok"}, nil
	})

	body := []byte(validSearchBody(callbackServer.URL))
	req := signedRequest(t, "bap.example.com", "key1", kp.(auth.Signer), body)
	serveWithCapture(srv.Handler(), req)

	select {
	case b := <-bodyReceived:
		var decoded struct {
			Context struct {
				CoreVersion string `json:"core_version"`
			} `json:"context"`
		}
		require.NoError(t, json.Unmarshal(b, &decoded))
		assert.Equal(t, version.ProtocolVersion, decoded.Context.CoreVersion)
	case <-time.After(time.Second):
		t.Fatal("callback was not delivered")
	}
}
