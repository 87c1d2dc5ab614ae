package gateway

import (
	"context"
	"crypto/ed25519"
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
	"github.com/beckn-mesh/network/participant"
	"github.com/beckn-mesh/network/pkg/storage"
	"github.com/beckn-mesh/network/pkg/storage/memory"
)

func mustSubscribe(t *testing.T, store *memory.Store, id string, typ storage.ParticipantType, domain, city, url string) {
	t.Helper()
	require.NoError(t, store.SubscriberStore().Create(context.Background(), &storage.Subscriber{
		SubscriberID: id, UniqueKeyID: "key1", Type: typ, Domain: domain, City: city, URL: url,
		Status: storage.StatusSubscribed,
	}))
}

func TestDiscoverer_FiltersToBPPOnly(t *testing.T) {
	store := memory.NewStore()
	mustSubscribe(t, store, "bpp1.example.com", storage.ParticipantBPP, "retail", "std:080", "http://bpp1")
	mustSubscribe(t, store, "bpp2.example.com", storage.ParticipantBPP, "retail", "*", "http://bpp2")
	mustSubscribe(t, store, "bap1.example.com", storage.ParticipantBAP, "retail", "std:080", "http://bap1")

	d := NewDiscoverer(store.SubscriberStore())
	targets, err := d.Targets(context.Background(), "retail", "std:080")
	require.NoError(t, err)
	require.Len(t, targets, 2)
	for _, target := range targets {
		assert.Equal(t, storage.ParticipantBPP, target.Type)
	}
}

func TestIsPermanentPolicyError(t *testing.T) {
	policyNack := beckn.NewNack(beckn.ErrorTypePolicy, beckn.CodePolicy, "rate limited")
	body, err := beckn.MarshalIndentless(policyNack)
	require.NoError(t, err)
	assert.True(t, isPermanentPolicyError(body))

	authNack := beckn.NewNack(beckn.ErrorTypeContext, beckn.CodeAuth, "bad signature")
	body, err = beckn.MarshalIndentless(authNack)
	require.NoError(t, err)
	assert.False(t, isPermanentPolicyError(body))

	assert.False(t, isPermanentPolicyError([]byte("not json")))
}

func TestServer_VerifyRejectsMissingAuthHeader(t *testing.T) {
	srv := NewServer(nil, nil, nil, nil, nil, logger.NewDefaultLogger())
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	middleware.CaptureBody(srv.Handler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type staticResolver []byte

func (s staticResolver) ResolveSigningKey(ctx context.Context, subscriberID, uniqueKeyID string) ([]byte, error) {
	return s, nil
}

func TestServer_OnSearchRelaysAndAcks(t *testing.T) {
	relayed := make(chan struct{}, 1)
	bapServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		beckn.WriteAck(w)
		relayed <- struct{}{}
	}))
	defer bapServer.Close()

	kp, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)

	gatewayIdentity := participant.Identity{SubscriberID: "gateway.example.com", UniqueKeyID: "gkey", Domain: "retail", Signer: kp.(auth.Signer)}
	client := participant.NewClient(gatewayIdentity, logger.NewDefaultLogger())
	relay := NewRelay(client, logger.NewDefaultLogger())

	store := memory.NewStore()
	require.NoError(t, store.TransactionStore().Create(context.Background(), &storage.Transaction{
		TransactionID: "t1", MessageID: "m1", Action: "search",
		BAPID: "bap.example.com", BPPID: "bpp.example.com", Status: storage.TransactionSent,
	}))

	srv := NewServer(staticResolver(kp.PublicKey().(ed25519.PublicKey)), nil, nil, relay, store.TransactionStore(), logger.NewDefaultLogger())

	body := []byte(`{"context":{"domain":"retail","country":"IND","city":"std:080","action":"on_search",` +
		`"bap_id":"bap.example.com","bap_uri":"` + bapServer.URL + `","bpp_id":"bpp.example.com",` +
		`"transaction_id":"t1","message_id":"m1","timestamp":"2026-07-29T00:00:00Z"},"message":{}}`)
	header, err := auth.BuildAuthHeader(auth.BuildOptions{SubscriberID: "bpp.example.com", UniqueKeyID: "key1", PrivateKey: kp.(auth.Signer), Body: body})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/on_search", strings.NewReader(string(body)))
	req.Header.Set("Authorization", header)
	rec := httptest.NewRecorder()
	middleware.CaptureBody(srv.Handler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	select {
	case <-relayed:
	case <-time.After(time.Second):
		t.Fatal("on_search was not relayed to the BAP")
	}

	txn, err := store.TransactionStore().Get(context.Background(), "t1", "m1")
	require.NoError(t, err)
	assert.Equal(t, storage.TransactionCallbackReceived, txn.Status)
}
