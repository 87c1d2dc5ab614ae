package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beckn-mesh/network/pkg/storage"
	"github.com/beckn-mesh/network/pkg/storage/memory"
)

// These tests exercise the state-machine transitions and guards that
// don't require a live shared-cache connection (ResolveSigningKey and
// InvalidateKey need one and are not covered by these tests). Service
// is built with a nil KeyStore/ChallengeIssuer/Logger
// deliberately, since none of the paths below reach them.

func TestSubscribeRequest_Validation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	svc := &Service{subs: store.SubscriberStore(), audit: store.AuditStore()}

	_, err := svc.Subscribe(ctx, SubscribeRequest{})
	assert.Error(t, err)
}

func TestOnSubscribe_UnknownSubscriberFails(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := &Service{subs: store.SubscriberStore(), audit: store.AuditStore()}

	err := svc.OnSubscribe(ctx, "missing", "key1", "answer")
	assert.ErrorIs(t, err, ErrSubscriberNotFound)
}

func TestOnSubscribe_WrongStateFails(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := &Service{subs: store.SubscriberStore(), audit: store.AuditStore()}

	require.NoError(t, store.SubscriberStore().Create(ctx, &storage.Subscriber{
		SubscriberID: "bap.example.com", UniqueKeyID: "key1",
		Status: storage.StatusSubscribed, SigningPubKey: []byte("k"),
	}))

	err := svc.OnSubscribe(ctx, "bap.example.com", "key1", "answer")
	assert.ErrorIs(t, err, ErrWrongState)
}

func TestSetStatus_RejectsNonTerminalTarget(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := &Service{subs: store.SubscriberStore(), audit: store.AuditStore()}

	err := svc.SetStatus(ctx, "bap.example.com", "key1", storage.StatusSubscribed)
	assert.Error(t, err)
}
