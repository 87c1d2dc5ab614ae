package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/beckn-mesh/network/pkg/storage"
)

// Store implements storage.Store with in-memory maps — used for tests and
// local development, never production (no durability across restarts).
type Store struct {
	subscribersMu sync.RWMutex
	subscribers   map[string]*storage.Subscriber

	transactionsMu sync.RWMutex
	transactions   map[string]*storage.Transaction
	nextTxnID      int64

	auditMu    sync.RWMutex
	audit      []*storage.AuditEvent
	nextEvtID  int64

	subscriberStore *SubscriberStore
	transactionStore *TransactionStore
	auditStore      *AuditStore
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	s := &Store{
		subscribers:  make(map[string]*storage.Subscriber),
		transactions: make(map[string]*storage.Transaction),
	}
	s.subscriberStore = &SubscriberStore{store: s}
	s.transactionStore = &TransactionStore{store: s}
	s.auditStore = &AuditStore{store: s}
	return s
}

func (s *Store) SubscriberStore() storage.SubscriberStore   { return s.subscriberStore }
func (s *Store) TransactionStore() storage.TransactionStore { return s.transactionStore }
func (s *Store) AuditStore() storage.AuditStore             { return s.auditStore }
func (s *Store) Close() error                                { return nil }
func (s *Store) Ping(ctx context.Context) error              { return nil }

func subscriberKey(subscriberID, uniqueKeyID string) string {
	return subscriberID + "|" + uniqueKeyID
}

func transactionKey(transactionID, messageID string) string {
	return transactionID + "|" + messageID
}

// SubscriberStore implements storage.SubscriberStore.
type SubscriberStore struct {
	store *Store
}

func (s *SubscriberStore) Create(ctx context.Context, sub *storage.Subscriber) error {
	s.store.subscribersMu.Lock()
	defer s.store.subscribersMu.Unlock()

	key := subscriberKey(sub.SubscriberID, sub.UniqueKeyID)
	if _, exists := s.store.subscribers[key]; exists {
		return fmt.Errorf("subscriber already exists: %s/%s", sub.SubscriberID, sub.UniqueKeyID)
	}

	cp := *sub
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	s.store.subscribers[key] = &cp
	return nil
}

func (s *SubscriberStore) Get(ctx context.Context, subscriberID, uniqueKeyID string) (*storage.Subscriber, error) {
	s.store.subscribersMu.RLock()
	defer s.store.subscribersMu.RUnlock()

	sub, exists := s.store.subscribers[subscriberKey(subscriberID, uniqueKeyID)]
	if !exists {
		return nil, fmt.Errorf("subscriber not found: %s/%s", subscriberID, uniqueKeyID)
	}
	cp := *sub
	return &cp, nil
}

func (s *SubscriberStore) UpdateStatus(ctx context.Context, subscriberID, uniqueKeyID string, status storage.SubscriptionStatus, validFrom, validUntil int64) error {
	s.store.subscribersMu.Lock()
	defer s.store.subscribersMu.Unlock()

	sub, exists := s.store.subscribers[subscriberKey(subscriberID, uniqueKeyID)]
	if !exists {
		return fmt.Errorf("subscriber not found: %s/%s", subscriberID, uniqueKeyID)
	}

	sub.Status = status
	if validFrom > 0 {
		sub.ValidFrom = time.Unix(validFrom, 0)
	}
	if validUntil > 0 {
		sub.ValidUntil = time.Unix(validUntil, 0)
	}
	sub.UpdatedAt = time.Now()
	return nil
}

func (s *SubscriberStore) ListByDomainCity(ctx context.Context, domain, city string) ([]*storage.Subscriber, error) {
	s.store.subscribersMu.RLock()
	defer s.store.subscribersMu.RUnlock()

	var result []*storage.Subscriber
	for _, sub := range s.store.subscribers {
		if sub.Status != storage.StatusSubscribed {
			continue
		}
		if sub.Domain != domain {
			continue
		}
		if sub.City != city && sub.City != "*" {
			continue
		}
		cp := *sub
		result = append(result, &cp)
	}
	return result, nil
}

// TransactionStore implements storage.TransactionStore.
type TransactionStore struct {
	store *Store
}

func (s *TransactionStore) Create(ctx context.Context, txn *storage.Transaction) error {
	s.store.transactionsMu.Lock()
	defer s.store.transactionsMu.Unlock()

	s.store.nextTxnID++
	cp := *txn
	cp.ID = s.store.nextTxnID
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	s.store.transactions[transactionKey(txn.TransactionID, txn.MessageID)] = &cp
	return nil
}

func (s *TransactionStore) UpdateStatus(ctx context.Context, transactionID, messageID string, status storage.TransactionStatus, latencyMs int64) error {
	s.store.transactionsMu.Lock()
	defer s.store.transactionsMu.Unlock()

	txn, exists := s.store.transactions[transactionKey(transactionID, messageID)]
	if !exists {
		return fmt.Errorf("transaction not found: %s/%s", transactionID, messageID)
	}
	txn.Status = status
	if latencyMs > 0 {
		txn.LatencyMs = latencyMs
	}
	txn.UpdatedAt = time.Now()
	return nil
}

func (s *TransactionStore) Get(ctx context.Context, transactionID, messageID string) (*storage.Transaction, error) {
	s.store.transactionsMu.RLock()
	defer s.store.transactionsMu.RUnlock()

	txn, exists := s.store.transactions[transactionKey(transactionID, messageID)]
	if !exists {
		return nil, fmt.Errorf("transaction not found: %s/%s", transactionID, messageID)
	}
	cp := *txn
	return &cp, nil
}

// AuditStore implements storage.AuditStore.
type AuditStore struct {
	store *Store
}

func (s *AuditStore) Append(ctx context.Context, event *storage.AuditEvent) error {
	s.store.auditMu.Lock()
	defer s.store.auditMu.Unlock()

	s.store.nextEvtID++
	cp := *event
	cp.ID = s.store.nextEvtID
	cp.CreatedAt = time.Now()
	s.store.audit = append(s.store.audit, &cp)
	return nil
}

func (s *AuditStore) ListBySubscriber(ctx context.Context, subscriberID string, limit int) ([]*storage.AuditEvent, error) {
	s.store.auditMu.RLock()
	defer s.store.auditMu.RUnlock()

	var result []*storage.AuditEvent
	for i := len(s.store.audit) - 1; i >= 0 && len(result) < limit; i-- {
		if s.store.audit[i].SubscriberID == subscriberID {
			cp := *s.store.audit[i]
			result = append(result, &cp)
		}
	}
	return result, nil
}
