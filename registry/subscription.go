package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beckn-mesh/network/internal/logger"
	"github.com/beckn-mesh/network/internal/metrics"
	"github.com/beckn-mesh/network/pkg/storage"
)

var (
	ErrAlreadySubscribed  = errors.New("registry: subscriber already in a non-initiated state")
	ErrSubscriberNotFound = errors.New("registry: subscriber not found")
	ErrWrongState         = errors.New("registry: subscriber is not awaiting a challenge answer")
	ErrChallengeFailed    = errors.New("registry: challenge answer incorrect or expired")
)

const subscriptionValidity = 365 * 24 * time.Hour

// SubscribeRequest is the inbound body of POST /subscribe.
type SubscribeRequest struct {
	SubscriberID  string                    `json:"subscriber_id"`
	UniqueKeyID   string                    `json:"unique_key_id"`
	Type          storage.ParticipantType   `json:"type"`
	Domain        string                    `json:"domain"`
	City          string                    `json:"city"`
	Country       string                    `json:"country"`
	URL           string                    `json:"url"`
	SigningPubKey []byte                    `json:"signing_public_key"`
	EncrPubKey    []byte                    `json:"encr_public_key"`
}

// Service implements the subscription state machine of spec §4.5.
type Service struct {
	subs      storage.SubscriberStore
	audit     storage.AuditStore
	keys      *KeyStore
	challenge *ChallengeIssuer
	log       logger.Logger
}

// NewService builds a subscription Service.
func NewService(subs storage.SubscriberStore, audit storage.AuditStore, keys *KeyStore, challenge *ChallengeIssuer, log logger.Logger) *Service {
	return &Service{subs: subs, audit: audit, keys: keys, challenge: challenge, log: log}
}

// Subscribe handles POST /subscribe: upserts the subscriber row in
// UNDER_SUBSCRIPTION and returns the encrypted one-time challenge.
func (s *Service) Subscribe(ctx context.Context, req SubscribeRequest) (encryptedChallenge string, err error) {
	if req.SubscriberID == "" || req.UniqueKeyID == "" {
		return "", fmt.Errorf("subscriber_id and unique_key_id are required")
	}
	if len(req.SigningPubKey) == 0 || len(req.EncrPubKey) == 0 {
		return "", fmt.Errorf("signing_public_key and encr_public_key are required")
	}

	existing, err := s.subs.Get(ctx, req.SubscriberID, req.UniqueKeyID)
	if err == nil && existing.Status != storage.StatusInitiated {
		return "", ErrAlreadySubscribed
	}

	if existing == nil || err != nil {
		sub := &storage.Subscriber{
			SubscriberID:  req.SubscriberID,
			UniqueKeyID:   req.UniqueKeyID,
			Type:          req.Type,
			Domain:        req.Domain,
			City:          req.City,
			Country:       req.Country,
			SigningPubKey: req.SigningPubKey,
			EncrPubKey:    req.EncrPubKey,
			URL:           req.URL,
			Status:        storage.StatusUnderSubscription,
		}
		if err := s.subs.Create(ctx, sub); err != nil {
			return "", fmt.Errorf("failed to create subscriber: %w", err)
		}
	} else {
		if err := s.subs.UpdateStatus(ctx, req.SubscriberID, req.UniqueKeyID, storage.StatusUnderSubscription, 0, 0); err != nil {
			return "", fmt.Errorf("failed to update subscriber: %w", err)
		}
	}

	s.recordAudit(ctx, req.SubscriberID, storage.AuditSubscribeInitiated, "")
	metrics.SubscriptionTransitions.WithLabelValues("INITIATED", "UNDER_SUBSCRIPTION").Inc()

	encrypted, err := s.challenge.Issue(ctx, req.SubscriberID, req.EncrPubKey)
	if err != nil {
		return "", fmt.Errorf("failed to issue challenge: %w", err)
	}
	return encrypted, nil
}

// OnSubscribe handles POST /on_subscribe: verifies the challenge answer
// and, on success, promotes the subscriber to SUBSCRIBED.
func (s *Service) OnSubscribe(ctx context.Context, subscriberID, uniqueKeyID, answer string) error {
	sub, err := s.subs.Get(ctx, subscriberID, uniqueKeyID)
	if err != nil {
		return ErrSubscriberNotFound
	}
	if sub.Status != storage.StatusUnderSubscription {
		return ErrWrongState
	}

	ok, err := s.challenge.Verify(ctx, subscriberID, answer)
	if err != nil {
		return fmt.Errorf("challenge verification failed: %w", err)
	}
	if !ok {
		s.recordAudit(ctx, subscriberID, storage.AuditSubscribeChallengeFailed, "")
		return ErrChallengeFailed
	}

	validFrom := time.Now()
	validUntil := validFrom.Add(subscriptionValidity)
	if err := s.subs.UpdateStatus(ctx, subscriberID, uniqueKeyID, storage.StatusSubscribed, validFrom.Unix(), validUntil.Unix()); err != nil {
		return fmt.Errorf("failed to promote subscriber: %w", err)
	}
	if err := s.keys.InvalidateKey(ctx, subscriberID, uniqueKeyID); err != nil {
		s.log.Warn("key cache invalidation failed after subscribe completion",
			logger.String("subscriber_id", subscriberID), logger.Error(err))
	}

	s.recordAudit(ctx, subscriberID, storage.AuditSubscribeCompleted, "")
	metrics.SubscriptionTransitions.WithLabelValues("UNDER_SUBSCRIPTION", "SUBSCRIBED").Inc()
	return nil
}

// SetStatus implements the admin-triggered SUSPENDED/REVOKED transition.
// Callers are responsible for authorizing the admin action before
// calling this (see the bearer-JWT decision in DESIGN.md).
func (s *Service) SetStatus(ctx context.Context, subscriberID, uniqueKeyID string, status storage.SubscriptionStatus) error {
	if status != storage.StatusSuspended && status != storage.StatusRevoked {
		return fmt.Errorf("admin transition must be SUSPENDED or REVOKED, got %s", status)
	}
	sub, err := s.subs.Get(ctx, subscriberID, uniqueKeyID)
	if err != nil {
		return ErrSubscriberNotFound
	}
	if err := s.subs.UpdateStatus(ctx, subscriberID, uniqueKeyID, status, 0, 0); err != nil {
		return fmt.Errorf("failed to update subscriber status: %w", err)
	}
	if err := s.keys.InvalidateKey(ctx, subscriberID, uniqueKeyID); err != nil {
		s.log.Warn("key cache invalidation failed after admin status change",
			logger.String("subscriber_id", subscriberID), logger.Error(err))
	}
	s.recordAudit(ctx, subscriberID, storage.AuditStatusChanged, string(status))
	metrics.SubscriptionTransitions.WithLabelValues(string(sub.Status), string(status)).Inc()
	return nil
}

func (s *Service) recordAudit(ctx context.Context, subscriberID string, eventType storage.AuditEventType, detail string) {
	if err := s.audit.Append(ctx, &storage.AuditEvent{
		SubscriberID: subscriberID,
		EventType:    eventType,
		Detail:       detail,
	}); err != nil {
		s.log.Warn("audit log append failed", logger.String("subscriber_id", subscriberID), logger.Error(err))
	}
}
