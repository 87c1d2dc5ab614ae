// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beckn-mesh/network/pkg/storage"
)

// SubscriberStore implements storage.SubscriberStore backed by PostgreSQL.
type SubscriberStore struct {
	db *pgxpool.Pool
}

func (s *SubscriberStore) Create(ctx context.Context, sub *storage.Subscriber) error {
	query := `
		INSERT INTO subscribers (
			subscriber_id, unique_key_id, type, domain, city, country,
			signing_public_key, encr_public_key, url, status,
			valid_from, valid_until, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
	`
	_, err := s.db.Exec(ctx, query,
		sub.SubscriberID, sub.UniqueKeyID, sub.Type, sub.Domain, sub.City, sub.Country,
		sub.SigningPubKey, sub.EncrPubKey, sub.URL, sub.Status,
		sub.ValidFrom, sub.ValidUntil,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscriber: %w", err)
	}
	return nil
}

func (s *SubscriberStore) Get(ctx context.Context, subscriberID, uniqueKeyID string) (*storage.Subscriber, error) {
	query := `
		SELECT subscriber_id, unique_key_id, type, domain, city, country,
			signing_public_key, encr_public_key, url, status,
			valid_from, valid_until, created_at, updated_at
		FROM subscribers
		WHERE subscriber_id = $1 AND unique_key_id = $2
	`
	row := s.db.QueryRow(ctx, query, subscriberID, uniqueKeyID)

	var sub storage.Subscriber
	err := row.Scan(
		&sub.SubscriberID, &sub.UniqueKeyID, &sub.Type, &sub.Domain, &sub.City, &sub.Country,
		&sub.SigningPubKey, &sub.EncrPubKey, &sub.URL, &sub.Status,
		&sub.ValidFrom, &sub.ValidUntil, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("subscriber not found: %s/%s", subscriberID, uniqueKeyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}
	return &sub, nil
}

func (s *SubscriberStore) UpdateStatus(ctx context.Context, subscriberID, uniqueKeyID string, status storage.SubscriptionStatus, validFrom, validUntil int64) error {
	query := `
		UPDATE subscribers
		SET status = $3,
			valid_from = CASE WHEN $4 > 0 THEN to_timestamp($4) ELSE valid_from END,
			valid_until = CASE WHEN $5 > 0 THEN to_timestamp($5) ELSE valid_until END,
			updated_at = now()
		WHERE subscriber_id = $1 AND unique_key_id = $2
	`
	tag, err := s.db.Exec(ctx, query, subscriberID, uniqueKeyID, status, validFrom, validUntil)
	if err != nil {
		return fmt.Errorf("failed to update subscriber status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscriber not found: %s/%s", subscriberID, uniqueKeyID)
	}
	return nil
}

func (s *SubscriberStore) ListByDomainCity(ctx context.Context, domain, city string) ([]*storage.Subscriber, error) {
	query := `
		SELECT subscriber_id, unique_key_id, type, domain, city, country,
			signing_public_key, encr_public_key, url, status,
			valid_from, valid_until, created_at, updated_at
		FROM subscribers
		WHERE status = $1 AND domain = $2 AND (city = $3 OR city = '*')
	`
	rows, err := s.db.Query(ctx, query, storage.StatusSubscribed, domain, city)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var result []*storage.Subscriber
	for rows.Next() {
		var sub storage.Subscriber
		if err := rows.Scan(
			&sub.SubscriberID, &sub.UniqueKeyID, &sub.Type, &sub.Domain, &sub.City, &sub.Country,
			&sub.SigningPubKey, &sub.EncrPubKey, &sub.URL, &sub.Status,
			&sub.ValidFrom, &sub.ValidUntil, &sub.CreatedAt, &sub.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		result = append(result, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscribers: %w", err)
	}
	return result, nil
}
