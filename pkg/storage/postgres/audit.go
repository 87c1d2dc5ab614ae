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
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beckn-mesh/network/pkg/storage"
)

// AuditStore implements storage.AuditStore backed by PostgreSQL.
type AuditStore struct {
	db *pgxpool.Pool
}

func (s *AuditStore) Append(ctx context.Context, event *storage.AuditEvent) error {
	query := `
		INSERT INTO audit_events (subscriber_id, event_type, detail, created_at)
		VALUES ($1, $2, $3, now())
	`
	_, err := s.db.Exec(ctx, query, event.SubscriberID, event.EventType, event.Detail)
	if err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

func (s *AuditStore) ListBySubscriber(ctx context.Context, subscriberID string, limit int) ([]*storage.AuditEvent, error) {
	query := `
		SELECT id, subscriber_id, event_type, detail, created_at
		FROM audit_events
		WHERE subscriber_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, subscriberID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var result []*storage.AuditEvent
	for rows.Next() {
		var evt storage.AuditEvent
		if err := rows.Scan(&evt.ID, &evt.SubscriberID, &evt.EventType, &evt.Detail, &evt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		result = append(result, &evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit events: %w", err)
	}
	return result, nil
}
