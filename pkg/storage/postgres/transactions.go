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

// TransactionStore implements storage.TransactionStore backed by PostgreSQL.
type TransactionStore struct {
	db *pgxpool.Pool
}

func (s *TransactionStore) Create(ctx context.Context, txn *storage.Transaction) error {
	query := `
		INSERT INTO transactions (
			transaction_id, message_id, action, bap_id, bpp_id, status, latency_ms, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
	`
	_, err := s.db.Exec(ctx, query,
		txn.TransactionID, txn.MessageID, txn.Action, txn.BAPID, txn.BPPID, txn.Status, txn.LatencyMs,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (s *TransactionStore) UpdateStatus(ctx context.Context, transactionID, messageID string, status storage.TransactionStatus, latencyMs int64) error {
	query := `
		UPDATE transactions
		SET status = $3,
			latency_ms = CASE WHEN $4 > 0 THEN $4 ELSE latency_ms END,
			updated_at = now()
		WHERE transaction_id = $1 AND message_id = $2
	`
	tag, err := s.db.Exec(ctx, query, transactionID, messageID, status, latencyMs)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s/%s", transactionID, messageID)
	}
	return nil
}

func (s *TransactionStore) Get(ctx context.Context, transactionID, messageID string) (*storage.Transaction, error) {
	query := `
		SELECT id, transaction_id, message_id, action, bap_id, bpp_id, status, latency_ms, created_at, updated_at
		FROM transactions
		WHERE transaction_id = $1 AND message_id = $2
	`
	row := s.db.QueryRow(ctx, query, transactionID, messageID)

	var txn storage.Transaction
	err := row.Scan(
		&txn.ID, &txn.TransactionID, &txn.MessageID, &txn.Action, &txn.BAPID, &txn.BPPID,
		&txn.Status, &txn.LatencyMs, &txn.CreatedAt, &txn.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transaction not found: %s/%s", transactionID, messageID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &txn, nil
}
