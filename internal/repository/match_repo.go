package repository

import (
	"context"

	"chess_arena/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MatchRepository archives settled matches
type MatchRepository struct {
	db *pgxpool.Pool
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// RecordMatch inserts a settled match and fills in its id
func (r *MatchRepository) RecordMatch(ctx context.Context, m *domain.MatchRecord) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO matches (room_code, entry_fee, winner_seat, winner_name, winner_address,
			end_reason, payout_amount, payout_outcome, payout_tx, payout_error, finished_at)
		VALUES ($1, $2::numeric, $3, $4, $5, $6, $7::numeric, $8, $9, $10, $11)
		RETURNING id, created_at
	`, m.RoomCode, m.EntryFee, m.WinnerSeat, m.WinnerName, m.WinnerAddress,
		m.EndReason, m.PayoutAmount, m.PayoutOutcome, m.PayoutTx, m.PayoutError, m.FinishedAt,
	).Scan(&m.ID, &m.CreatedAt)
}

// GetByRoomCode returns archived matches for a room code, newest first
func (r *MatchRepository) GetByRoomCode(ctx context.Context, code string) ([]*domain.MatchRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, room_code, entry_fee::text, winner_seat, winner_name, winner_address,
			end_reason, payout_amount::text, payout_outcome, payout_tx, payout_error, finished_at, created_at
		FROM matches
		WHERE room_code = $1
		ORDER BY finished_at DESC
	`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMatches(rows)
}

// GetRecent returns the most recently settled matches
func (r *MatchRepository) GetRecent(ctx context.Context, limit int) ([]*domain.MatchRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, room_code, entry_fee::text, winner_seat, winner_name, winner_address,
			end_reason, payout_amount::text, payout_outcome, payout_tx, payout_error, finished_at, created_at
		FROM matches
		ORDER BY finished_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMatches(rows)
}

// Ping checks the archive connection for readiness probes
func (r *MatchRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func scanMatches(rows pgx.Rows) ([]*domain.MatchRecord, error) {
	var out []*domain.MatchRecord
	for rows.Next() {
		var m domain.MatchRecord
		if err := rows.Scan(
			&m.ID, &m.RoomCode, &m.EntryFee, &m.WinnerSeat, &m.WinnerName, &m.WinnerAddress,
			&m.EndReason, &m.PayoutAmount, &m.PayoutOutcome, &m.PayoutTx, &m.PayoutError,
			&m.FinishedAt, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
