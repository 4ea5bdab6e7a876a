// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oobort/picpoll-lite/models"
)

// SQLLedger keeps votes in the vote table. The primary key on
// (item_id, voter_identity) is what enforces one vote per voter.
type SQLLedger struct {
	db *sql.DB
}

func NewSQLLedger(db *sql.DB) *SQLLedger {
	return &SQLLedger{db: db}
}

func (l *SQLLedger) RecordVote(ctx context.Context, v models.Vote) error {
	v, err := Normalize(v)
	if err != nil {
		return err
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO vote (item_id, voter_identity, choice, region_code, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (item_id, voter_identity) DO UPDATE SET
			choice = excluded.choice,
			region_code = excluded.region_code,
			user_agent = excluded.user_agent,
			created_at = excluded.created_at
	`, v.ItemID, v.VoterIdentity, v.Choice, v.RegionCode, v.UserAgent, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert vote: %w", err)
	}
	return nil
}

// CountsForItem groups votes by choice. An empty region means all votes.
func (l *SQLLedger) CountsForItem(ctx context.Context, itemID int64, region string) ([]models.ChoiceCount, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if region == "" {
		rows, err = l.db.QueryContext(ctx, `
			SELECT choice, COUNT(*) FROM vote
			WHERE item_id = $1
			GROUP BY choice
			ORDER BY choice
		`, itemID)
	} else {
		rows, err = l.db.QueryContext(ctx, `
			SELECT choice, COUNT(*) FROM vote
			WHERE item_id = $1 AND region_code = $2
			GROUP BY choice
			ORDER BY choice
		`, itemID, SanitizeRegion(region))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	defer rows.Close()

	var counts []models.ChoiceCount
	for rows.Next() {
		var c models.ChoiceCount
		if err := rows.Scan(&c.Choice, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan vote count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (l *SQLLedger) CountRows(ctx context.Context, itemID int64) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vote WHERE item_id = $1`, itemID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count vote rows: %w", err)
	}
	return n, nil
}

func (l *SQLLedger) DeleteItem(ctx context.Context, itemID int64) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM vote WHERE item_id = $1`, itemID); err != nil {
		return fmt.Errorf("failed to delete votes: %w", err)
	}
	return nil
}

// GetVote returns the stored vote of one voter, or sql.ErrNoRows.
func (l *SQLLedger) GetVote(ctx context.Context, itemID int64, voterIdentity string) (models.Vote, error) {
	v := models.Vote{ItemID: itemID, VoterIdentity: voterIdentity}
	err := l.db.QueryRowContext(ctx, `
		SELECT choice, region_code, user_agent, created_at
		FROM vote
		WHERE item_id = $1 AND voter_identity = $2
	`, itemID, voterIdentity).Scan(&v.Choice, &v.RegionCode, &v.UserAgent, &v.CreatedAt)
	if err != nil {
		return models.Vote{}, err
	}
	return v, nil
}
