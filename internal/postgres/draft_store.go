package postgres

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-checkout-session/internal/checkout"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DraftStore keeps the checkout draft as one row of checkout_drafts.
type DraftStore struct {
	DB  *pgxpool.Pool
	Key string
}

func (s *DraftStore) SaveDraft(ctx context.Context, data []byte) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO checkout_drafts (key, body, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = now()
	`, s.Key, string(data))
	return err
}

func (s *DraftStore) LoadDraft(ctx context.Context) ([]byte, error) {
	var body string
	err := s.DB.QueryRow(ctx, `SELECT body FROM checkout_drafts WHERE key = $1`, s.Key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, checkout.ErrNoDraft
	}
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

func (s *DraftStore) ClearDraft(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM checkout_drafts WHERE key = $1`, s.Key)
	return err
}
