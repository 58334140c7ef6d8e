// Package storage provides the PostgreSQL-backed subscription store and run
// history.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sevigo/repo-sentinel/internal/core"
)

// ErrAlreadySubscribed is returned when adding a repository that is already
// tracked.
var ErrAlreadySubscribed = errors.New("repository is already subscribed")

// Store persists subscriptions and run records in PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var (
	_ core.SubscriptionStore = (*Store)(nil)
	_ core.RunHistory        = (*Store)(nil)
)

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// subscriptionRow mirrors the subscriptions table; track is stored as a
// Postgres text array.
type subscriptionRow struct {
	Owner string         `db:"owner"`
	Repo  string         `db:"repo"`
	Label string         `db:"label"`
	Track pq.StringArray `db:"track"`
}

func (r subscriptionRow) toSubscription() (core.Subscription, error) {
	sub := core.Subscription{Owner: r.Owner, Repo: r.Repo, Label: r.Label}
	for _, t := range r.Track {
		et, err := core.ParseEventType(t)
		if err != nil {
			return core.Subscription{}, fmt.Errorf("subscription %s/%s: %w", r.Owner, r.Repo, err)
		}
		sub.Track = append(sub.Track, et)
	}
	return sub, nil
}

// ListSubscriptions returns every subscription ordered by insertion, which
// fixes the repository order of each run's report.
func (s *Store) ListSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	var rows []subscriptionRow
	query := `SELECT owner, repo, label, track FROM subscriptions ORDER BY id`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}

	subs := make([]core.Subscription, 0, len(rows))
	for _, r := range rows {
		sub, err := r.toSubscription()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// AddSubscription inserts a new subscription. A repository can be subscribed
// at most once; duplicates return ErrAlreadySubscribed.
func (s *Store) AddSubscription(ctx context.Context, sub core.Subscription) error {
	track := make(pq.StringArray, 0, len(sub.Track))
	for _, t := range sub.Track {
		track = append(track, string(t))
	}

	query := `INSERT INTO subscriptions (owner, repo, label, track)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner, repo) DO NOTHING`
	res, err := s.db.ExecContext(ctx, query, sub.Owner, sub.Repo, sub.Label, track)
	if err != nil {
		return fmt.Errorf("adding subscription %s: %w", sub.Key().String(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", sub.Key().String(), ErrAlreadySubscribed)
	}
	return nil
}

// RemoveSubscription deletes a subscription and reports whether it existed.
func (s *Store) RemoveSubscription(ctx context.Context, key core.RepoKey) (bool, error) {
	query := `DELETE FROM subscriptions WHERE owner = $1 AND repo = $2`
	res, err := s.db.ExecContext(ctx, query, key.Owner, key.Repo)
	if err != nil {
		return false, fmt.Errorf("removing subscription %s: %w", key.String(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecordRun inserts one completed run record.
func (s *Store) RecordRun(ctx context.Context, rec core.RunRecord) error {
	query := `INSERT INTO runs (id, status, succeeded, failed, delivery_id, ai_summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Status, rec.Succeeded, rec.Failed, rec.DeliveryID, rec.AISummary, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", rec.ID, err)
	}
	return nil
}

// ListRuns returns the most recent run records, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]core.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []core.RunRecord
	query := `SELECT id, status, succeeded, failed, delivery_id, ai_summary, created_at
		FROM runs ORDER BY created_at DESC LIMIT $1`
	if err := s.db.SelectContext(ctx, &recs, query, limit); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return recs, nil
}
