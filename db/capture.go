// Package db stores captured upstream responses for offline replay.
package db

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// ErrNoCapture is returned when no response has been recorded for an
// account yet.
var ErrNoCapture = errors.New("no captured response for account")

// Store records raw upstream responses keyed by an account digest and
// replays the most recent one. It has no part in the production feed
// transformation; it exists so the transformation can be exercised offline
// against real captured payloads.
type Store struct {
	db *sql.DB
}

func NewStore(database string) (*Store, error) {
	db, err := connection(database)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// AccountKey derives the capture key from an access token. Tokens are
// never stored verbatim.
func AccountKey(accessToken string) string {
	digest := sha256.Sum256([]byte(accessToken))
	return hex.EncodeToString(digest[:])
}

// Save records a raw response for the account.
func (s *Store) Save(ctx context.Context, account string, response []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	log.WithFields(log.Fields{
		"account": account,
		"bytes":   len(response),
	}).Info("Recording captured response")

	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto("captures")
	ib.Cols("account", "captured_at", "response")
	ib.Values(account, time.Now().UTC(), response)

	query, args := ib.Build()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert error: %w", err)
	}

	return nil
}

// Load returns the most recently captured response for the account.
func (s *Store) Load(ctx context.Context, account string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("response").From("captures")
	sb.Where(sb.Equal("account", account))
	sb.OrderBy("captured_at").Desc()
	sb.Limit(1)

	query, args := sb.Build()

	var response []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&response); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoCapture
		}
		return nil, fmt.Errorf("select error: %w", err)
	}

	return response, nil
}
