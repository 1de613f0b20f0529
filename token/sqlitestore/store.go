// Package sqlitestore provides a token.Store backed by SQLite, for
// deployments where tokens must survive restarts or be shared between
// processes through a common database file.
package sqlitestore

import (
	"context"
	"database/sql"
	"time"

	"github.com/jrsteele09/go-efactura/token"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

var _ token.Store = (*Store)(nil)

// Store is a SQLite-backed implementation of token.Store.
type Store struct {
	db      *sql.DB
	prefix  string
	scope   string
	nowTime func() time.Time
}

// StoreOption modifies a Store instance.
type StoreOption func(*Store)

// WithKeyPrefix overrides the first segment of the storage key.
func WithKeyPrefix(prefix string) StoreOption {
	return func(s *Store) { s.prefix = prefix }
}

// WithScope sets the scope segment of the storage key.
func WithScope(scope string) StoreOption {
	return func(s *Store) { s.scope = scope }
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) { s.nowTime = nowFunc }
}

// New opens (creating if needed) the SQLite database at dbPath and
// initialises the token table. Use ":memory:" for an ephemeral store.
func New(dbPath string, options ...StoreOption) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "[sqlitestore.New] opening database")
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS efactura_tokens (
			key           TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			access_token  TEXT NOT NULL,
			refresh_token TEXT NOT NULL DEFAULT '',
			token_type    TEXT NOT NULL DEFAULT 'Bearer',
			scope         TEXT NOT NULL DEFAULT '',
			issued_at     INTEGER NOT NULL,
			expires_in    INTEGER NOT NULL
		);`,
	); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[sqlitestore.New] initialising token table")
	}

	s := &Store{
		db:      db,
		prefix:  token.DefaultKeyPrefix,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Set stores or replaces the token for userKey in a single atomic upsert.
func (s *Store) Set(ctx context.Context, userKey string, tok *token.Token) error {
	if tok == nil {
		return s.Remove(ctx, userKey)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO efactura_tokens (key, user_id, access_token, refresh_token, token_type, scope, issued_at, expires_in)
		VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8)
		ON CONFLICT(key) DO UPDATE SET
			user_id=excluded.user_id,
			access_token=excluded.access_token,
			refresh_token=excluded.refresh_token,
			token_type=excluded.token_type,
			scope=excluded.scope,
			issued_at=excluded.issued_at,
			expires_in=excluded.expires_in;`,
		s.key(userKey),
		tok.UserID,
		tok.AccessToken,
		tok.RefreshToken,
		tok.TokenType,
		tok.Scope,
		tok.IssuedAt.UTC().Unix(),
		tok.ExpiresIn,
	)
	if err != nil {
		return errors.Wrap(err, "[sqlitestore.Set] upserting token")
	}
	return nil
}

// Get retrieves the token stored for userKey, or (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, userKey string) (*token.Token, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, access_token, refresh_token, token_type, scope, issued_at, expires_in
		FROM efactura_tokens
		WHERE key=?1;`,
		s.key(userKey),
	)

	var tok token.Token
	var issuedAt int64
	err := row.Scan(&tok.UserID, &tok.AccessToken, &tok.RefreshToken, &tok.TokenType, &tok.Scope, &issuedAt, &tok.ExpiresIn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[sqlitestore.Get] scanning token row")
	}

	tok.IssuedAt = time.Unix(issuedAt, 0).UTC()
	return &tok, nil
}

// Remove deletes the token stored for userKey. Removing an absent key is
// not an error.
func (s *Store) Remove(ctx context.Context, userKey string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM efactura_tokens WHERE key=?1;`, s.key(userKey)); err != nil {
		return errors.Wrap(err, "[sqlitestore.Remove] deleting token")
	}
	return nil
}

// HasValid reports whether a currently-valid token is stored for userKey.
func (s *Store) HasValid(ctx context.Context, userKey string) bool {
	tok, err := s.Get(ctx, userKey)
	if err != nil {
		return false
	}
	return tok.Valid(s.nowTime())
}

func (s *Store) key(userKey string) string {
	return token.StorageKey(s.prefix, userKey, s.scope)
}
