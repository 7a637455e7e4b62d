package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/authcore/identity"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/store"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const pgUniqueViolation = "23505"

// DBTX is the subset of *sql.DB and *sql.Tx used by CredentialStore.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CredentialStore persists accounts in the accounts table.
type CredentialStore struct {
	db      DBTX
	dialect Dialect
	q       queries
}

// NewCredentialStore binds db using dialect's SQL.
func NewCredentialStore(db DBTX, dialect Dialect) *CredentialStore {
	return &CredentialStore{db: db, dialect: dialect, q: dialect.queries()}
}

// Add inserts account and returns it with the database-assigned id.
func (s *CredentialStore) Add(ctx context.Context, account store.Account) (store.Account, error) {
	if account.Credential.IsZero() {
		return store.Account{}, errors.New("account credential is empty")
	}

	var id int64
	err := s.db.QueryRowContext(ctx, s.q.insert,
		account.Email.String(),
		account.Credential.Encoded(),
		account.RequiresSecondFactor,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return store.Account{}, store.ErrAlreadyExists
		}
		return store.Account{}, fmt.Errorf("%w: db error: %v", store.ErrBackend, err)
	}

	account.ID = id
	return account, nil
}

// Get loads the account for email. Stored values are re-validated on the way
// out; a row that no longer parses is reported as a backend error.
func (s *CredentialStore) Get(ctx context.Context, email identity.Email) (store.Account, error) {
	var (
		id          int64
		rawEmail    string
		rawHash     string
		requires2FA bool
	)
	err := s.db.QueryRowContext(ctx, s.q.byMail, email.String()).Scan(&id, &rawEmail, &rawHash, &requires2FA)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Account{}, store.ErrNotFound
		}
		return store.Account{}, fmt.Errorf("%w: db error: %v", store.ErrBackend, err)
	}

	parsedEmail, err := identity.ParseEmail(rawEmail)
	if err != nil {
		return store.Account{}, fmt.Errorf("%w: stored email invalid", store.ErrBackend)
	}
	credential, err := password.ParseHash(rawHash)
	if err != nil {
		return store.Account{}, fmt.Errorf("%w: stored credential: %v", store.ErrBackend, err)
	}

	return store.Account{
		ID:                   id,
		Email:                parsedEmail,
		Credential:           credential,
		RequiresSecondFactor: requires2FA,
	}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}
	return false
}
