// Package sqlstore implements the credential store on a relational database
// through database/sql.
//
// PostgreSQL is reached through the pgx driver (pgxpool behind a *sql.DB);
// SQLite through modernc.org/sqlite. Schemas are embedded goose migrations,
// one directory per dialect.
//
// Email uniqueness is enforced by the UNIQUE constraint, so the existence
// check and the insert are one atomic statement; a constraint violation maps
// to store.ErrAlreadyExists.
package sqlstore
