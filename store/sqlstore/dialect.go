package sqlstore

import "fmt"

// Dialect selects SQL flavor, driver error mapping and migrations.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// ParseDialect maps a configuration name onto a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch name {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("unsupported sql dialect %q", name)
	}
}

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

func (d Dialect) gooseDialect() string {
	if d == SQLite {
		return "sqlite3"
	}
	return "pgx"
}

func (d Dialect) migrationDir() string {
	if d == SQLite {
		return "migrations/sqlite"
	}
	return "migrations/postgres"
}

type queries struct {
	insert string
	byMail string
}

func (d Dialect) queries() queries {
	if d == SQLite {
		return queries{
			insert: `INSERT INTO accounts (email, password_hash, requires_2fa) VALUES (?, ?, ?) RETURNING id`,
			byMail: `SELECT id, email, password_hash, requires_2fa FROM accounts WHERE email = ?`,
		}
	}
	return queries{
		insert: `INSERT INTO accounts (email, password_hash, requires_2fa) VALUES ($1, $2, $3) RETURNING id`,
		byMail: `SELECT id, email, password_hash, requires_2fa FROM accounts WHERE email = $1`,
	}
}
