package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the repositories translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a unique constraint violation and
// returns the violated constraint name.
func IsUniqueViolation(err error) (string, bool) {
	return pgCode(err, codeUniqueViolation)
}

// IsForeignKeyViolation reports whether err is a foreign key violation and
// returns the violated constraint name.
func IsForeignKeyViolation(err error) (string, bool) {
	return pgCode(err, codeForeignKeyViolation)
}

func pgCode(err error, code string) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return pgErr.ConstraintName, true
	}
	return "", false
}
