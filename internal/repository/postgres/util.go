package postgres

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// validID reports whether id can match the uuid primary key. Anything else
// would fail the cast in postgres with 22P02 instead of finding no row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
