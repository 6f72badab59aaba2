package repository

import (
	"errors"
	"strings"

	"gamelogue/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// uniqueViolation reports whether err is a unique-constraint failure and, when
// the driver exposes it, which constraint or column tripped.
func uniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key") {
		return msg, true
	}
	return "", false
}

// userConflict maps a users unique violation to the matching conflict error, or nil.
func userConflict(err error) error {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return nil
	}
	if strings.Contains(constraint, "username") {
		return models.NewConflictError("username already in use")
	}
	return models.NewConflictError("email already in use")
}
