package store

import (
	"errors"
	"strings"

	"userauth/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// userUniqueFields maps each unique users index to the identity field it
// guards. Postgres reports the index name, sqlite the table.column pair.
var userUniqueFields = []struct {
	index, column, field string
}{
	{"ux_users_email", "users.email", "email"},
	{"ux_users_username", "users.username", "username"},
	{"ux_users_full_name", "users.full_name", "full_name"},
	{"ux_users_otp", "users.otp", "otp"},
}

// uniqueViolation reports whether err is a unique-constraint failure and
// returns the violated index or column as the driver names it.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName, pgErr.Code == pgUniqueViolation
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
			return "", false
		}
		// "UNIQUE constraint failed: users.email"
		_, cols, _ := strings.Cut(sqliteErr.Error(), ": ")
		return cols, true
	}
	return "", errors.Is(err, gorm.ErrDuplicatedKey)
}

// duplicate turns a unique violation on users into a DuplicateIdentityError
// naming the conflicting field.
func duplicate(err error) error {
	if err == nil {
		return nil
	}
	name, ok := uniqueViolation(err)
	if !ok {
		return err
	}
	for _, u := range userUniqueFields {
		if name == u.index || strings.HasPrefix(name, u.column) {
			return &domain.DuplicateIdentityError{Field: u.field}
		}
	}
	return &domain.DuplicateIdentityError{Field: "identity"}
}
