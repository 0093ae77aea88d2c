// Package repository holds the MySQL-backed persistence layer. The sentinel
// errors below are shared by every repository so the service layer can tell
// failure scenarios apart without inspecting driver errors. For example,
// ErrNotFound replaces sql.ErrNoRows at the repository boundary, while
// ErrDuplicate signals a unique key violation such as a reused licence plate.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a unique key.
var ErrDuplicate = errors.New("duplicate entry")

// ErrEmailExists is the users-table flavour of ErrDuplicate.
var ErrEmailExists = errors.New("email already exists")

// mysqlDuplicateKey is the server error number for ER_DUP_ENTRY.
const mysqlDuplicateKey = 1062

// isDuplicateKey reports whether err is a MySQL unique key violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateKey
}

// notFound maps sql.ErrNoRows onto ErrNotFound and leaves other errors alone.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
