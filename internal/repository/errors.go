// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services to distinguish between different failure scenarios without
// inspecting driver errors. For example, ErrInsufficientInventory means a
// conditional decrement matched no row because stock ran out, while
// ErrAlreadyValidated means a ticket's one-time validation was already
// consumed.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as a unique key already taken.
var ErrConflict = errors.New("conflict")

// ErrInsufficientInventory is returned when a ticket type exists but has
// fewer tickets available than requested.
var ErrInsufficientInventory = errors.New("insufficient inventory")

// ErrAlreadyValidated is returned when a ticket's validated_at is already
// set.
var ErrAlreadyValidated = errors.New("ticket already validated")

// isDuplicate reports a MySQL duplicate key violation (error 1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// notFound converts sql.ErrNoRows into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
