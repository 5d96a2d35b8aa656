package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/itec-nfc/inventario/internal/model"
)

// withTx runs fn inside one transaction. The connection string makes every
// transaction BEGIN IMMEDIATE, so reads inside fn see no concurrent writer.
// fn must use tx exclusively; the pool has a single connection.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", translate(err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", translate(err))
	}
	return nil
}

var domainErrors = []error{
	model.ErrInvalidArgument,
	model.ErrInsufficientStock,
	model.ErrNotFound,
	model.ErrAlreadyProcessed,
	model.ErrConflict,
	model.ErrPersistence,
	model.ErrForbidden,
}

// translate maps driver errors onto the domain errors. Constraint failures
// become ErrConflict or ErrInvalidArgument; trigger aborts and anything else
// are ErrPersistence.
// The original error stays in the chain.
func translate(err error) error {
	if err == nil {
		return nil
	}
	for _, de := range domainErrors {
		if errors.Is(err, de) {
			return err
		}
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE,
			sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
			sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %w", model.ErrConflict, err)
		case sqlite3.SQLITE_CONSTRAINT_CHECK,
			sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return fmt.Errorf("%w: %w", model.ErrInvalidArgument, err)
		case sqlite3.SQLITE_CONSTRAINT_TRIGGER:
			return fmt.Errorf("%w: %w", model.ErrPersistence, err)
		}
		if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return fmt.Errorf("%w: %w", model.ErrConflict, err)
		}
	}
	return fmt.Errorf("%w: %w", model.ErrPersistence, err)
}

// IsConstraint reports whether err is a translated uniqueness or reference
// violation.
func IsConstraint(err error) bool {
	return errors.Is(err, model.ErrConflict)
}
