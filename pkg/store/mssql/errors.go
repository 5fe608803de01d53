package mssql

import (
	"database/sql/driver"
	"errors"
	"fmt"

	mssqldb "github.com/microsoft/go-mssqldb"
)

// UnavailableError marks a fact the server could not produce for reasons
// local to that fact: the caller lacks permission on a system view, the
// object does not exist on this edition, or the connection dropped mid-query.
// Callers treat it the same as any other fact failure but keep the
// distinction for diagnostics.
type UnavailableError struct {
	FactID string
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("fact %q unavailable: %s", e.FactID, e.Reason)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// SQL Server error numbers that indicate a fact-local availability problem
// rather than a broken query.
const (
	errInvalidObject    = 208 // object not found (view absent on this edition)
	errPermissionDenied = 229 // permission denied on object
	errVIEWSERVERSTATE  = 300 // VIEW SERVER STATE permission not held
	errSelectDenied     = 297 // user does not have permission
)

func classifyQueryError(factID string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrBadConn) {
		return &UnavailableError{FactID: factID, Reason: "connection lost", Err: err}
	}
	var sqlErr mssqldb.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Number {
		case errInvalidObject, errPermissionDenied, errVIEWSERVERSTATE, errSelectDenied:
			return &UnavailableError{FactID: factID, Reason: sqlErr.Message, Err: err}
		}
	}
	return fmt.Errorf("fact %q query failed: %w", factID, err)
}
