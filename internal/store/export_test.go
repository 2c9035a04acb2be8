package store

import (
	"database/sql"
	"time"
)

// DB exposes the internal *sql.DB for test helpers in store_test.
// This file only compiles during `go test`.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetCommitHook replaces the commit step so tests can force a failure
// after all statements of an operation have run.
func (s *Store) SetCommitHook(fn func(tx *sql.Tx) error) {
	s.hooks.commit = fn
}

// SetTimeNow pins the store clock and returns a restore func.
func SetTimeNow(fn func() time.Time) func() {
	prev := timeNow
	timeNow = fn
	return func() { timeNow = prev }
}

var ParseTarget = func(u string) (driver, dsn string, postgres bool, err error) {
	t, err := parseTarget(u)
	return t.driver, t.dsn, t.dialect == dialectPostgres, err
}

func Rebind(postgres bool, q string) string {
	s := &Store{}
	if postgres {
		s.dialect = dialectPostgres
	}
	return s.rebind(q)
}
