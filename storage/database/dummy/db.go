package dummydb

import (
	"context"
	"database/sql"
	"sync"

	"github.com/pkg/errors"

	"github.com/aranzadi/pictotea/core"
	"github.com/aranzadi/pictotea/core/achievement"
	"github.com/aranzadi/pictotea/core/activity"
	"github.com/aranzadi/pictotea/core/patient"
	"github.com/aranzadi/pictotea/core/user"
)

// DB is an in-memory stand-in for the relational store, used by tests. A
// single store-wide mutex doubles as the transaction: BeginTx takes the write
// lock, so a service's check-then-write section is serialized exactly like a
// transaction over the real store. Repository methods lock only when called
// outside a transaction; inside one, the transactor already holds the lock.
type DB struct {
	mu sync.RWMutex

	users         map[int]*user.User
	patients      map[int]*patient.Patient
	healthRecords map[int]*patient.HealthRecord
	phases        map[int]*patient.Phase
	activities    map[int]*activity.Activity
	assignments   map[int]*activity.Assignment
	achievements  map[int]*achievement.Achievement
	grants        map[int]*achievement.Grant

	pkCounts map[string]int
}

var _ core.DB = (*DB)(nil)

func Open() (*DB, error) {
	return &DB{
		users:         make(map[int]*user.User),
		patients:      make(map[int]*patient.Patient),
		healthRecords: make(map[int]*patient.HealthRecord),
		phases:        make(map[int]*patient.Phase),
		activities:    make(map[int]*activity.Activity),
		assignments:   make(map[int]*activity.Assignment),
		achievements:  make(map[int]*achievement.Achievement),
		grants:        make(map[int]*achievement.Grant),
		pkCounts:      make(map[string]int),
	}, nil
}

func (db *DB) nextPK(table string) int {
	db.pkCounts[table]++
	return db.pkCounts[table]
}

// rlock acquires the read lock unless the caller is inside a transaction.
func (db *DB) rlock(exec []core.DBExecutor) func() {
	if len(exec) > 0 {
		return func() {}
	}
	db.mu.RLock()
	return db.mu.RUnlock
}

// lock acquires the write lock unless the caller is inside a transaction.
func (db *DB) lock(exec []core.DBExecutor) func() {
	if len(exec) > 0 {
		return func() {}
	}
	db.mu.Lock()
	return db.mu.Unlock
}

func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (core.DBTransactor, error) {
	db.mu.Lock()
	return &dummyTx{db: db}, nil
}

type dummyTx struct {
	db   *DB
	done bool
}

func (tx *dummyTx) release() {
	if !tx.done {
		tx.done = true
		tx.db.mu.Unlock()
	}
}

func (tx *dummyTx) Commit() error {
	tx.release()
	return nil
}

func (tx *dummyTx) Rollback() error {
	// no-op beyond releasing the lock: tests never exercise partial writes
	tx.release()
	return nil
}

// The raw SQL surface is never reached through the dummy store.

var errNoSQL = errors.New("dummy store does not speak SQL")

func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}

func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errNoSQL
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errNoSQL
}

func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row { return nil }

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (tx *dummyTx) Exec(query string, args ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}

func (tx *dummyTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}

func (tx *dummyTx) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errNoSQL
}

func (tx *dummyTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errNoSQL
}

func (tx *dummyTx) QueryRow(query string, args ...interface{}) *sql.Row { return nil }

func (tx *dummyTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}
