// Package repository provides the Bun-backed reference implementation of
// the authcore storage contract. It runs against SQLite out of the box and
// keeps to portable SQL so other Bun dialects work unchanged.
package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/robfig/cron/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/halvard-io/authcore"
)

// Store implements authcore.Storage on top of a Bun database handle.
type Store struct {
	db      *bun.DB
	logger  authcore.Logger
	now     func() time.Time
	sweeper *cron.Cron
}

var _ authcore.Storage = (*Store)(nil)

// Option configures the store at construction.
type Option func(*Store)

// WithLogger overrides the default stdout logger.
func WithLogger(logger authcore.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// New builds a store over an existing Bun handle.
func New(db *bun.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: authcore.DefaultLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// OpenSQLite opens a SQLite database (":memory:" works) and returns a
// ready store with the schema in place.
func OpenSQLite(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, storageError(err, "failed to open sqlite database")
	}
	if strings.Contains(dsn, ":memory:") {
		// An in-memory database exists per connection; pooling would hand
		// each caller an empty schema.
		sqldb.SetMaxOpenConns(1)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	s := New(db, opts...)
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Init creates the schema. Safe to call on every startup.
func (s *Store) Init(ctx context.Context) error {
	models := []any{
		(*userModel)(nil),
		(*userRoleModel)(nil),
		(*userCustomRoleModel)(nil),
		(*userPolicyModel)(nil),
		(*identityModel)(nil),
		(*tokenModel)(nil),
		(*tempTokenModel)(nil),
		(*customRoleModel)(nil),
		(*configModel)(nil),
	}
	for _, m := range models {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return storageError(err, "failed to create schema")
		}
	}
	return nil
}

// StartSweeper launches the once-a-minute sweep that drops expired tokens
// and temporary tokens. Expired records are already invisible to reads; the
// sweep only reclaims space.
func (s *Store) StartSweeper(ctx context.Context) error {
	if s.sweeper != nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc("@every 1m", func() {
		if err := s.sweep(ctx); err != nil {
			s.logger.Error("token sweep failed: %v", err)
		}
	}); err != nil {
		return storageError(err, "failed to schedule token sweep")
	}
	c.Start()
	s.sweeper = c
	return nil
}

// StopSweeper halts the background sweep, waiting for a running pass.
func (s *Store) StopSweeper() {
	if s.sweeper == nil {
		return
	}
	<-s.sweeper.Stop().Done()
	s.sweeper = nil
}

// Close stops the sweeper and closes the database.
func (s *Store) Close() error {
	s.StopSweeper()
	return s.db.Close()
}

func (s *Store) sweep(ctx context.Context) error {
	now := toMillis(s.now())
	if _, err := s.db.NewDelete().
		Model((*tokenModel)(nil)).
		Where("expires <= ?", now).
		Exec(ctx); err != nil {
		return err
	}
	_, err := s.db.NewDelete().
		Model((*tempTokenModel)(nil)).
		Where("expires <= ?", now).
		Exec(ctx)
	return err
}

// isUniqueViolation reports whether err is a uniqueness conflict touching
// the given relation. Matches the sqlite and postgres message shapes.
func isUniqueViolation(err error, relation string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") &&
		!strings.Contains(msg, "duplicate key value") {
		return false
	}
	return relation == "" || strings.Contains(msg, relation)
}

func storageError(err error, msg string) error {
	return errors.Wrap(err, errors.CategoryInternal, msg).
		WithTextCode(authcore.TextCodeStorage).
		WithCode(errors.CodeInternal)
}
