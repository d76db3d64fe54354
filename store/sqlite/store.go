// Package sqlite persists the treasury document in SQLite via Grove ORM.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/store"
)

// DefaultName is the row key used when no name is configured.
const DefaultName = "default"

var _ store.Store = (*Store)(nil)

type snapshotModel struct {
	grove.BaseModel `grove:"table:treasury_snapshots"`

	Name      string    `grove:"name,pk"`
	Version   int64     `grove:"version"`
	Document  string    `grove:"document"`
	SavedAt   time.Time `grove:"saved_at"`
	CreatedAt time.Time `grove:"created_at"`
}

type snapshotLogModel struct {
	grove.BaseModel `grove:"table:treasury_snapshot_log"`

	Name         string    `grove:"name,pk"`
	Version      int64     `grove:"version,pk"`
	Assets       int       `grove:"assets"`
	Transactions int       `grove:"transactions"`
	SavedAt      time.Time `grove:"saved_at"`
}

// Store implements store.Store using SQLite via Grove ORM. Several
// treasuries can share a database under different names.
type Store struct {
	db   *grove.DB
	sdb  *sqlitedriver.SqliteDB
	name string
}

// Option configures a Store.
type Option func(*Store)

// WithName keys the snapshot row.
func WithName(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.name = name
		}
	}
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB, opts ...Option) *Store {
	s := &Store{
		db:   db,
		sdb:  sqlitedriver.Unwrap(db),
		name: DefaultName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the snapshot tables using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("treasury/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("treasury/sqlite: migration failed: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (*store.Snapshot, error) {
	m := new(snapshotModel)
	err := s.sdb.NewSelect(m).
		Where("name = ?", s.name).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, treasury.ErrNoSnapshot
		}
		return nil, fmt.Errorf("treasury/sqlite: load %s: %w", s.name, err)
	}
	snap, err := store.Unmarshal([]byte(m.Document))
	if err != nil {
		return nil, fmt.Errorf("treasury/sqlite: decode %s: %w", s.name, err)
	}
	return snap, nil
}

// Save upserts the snapshot row and appends a log entry for its version,
// both in one transaction.
func (s *Store) Save(ctx context.Context, snap *store.Snapshot) error {
	data, err := store.Marshal(snap)
	if err != nil {
		return fmt.Errorf("treasury/sqlite: %w", err)
	}
	now := time.Now().UTC()
	m := &snapshotModel{
		Name:      s.name,
		Version:   snap.Version,
		Document:  string(data),
		SavedAt:   snap.SavedAt,
		CreatedAt: now,
	}
	if m.SavedAt.IsZero() {
		m.SavedAt = now
	}
	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("treasury/sqlite: begin %s: %w", s.name, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	_, err = tx.NewInsert(m).
		OnConflict("(name) DO UPDATE").
		Set("version = EXCLUDED.version").
		Set("document = EXCLUDED.document").
		Set("saved_at = EXCLUDED.saved_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/sqlite: save %s: %w", s.name, err)
	}

	entry := &snapshotLogModel{
		Name:         s.name,
		Version:      snap.Version,
		Assets:       len(snap.Assets),
		Transactions: len(snap.Transactions),
		SavedAt:      m.SavedAt,
	}
	_, err = tx.NewInsert(entry).
		OnConflict("(name, version) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/sqlite: log %s@%d: %w", s.name, snap.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("treasury/sqlite: commit %s: %w", s.name, err)
	}
	return nil
}

// Versions lists the saved versions for this store's name, newest first.
func (s *Store) Versions(ctx context.Context, limit int) ([]int64, error) {
	var models []snapshotLogModel
	q := s.sdb.NewSelect(&models).
		Where("name = ?", s.name).
		OrderExpr("version DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("treasury/sqlite: versions: %w", err)
	}
	out := make([]int64, len(models))
	for i := range models {
		out[i] = models[i].Version
	}
	return out, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
