// Package mongo persists the treasury document in MongoDB via Grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/store"
)

// Collection name constants.
const (
	colSnapshots   = "treasury_snapshots"
	colSnapshotLog = "treasury_snapshot_log"
)

// DefaultName is the document key used when no name is configured.
const DefaultName = "default"

var _ store.Store = (*Store)(nil)

type snapshotModel struct {
	grove.BaseModel `grove:"table:treasury_snapshots"`

	Name     string    `grove:"name,pk"  bson:"_id"`
	Version  int64     `grove:"version"  bson:"version"`
	Document string    `grove:"document" bson:"document"`
	SavedAt  time.Time `grove:"saved_at" bson:"saved_at"`
}

type snapshotLogModel struct {
	grove.BaseModel `grove:"table:treasury_snapshot_log"`

	Name         string    `grove:"name"         bson:"name"`
	Version      int64     `grove:"version"      bson:"version"`
	Assets       int       `grove:"assets"       bson:"assets"`
	Transactions int       `grove:"transactions" bson:"transactions"`
	SavedAt      time.Time `grove:"saved_at"     bson:"saved_at"`
}

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db   *grove.DB
	mdb  *mongodriver.MongoDB
	name string
}

// Option configures a Store.
type Option func(*Store)

// WithName keys the snapshot document.
func WithName(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.name = name
		}
	}
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB, opts ...Option) *Store {
	s := &Store{
		db:   db,
		mdb:  mongodriver.Unwrap(db),
		name: DefaultName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for the treasury collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("treasury/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (*store.Snapshot, error) {
	var m snapshotModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": s.name}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, treasury.ErrNoSnapshot
		}
		return nil, fmt.Errorf("treasury/mongo: load %s: %w", s.name, err)
	}
	snap, err := store.Unmarshal([]byte(m.Document))
	if err != nil {
		return nil, fmt.Errorf("treasury/mongo: decode %s: %w", s.name, err)
	}
	return snap, nil
}

// Save replaces the snapshot document, inserting it on first save, and
// appends a log entry.
func (s *Store) Save(ctx context.Context, snap *store.Snapshot) error {
	data, err := store.Marshal(snap)
	if err != nil {
		return fmt.Errorf("treasury/mongo: %w", err)
	}
	m := &snapshotModel{
		Name:     s.name,
		Version:  snap.Version,
		Document: string(data),
		SavedAt:  snap.SavedAt,
	}
	if m.SavedAt.IsZero() {
		m.SavedAt = time.Now().UTC()
	}

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Name}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/mongo: save %s: %w", s.name, err)
	}
	if res.MatchedCount() == 0 {
		if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
			return fmt.Errorf("treasury/mongo: insert %s: %w", s.name, err)
		}
	}

	entry := &snapshotLogModel{
		Name:         s.name,
		Version:      snap.Version,
		Assets:       len(snap.Assets),
		Transactions: len(snap.Transactions),
		SavedAt:      m.SavedAt,
	}
	if _, err := s.mdb.NewInsert(entry).Exec(ctx); err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("treasury/mongo: log %s@%d: %w", s.name, snap.Version, err)
	}
	return nil
}

// Versions lists the saved versions for this store's name, newest first.
func (s *Store) Versions(ctx context.Context, limit int) ([]int64, error) {
	var models []snapshotLogModel
	q := s.mdb.NewFind(&models).
		Filter(bson.M{"name": s.name}).
		Sort(bson.D{{Key: "version", Value: -1}})
	if limit > 0 {
		q = q.Limit(int64(limit))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("treasury/mongo: versions: %w", err)
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

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colSnapshots: {
			{Keys: bson.D{{Key: "saved_at", Value: -1}}},
		},
		colSnapshotLog: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}, {Key: "version", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "saved_at", Value: -1}}},
		},
	}
}
