// Package mysql persists the treasury document in MySQL through GORM.
package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/store"
)

// DefaultName is the row key used when no name is configured.
const DefaultName = "default"

var _ store.Store = (*Store)(nil)

// Snapshot is the row holding one treasury document.
type Snapshot struct {
	Name      string    `gorm:"primaryKey;size:64"`
	Version   int64     `gorm:"not null;default:0"`
	Document  string    `gorm:"type:longtext;not null"`
	SavedAt   time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Snapshot) TableName() string { return "treasury_snapshots" }

// SnapshotLog records every saved version.
type SnapshotLog struct {
	ID           uint      `gorm:"primaryKey"`
	Name         string    `gorm:"size:64;not null;uniqueIndex:idx_treasury_log_version"`
	Version      int64     `gorm:"not null;uniqueIndex:idx_treasury_log_version"`
	Assets       int       `gorm:"not null;default:0"`
	Transactions int       `gorm:"not null;default:0"`
	SavedAt      time.Time `gorm:"index"`
}

func (SnapshotLog) TableName() string { return "treasury_snapshot_log" }

// Store implements store.Store on a GORM connection.
type Store struct {
	db   *gorm.DB
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

// Open connects to the MySQL server at dsn.
func Open(dsn string, opts ...Option) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("treasury/mysql: open: %w", err)
	}
	return New(db, opts...), nil
}

// New wraps an existing GORM connection.
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db, name: DefaultName}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying GORM handle.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Snapshot{}, &SnapshotLog{}); err != nil {
		return fmt.Errorf("treasury/mysql: migrate: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (*store.Snapshot, error) {
	var row Snapshot
	err := s.db.WithContext(ctx).Where("name = ?", s.name).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, treasury.ErrNoSnapshot
		}
		return nil, fmt.Errorf("treasury/mysql: load %s: %w", s.name, err)
	}
	snap, err := store.Unmarshal([]byte(row.Document))
	if err != nil {
		return nil, fmt.Errorf("treasury/mysql: decode %s: %w", s.name, err)
	}
	return snap, nil
}

// Save upserts the snapshot row and its log entry in one transaction.
func (s *Store) Save(ctx context.Context, snap *store.Snapshot) error {
	data, err := store.Marshal(snap)
	if err != nil {
		return fmt.Errorf("treasury/mysql: %w", err)
	}
	savedAt := snap.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := Snapshot{
			Name:     s.name,
			Version:  snap.Version,
			Document: string(data),
			SavedAt:  savedAt,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"version", "document", "saved_at", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}
		entry := SnapshotLog{
			Name:         s.name,
			Version:      snap.Version,
			Assets:       len(snap.Assets),
			Transactions: len(snap.Transactions),
			SavedAt:      savedAt,
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
	})
	if err != nil {
		return fmt.Errorf("treasury/mysql: save %s: %w", s.name, err)
	}
	return nil
}

// Versions lists the saved versions for this store's name, newest first.
func (s *Store) Versions(ctx context.Context, limit int) ([]int64, error) {
	q := s.db.WithContext(ctx).Model(&SnapshotLog{}).
		Where("name = ?", s.name).
		Order("version DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []int64
	if err := q.Pluck("version", &out).Error; err != nil {
		return nil, fmt.Errorf("treasury/mysql: versions: %w", err)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
