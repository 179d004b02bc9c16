package dedup

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Key is a de-duplication marker with its own expiry.
type Key struct {
	Key       string    `gorm:"column:dedup_key;primaryKey;size:255"`
	ExpiresAt time.Time `gorm:"index;not null"`
}

func (Key) TableName() string {
	return "dedup_keys"
}

// Store keeps markers in the relational store so every instance shares one
// window. Each key expires on its own; the insert is an atomic
// check-and-set through the primary key.
type Store struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewStore(db *gorm.DB, ttl time.Duration) *Store {
	return &Store{db: db, ttl: ttl, now: time.Now}
}

func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) FirstSeen(ctx context.Context, key string) (bool, error) {
	now := s.now()
	db := s.db.WithContext(ctx)

	if err := db.Where("dedup_key = ? AND expires_at <= ?", key, now).Delete(&Key{}).Error; err != nil {
		return false, fmt.Errorf("purge expired dedup key: %w", err)
	}

	res := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Key{Key: key, ExpiresAt: now.Add(s.ttl)})
	if res.Error != nil {
		return false, fmt.Errorf("insert dedup key: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Purge removes every expired marker.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&Key{})
	return res.RowsAffected, res.Error
}
