package store

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"twhydrate/pkg/record"
)

const insertBatchSize = 500

// Store persists hydrated users and follower edges in SQLite
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Open connects to the database at path and migrates the schema
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database with path %s error: %w", path, err)
	}
	if err := db.AutoMigrate(&User{}, &FollowerEdge{}); err != nil {
		if sqlDB, derr := db.DB(); derr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("migrating sql: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the underlying connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB")
	}
	return sqlDB.Close()
}

func (s *Store) executeTransaction(f func(tx *gorm.DB) error) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := f(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// SaveUsers upserts users by ID
func (s *Store) SaveUsers(users map[int64]record.UserRecord) error {
	if len(users) == 0 {
		return nil
	}

	rows := make([]User, 0, len(users))
	for _, u := range users {
		rows = append(rows, userFromRecord(u))
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).CreateInBatches(rows, insertBatchSize).Error
	if err != nil {
		return errors.Wrapf(err, "failed to upsert %d users", len(rows))
	}
	return nil
}

// GetUser loads one user by ID
func (s *Store) GetUser(id int64) (*User, error) {
	var u User
	if err := s.db.First(&u, "id = ?", id).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to get user %d", id)
	}
	return &u, nil
}

// CountUsers returns the number of stored users
func (s *Store) CountUsers() (int64, error) {
	var n int64
	if err := s.db.Model(&User{}).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count users")
	}
	return n, nil
}

// WriteEdges replaces the stored followers of root. It satisfies the
// follower puller's edge sink.
func (s *Store) WriteEdges(root int64, followers []int64) error {
	pulledAt := s.now()
	edges := make([]FollowerEdge, len(followers))
	for i, f := range followers {
		edges[i] = FollowerEdge{RootID: root, Position: i, FollowerID: f, PulledAt: pulledAt}
	}

	err := s.executeTransaction(func(tx *gorm.DB) error {
		if err := tx.Where("root_id = ?", root).Delete(&FollowerEdge{}).Error; err != nil {
			return err
		}
		if len(edges) == 0 {
			return nil
		}
		return tx.CreateInBatches(edges, insertBatchSize).Error
	})
	if err != nil {
		return errors.Wrapf(err, "failed to write %d edges of root %d", len(edges), root)
	}
	return nil
}

// Followers returns the stored followers of root in page order
func (s *Store) Followers(root int64) ([]int64, error) {
	var ids []int64
	err := s.db.Model(&FollowerEdge{}).
		Where("root_id = ?", root).
		Order("position").
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get followers of root %d", root)
	}
	return ids, nil
}
