package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientStock = errors.New("product stock not enough")
)

// Store wraps a gorm handle. Inside Transaction every method runs on the
// transaction's connection.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) WithContext(ctx context.Context) *Store {
	return &Store{db: s.db.WithContext(ctx)}
}

func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// live keeps soft-deleted rows out of a query. gorm already adds
// deleted_at IS NULL; the is_deleted predicate is kept explicit so that raw
// and Unscoped reads built on it stay correct.
func live(db *gorm.DB) *gorm.DB {
	return db.Where(clause.Eq{
		Column: clause.Column{Table: clause.CurrentTable, Name: "is_deleted"},
		Value:  false,
	})
}

// withDeleted reads rows regardless of soft deletion, for history that must
// outlive the catalog.
func withDeleted(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// SoftDelete flags a row as deleted without removing it.
func (s *Store) SoftDelete(model any, id uint) error {
	res := s.db.Model(model).Scopes(live).Where("id = ?", id).Updates(map[string]any{
		"is_deleted": true,
		"deleted_at": time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Restore clears the soft-delete flag set by SoftDelete.
func (s *Store) Restore(model any, id uint) error {
	res := s.db.Unscoped().Model(model).
		Where("id = ? AND is_deleted = ?", id, true).
		Updates(map[string]any{
			"is_deleted": false,
			"deleted_at": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
