// Package store is the persistence gateway: typed operations over the
// politics schema. Every multi-step mutation runs in a single transaction so
// a crash mid-operation leaves the database as if it never started, and the
// database's own atomicity resolves races between user handlers and the
// scheduler. Uniqueness violations come back as types.ErrConflict and
// missing rows as types.ErrNotFound so callers can tell the cases apart.
package store

import (
	"errors"
	"time"

	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/types"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// mapErr folds gorm's error surface into the shared taxonomy.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return types.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return types.ErrConflict
	default:
		return err
	}
}

// LogAction appends to the audit log. Entries are never updated or removed.
func (s *Store) LogAction(telegramID int64, action, details string) error {
	entry := models.ActionLog{
		TelegramID: telegramID,
		Action:     action,
		Details:    details,
		CreatedAt:  time.Now(),
	}

	return mapErr(s.db.Create(&entry).Error)
}

// RecentLogs returns the newest audit entries, most recent first.
func (s *Store) RecentLogs(limit int) ([]models.ActionLog, error) {
	var logs []models.ActionLog

	err := s.db.Order("created_at DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, mapErr(err)
	}

	return logs, nil
}
