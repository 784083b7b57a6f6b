package db

import (
	"github.com/edenorcraft/politbot/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect opens the embedded sqlite database on a single pooled connection,
// so the session pragma Migrate sets stays in effect for the process.
func Connect(path string) (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(1)

	return conn, nil
}

// Migrate creates any missing tables, then turns foreign keys on. The sqlite
// migrator rebuilds referenced tables while creating the ones that point at
// them, which fails under FK enforcement, so the pragma must come after the
// schema exists. Every cascade in the schema depends on it.
func Migrate(conn *gorm.DB) error {
	tables := []interface{}{
		&models.User{},
		&models.Party{},
		&models.PartyMember{},
		&models.PartyApplication{},
		&models.Election{},
		&models.ElectionVote{},
		&models.ParliamentMember{},
		&models.Voting{},
		&models.VotingVote{},
		&models.ActionLog{},
	}

	migrator := conn.Migrator()

	for _, table := range tables {
		if !migrator.HasTable(table) {
			if err := conn.AutoMigrate(table); err != nil {
				return err
			}
		}
	}

	return conn.Exec("PRAGMA foreign_keys = ON").Error
}
