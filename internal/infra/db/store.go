package db

import (
	"fmt"
	"strings"

	"fraudops/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Store struct {
	DB *gorm.DB
}

func NewStore(cfg config.Config) (*Store, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required")
	}
	gdb, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{DB: gdb}, nil
}

// Migrate creates the schema and the case-number sequence. Case numbers come
// from a store-side sequence so they stay unique under concurrent creation.
func (s *Store) Migrate() error {
	if s == nil || s.DB == nil {
		return errDBUnavailable
	}
	if err := s.DB.AutoMigrate(
		&TransactionModel{},
		&RuleMatchModel{},
		&ReviewModel{},
		&CaseModel{},
		&CaseActivityModel{},
		&NoteModel{},
	); err != nil {
		return err
	}
	return s.DB.Exec("CREATE SEQUENCE IF NOT EXISTS case_number_seq").Error
}

func (s *Store) Ping() error {
	if s == nil || s.DB == nil {
		return errDBUnavailable
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (s *Store) Close() {
	if s == nil || s.DB == nil {
		return
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
