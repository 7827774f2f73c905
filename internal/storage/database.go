package storage

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// defaultSettings seeds the runtime-mutable trading settings on first start.
var defaultSettings = []Setting{
	{Key: "capital_mode", Value: "percent"},
	{Key: "capital_value", Value: "10"},
	{Key: "account_size", Value: "100000"},
	{Key: "paper_trading", Value: "true"},
}

func NewDatabase(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	// Enable WAL mode for concurrent read/write: the pipeline and exit loops
	// plus the dashboard all hit the same file.
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := db.AutoMigrate(
		&NewsItem{}, &Trade{}, &Setting{}, &CapitalUsage{}, &TradeEvent{}, &LogEntry{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	for _, s := range defaultSettings {
		seed := s
		if err := db.Where(Setting{Key: s.Key}).FirstOrCreate(&seed).Error; err != nil {
			return nil, fmt.Errorf("seed setting %s: %w", s.Key, err)
		}
	}

	return db, nil
}
