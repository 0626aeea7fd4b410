package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance
var DB *gorm.DB

// Connect establishes a connection to the PostgreSQL database
func Connect(dsn string, logLevel logger.LogLevel) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return nil
}

// AutoMigrate runs database migrations for all models
func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate runs migrations against the given connection. Split out from
// AutoMigrate so tests can migrate an in-memory database.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Workspace{},
		&Contributor{},
		&Idea{},
		&IdeaEmbedding{},
		&Vote{},
		&DuplicateSuggestion{},
		&DedupeEvent{},
		&IdeaMerge{},
		&DedupeSettings{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// Close closes the database connection
func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
