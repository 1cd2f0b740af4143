package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/narwhalmedia/querykit/pkg/models"
)

// Migration records an applied schema migration
type Migration struct {
	ID        uint      `gorm:"primaryKey"`
	Version   string    `gorm:"uniqueIndex;not null"`
	Name      string    `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// MigrationFunc is a function that performs a migration
type MigrationFunc func(*gorm.DB) error

// MigrationEntry represents a single migration
type MigrationEntry struct {
	Version string
	Name    string
	Up      MigrationFunc
}

// Migrator applies pending migrations in version order
type Migrator struct {
	db         *gorm.DB
	log        *zap.Logger
	migrations []MigrationEntry
}

// NewMigrator creates a migrator for the sample schema
func NewMigrator(db *gorm.DB, log *zap.Logger) *Migrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Migrator{
		db:         db,
		log:        log,
		migrations: getAllMigrations(),
	}
}

// Migrate runs all pending migrations, each in its own transaction
func (m *Migrator) Migrate() error {
	if err := m.db.AutoMigrate(&Migration{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	pending, err := m.GetPendingMigrations()
	if err != nil {
		return err
	}

	for _, migration := range pending {
		m.log.Info("running migration", zap.String("version", migration.Version), zap.String("name", migration.Name))

		err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx); err != nil {
				return err
			}
			return tx.Create(&Migration{
				Version:   migration.Version,
				Name:      migration.Name,
				AppliedAt: time.Now(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to run migration %s: %w", migration.Version, err)
		}
	}

	return nil
}

// GetPendingMigrations returns the migrations that have not been applied
func (m *Migrator) GetPendingMigrations() ([]MigrationEntry, error) {
	if !m.db.Migrator().HasTable(&Migration{}) {
		return append([]MigrationEntry(nil), m.migrations...), nil
	}

	var appliedMigrations []Migration
	if err := m.db.Find(&appliedMigrations).Error; err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	applied := make(map[string]bool, len(appliedMigrations))
	for _, migration := range appliedMigrations {
		applied[migration.Version] = true
	}

	var pending []MigrationEntry
	for _, migration := range m.migrations {
		if !applied[migration.Version] {
			pending = append(pending, migration)
		}
	}
	return pending, nil
}

// RunMigrations runs all pending migrations
func RunMigrations(db *gorm.DB, log *zap.Logger) error {
	return NewMigrator(db, log).Migrate()
}

func getAllMigrations() []MigrationEntry {
	return []MigrationEntry{
		{
			Version: "20250101_001",
			Name:    "Create blog schema",
			Up:      migration001CreateBlogSchema,
		},
		{
			Version: "20250101_002",
			Name:    "Add post ordering index",
			Up:      migration002AddIndexes,
		},
	}
}

func migration001CreateBlogSchema(tx *gorm.DB) error {
	if err := tx.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate blog models: %w", err)
	}
	return nil
}

func migration002AddIndexes(tx *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_posts_blog_timestamp ON posts(blog_id, timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_blogs_category_name ON blogs(category, name)",
	}
	for _, index := range indexes {
		if err := tx.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
