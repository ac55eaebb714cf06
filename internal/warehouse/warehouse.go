// Package warehouse loads the canonical and lineage tables into SQLite.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lehigh-university-libraries/bookintegrate/internal/dedup"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// ErrNotFound is returned when no canonical row exists for a book id
var ErrNotFound = errors.New("book not found")

// Store is a SQLite database holding dim_book and book_source_detail
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at path and migrates the
// schema.
func Open(path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// every pooled connection to :memory: would see its own empty database
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&dedup.CanonicalBook{}, &dedup.SourceDetail{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	slog.Debug("Opened warehouse", "path", path)

	return &Store{db: db}, nil
}

// Close releases the underlying connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Replace swaps the contents of both tables in one transaction
func (s *Store) Replace(ctx context.Context, books []dedup.CanonicalBook, details []dedup.SourceDetail, batchSize int) error {
	if batchSize < 1 {
		batchSize = 1
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&dedup.SourceDetail{}).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", dedup.SourceDetail{}.TableName(), err)
		}
		if err := all.Delete(&dedup.CanonicalBook{}).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", dedup.CanonicalBook{}.TableName(), err)
		}

		if len(books) > 0 {
			if err := tx.CreateInBatches(books, batchSize).Error; err != nil {
				return fmt.Errorf("failed to insert books: %w", err)
			}
		}
		if len(details) > 0 {
			if err := tx.CreateInBatches(details, batchSize).Error; err != nil {
				return fmt.Errorf("failed to insert source details: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Loaded warehouse tables", "books", len(books), "source_details", len(details))
	return nil
}

// Counts returns the row count of each table
func (s *Store) Counts(ctx context.Context) (books, details int64, err error) {
	db := s.db.WithContext(ctx)
	if err = db.Model(&dedup.CanonicalBook{}).Count(&books).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count books: %w", err)
	}
	if err = db.Model(&dedup.SourceDetail{}).Count(&details).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count source details: %w", err)
	}
	return books, details, nil
}

// Book fetches one canonical book
func (s *Store) Book(ctx context.Context, bookID string) (*dedup.CanonicalBook, error) {
	var book dedup.CanonicalBook
	err := s.db.WithContext(ctx).First(&book, "book_id = ?", bookID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, bookID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch book %s: %w", bookID, err)
	}
	return &book, nil
}

// Lineage returns every source record resolved to bookID, in lineage order
func (s *Store) Lineage(ctx context.Context, bookID string) ([]dedup.SourceDetail, error) {
	var details []dedup.SourceDetail
	err := s.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("source_id").
		Find(&details).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lineage for %s: %w", bookID, err)
	}
	return details, nil
}
