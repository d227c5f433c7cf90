package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createCatalogTables creates the catalog schema: authors, genres, books,
// the book_genres join table, chapters and reviews.
func createCatalogTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "001_create_catalog",
		Migrate: func(tx *gorm.DB) error {
			statements := []string{
				`CREATE TABLE IF NOT EXISTS authors (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					name VARCHAR(255) NOT NULL,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				);`,
				`CREATE TABLE IF NOT EXISTS genres (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					name VARCHAR(100) NOT NULL,
					slug VARCHAR(100) NOT NULL,
					CONSTRAINT uq_genres_slug UNIQUE (slug)
				);`,
				`CREATE TABLE IF NOT EXISTS books (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					title VARCHAR(500) NOT NULL,
					slug VARCHAR(500) NOT NULL,
					description TEXT,
					cover_url VARCHAR(1000),
					status VARCHAR(20) NOT NULL,
					tags TEXT[],
					author_id UUID NOT NULL REFERENCES authors(id),

					-- Counters
					views INTEGER DEFAULT 0,
					likes INTEGER DEFAULT 0,

					-- Timestamps
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					deleted_at TIMESTAMP,

					CONSTRAINT uq_books_slug UNIQUE (slug)
				);`,
				`CREATE TABLE IF NOT EXISTS book_genres (
					book_id UUID NOT NULL REFERENCES books(id) ON DELETE CASCADE,
					genre_id UUID NOT NULL REFERENCES genres(id) ON DELETE CASCADE,
					PRIMARY KEY (book_id, genre_id)
				);`,
				`CREATE TABLE IF NOT EXISTS chapters (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					book_id UUID NOT NULL REFERENCES books(id) ON DELETE CASCADE,
					title VARCHAR(500) NOT NULL,
					number INTEGER NOT NULL,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				);`,
				`CREATE TABLE IF NOT EXISTS reviews (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					book_id UUID NOT NULL REFERENCES books(id) ON DELETE CASCADE,
					user_id UUID NOT NULL,
					rating INTEGER NOT NULL,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				);`,
			}
			for _, stmt := range statements {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}

			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_books_status ON books(status);",
				"CREATE INDEX IF NOT EXISTS idx_books_author_id ON books(author_id);",
				"CREATE INDEX IF NOT EXISTS idx_books_updated_at ON books(updated_at);",
				"CREATE INDEX IF NOT EXISTS idx_books_deleted_at ON books(deleted_at);",
				"CREATE INDEX IF NOT EXISTS idx_authors_name ON authors(name);",
				"CREATE INDEX IF NOT EXISTS idx_chapters_book_id ON chapters(book_id);",
				"CREATE INDEX IF NOT EXISTS idx_reviews_book_id ON reviews(book_id);",
			}
			for _, idx := range indexes {
				if err := tx.Exec(idx).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			tables := []string{"reviews", "chapters", "book_genres", "books", "genres", "authors"}
			for _, table := range tables {
				if err := tx.Exec("DROP TABLE IF EXISTS " + table + ";").Error; err != nil {
					return err
				}
			}
			return nil
		},
	}
}
