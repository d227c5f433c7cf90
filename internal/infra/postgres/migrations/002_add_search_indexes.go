package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// addSearchIndexes prepares the catalog for accent-insensitive substring
// search.
//
// 1. Installs the unaccent extension so queries can fold Vietnamese
//    diacritics ("Truyện Kiều" and "truyen kieu" match the same rows).
// 2. Installs pg_trgm and adds trigram GIN indexes over the folded title,
//    slug and author name so the LIKE '%...%' candidate queries stay off
//    sequential scans.
//
// unaccent() is not IMMUTABLE by default, which expression indexes
// require. A thin immutable wrapper in the public schema works around
// that; the planner still matches it against the query expressions.
func addSearchIndexes() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "002_add_search_indexes",
		Migrate: func(tx *gorm.DB) error {
			extensions := []string{
				"CREATE EXTENSION IF NOT EXISTS unaccent;",
				"CREATE EXTENSION IF NOT EXISTS pg_trgm;",
			}
			for _, ext := range extensions {
				if err := tx.Exec(ext).Error; err != nil {
					return err
				}
			}

			if err := tx.Exec(`
				CREATE OR REPLACE FUNCTION immutable_unaccent(text)
				RETURNS text AS $$
					SELECT public.unaccent('public.unaccent', $1)
				$$ LANGUAGE sql IMMUTABLE PARALLEL SAFE
			`).Error; err != nil {
				return err
			}

			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_books_title_trgm
					ON books USING GIN (immutable_unaccent(lower(title)) gin_trgm_ops);`,
				`CREATE INDEX IF NOT EXISTS idx_books_slug_trgm
					ON books USING GIN (immutable_unaccent(lower(replace(slug, '-', ' '))) gin_trgm_ops);`,
				`CREATE INDEX IF NOT EXISTS idx_authors_name_trgm
					ON authors USING GIN (immutable_unaccent(lower(name)) gin_trgm_ops);`,
			}
			for _, idx := range indexes {
				if err := tx.Exec(idx).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			_ = tx.Exec("DROP INDEX IF EXISTS idx_books_title_trgm;").Error
			_ = tx.Exec("DROP INDEX IF EXISTS idx_books_slug_trgm;").Error
			_ = tx.Exec("DROP INDEX IF EXISTS idx_authors_name_trgm;").Error
			_ = tx.Exec("DROP FUNCTION IF EXISTS immutable_unaccent(text);").Error
			return nil
		},
	}
}
