package postgres

import (
	"time"

	"book-search-service/internal/domain"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// AuthorModel is the GORM model for the authors table.
type AuthorModel struct {
	ID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name string `gorm:"type:varchar(255);not null;index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for AuthorModel.
func (AuthorModel) TableName() string {
	return "authors"
}

// GenreModel is the GORM model for the genres table.
type GenreModel struct {
	ID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name string `gorm:"type:varchar(100);not null"`
	Slug string `gorm:"type:varchar(100);not null;uniqueIndex"`
}

// TableName returns the table name for GenreModel.
func (GenreModel) TableName() string {
	return "genres"
}

// BookModel is the GORM model for the books table.
type BookModel struct {
	ID          string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string         `gorm:"type:varchar(500);not null"`
	Slug        string         `gorm:"type:varchar(500);not null;uniqueIndex"`
	Description string         `gorm:"type:text"`
	CoverURL    string         `gorm:"type:varchar(1000)"`
	Status      string         `gorm:"type:varchar(20);not null;index"`
	Tags        pq.StringArray `gorm:"type:text[]"`

	AuthorID string      `gorm:"type:uuid;not null;index"`
	Author   AuthorModel `gorm:"foreignKey:AuthorID"`

	Genres []GenreModel `gorm:"many2many:book_genres;joinForeignKey:BookID;joinReferences:GenreID"`

	// Counters maintained by the catalog writers
	Views int `gorm:"default:0"`
	Likes int `gorm:"default:0"`

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime;index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for BookModel.
func (BookModel) TableName() string {
	return "books"
}

// ChapterModel is the GORM model for the chapters table.
type ChapterModel struct {
	ID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookID string `gorm:"type:uuid;not null;index"`
	Title  string `gorm:"type:varchar(500);not null"`
	Number int    `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for ChapterModel.
func (ChapterModel) TableName() string {
	return "chapters"
}

// ReviewModel is the GORM model for the reviews table.
type ReviewModel struct {
	ID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookID string `gorm:"type:uuid;not null;index"`
	UserID string `gorm:"type:uuid;not null"`
	Rating int    `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for ReviewModel.
func (ReviewModel) TableName() string {
	return "reviews"
}

// ToDomain converts BookModel to domain.Book.
func (m *BookModel) ToDomain() *domain.Book {
	genres := make([]domain.GenreSummary, len(m.Genres))
	for i, g := range m.Genres {
		genres[i] = domain.GenreSummary{ID: g.ID, Name: g.Name, Slug: g.Slug}
	}

	return &domain.Book{
		ID:          m.ID,
		Title:       m.Title,
		Slug:        m.Slug,
		Description: m.Description,
		CoverURL:    m.CoverURL,
		Status:      domain.BookStatus(m.Status),
		Tags:        m.Tags,
		Author:      domain.AuthorSummary{ID: m.AuthorID, Name: m.Author.Name},
		Genres:      genres,
		Views:       m.Views,
		Likes:       m.Likes,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ToDomainSlice converts BookModels to domain.Books.
func ToDomainSlice(models []BookModel) []*domain.Book {
	books := make([]*domain.Book, len(models))
	for i := range models {
		books[i] = models[i].ToDomain()
	}

	return books
}
