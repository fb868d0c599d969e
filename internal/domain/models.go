package domain

import "time"

// Префиксы идентификаторов для каждого вида сущностей.
const (
	AuthorIDPrefix = "author"
	BookIDPrefix   = "book"
	UserIDPrefix   = "user"
	ReviewIDPrefix = "review"
)

// Author представляет автора книг.
type Author struct {
	ID   string  `json:"id" gorm:"type:varchar(64);primary_key"`
	Name string  `json:"name" gorm:"type:varchar(255);not null"`
	Bio  *string `json:"bio,omitempty" gorm:"type:text"`
}

// Book представляет книгу. AuthorID ссылается на Author.
type Book struct {
	ID            string `json:"id" gorm:"type:varchar(64);primary_key"`
	Title         string `json:"title" gorm:"type:varchar(255);not null"`
	PublishedYear int    `json:"publishedYear" gorm:"not null"`
	Genre         Genre  `json:"genre" gorm:"type:varchar(32);not null"`
	AuthorID      string `json:"authorId" gorm:"type:varchar(64);not null;index"`
}

// User представляет читателя, оставляющего отзывы.
type User struct {
	ID       string    `json:"id" gorm:"type:varchar(64);primary_key"`
	Username string    `json:"username" gorm:"type:varchar(255);not null"`
	JoinedAt time.Time `json:"joinedAt" gorm:"not null"`
}

// Review представляет отзыв пользователя на книгу.
// Rating всегда в диапазоне [1,5], проверяется при создании.
type Review struct {
	ID        string    `json:"id" gorm:"type:varchar(64);primary_key"`
	Rating    int       `json:"rating" gorm:"not null"`
	Body      string    `json:"body" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
	BookID    string    `json:"bookId" gorm:"type:varchar(64);not null;index"`
	UserID    string    `json:"userId" gorm:"type:varchar(64);not null;index"`
}
