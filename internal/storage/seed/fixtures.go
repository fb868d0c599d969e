// Package seed содержит фиксированный набор данных, которым хранилище
// заполняется один раз при старте процесса.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/UkralStul/graphql-library-service/internal/domain"
	"github.com/UkralStul/graphql-library-service/internal/storage"
)

// Идентификаторы фикстур, на которые опираются тесты.
const (
	AuthorKleppmann = "author-1"
	AuthorXu        = "author-2"
	AuthorLeGuin    = "author-3"
	AuthorHerbert   = "author-4"

	BookDDIA     = "book-1" // 8 отзывов, средняя 4.625
	BookSDI      = "book-2"
	BookSDI2     = "book-3"
	BookLeftHand = "book-4"
	BookEarthsea = "book-5"
	BookDune     = "book-6" // без отзывов

	UserAlice = "user-1"
	UserBob   = "user-2"
	UserCarol = "user-3"
	UserDave  = "user-4"
)

func strPtr(s string) *string { return &s }

func ts(v string) time.Time {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		panic(fmt.Sprintf("seed: bad timestamp %q: %v", v, err))
	}
	return t
}

// Authors возвращает свежие копии авторов из фикстур.
func Authors() []*domain.Author {
	return []*domain.Author{
		{ID: AuthorKleppmann, Name: "Martin Kleppmann", Bio: strPtr("Researcher in distributed systems, author of Designing Data-Intensive Applications.")},
		{ID: AuthorXu, Name: "Alex Xu", Bio: strPtr("Software engineer and author of the System Design Interview series.")},
		{ID: AuthorLeGuin, Name: "Ursula K. Le Guin", Bio: strPtr("American author of science fiction and fantasy.")},
		{ID: AuthorHerbert, Name: "Frank Herbert"},
	}
}

// Books возвращает свежие копии книг из фикстур.
func Books() []*domain.Book {
	return []*domain.Book{
		{ID: BookDDIA, Title: "Designing Data-Intensive Applications", PublishedYear: 2017, Genre: domain.GenreTechnology, AuthorID: AuthorKleppmann},
		{ID: BookSDI, Title: "System Design Interview", PublishedYear: 2020, Genre: domain.GenreTechnology, AuthorID: AuthorXu},
		{ID: BookSDI2, Title: "System Design Interview Volume 2", PublishedYear: 2022, Genre: domain.GenreTechnology, AuthorID: AuthorXu},
		{ID: BookLeftHand, Title: "The Left Hand of Darkness", PublishedYear: 1969, Genre: domain.GenreScienceFiction, AuthorID: AuthorLeGuin},
		{ID: BookEarthsea, Title: "A Wizard of Earthsea", PublishedYear: 1968, Genre: domain.GenreFantasy, AuthorID: AuthorLeGuin},
		{ID: BookDune, Title: "Dune", PublishedYear: 1965, Genre: domain.GenreScienceFiction, AuthorID: AuthorHerbert},
	}
}

// Users возвращает свежие копии пользователей из фикстур.
func Users() []*domain.User {
	return []*domain.User{
		{ID: UserAlice, Username: "alice", JoinedAt: ts("2023-01-15T09:30:00Z")},
		{ID: UserBob, Username: "bob", JoinedAt: ts("2023-03-02T18:05:00Z")},
		{ID: UserCarol, Username: "carol", JoinedAt: ts("2023-06-21T12:00:00Z")},
		{ID: UserDave, Username: "dave", JoinedAt: ts("2024-02-10T07:45:00Z")},
	}
}

// Reviews возвращает свежие копии отзывов из фикстур.
func Reviews() []*domain.Review {
	type r struct {
		book, user string
		rating     int
		body, at   string
	}
	raw := []r{
		{BookDDIA, UserAlice, 5, "The best book on data systems I have read.", "2024-01-05T10:00:00Z"},
		{BookDDIA, UserBob, 5, "Replication and partitioning chapters are gold.", "2024-01-07T11:30:00Z"},
		{BookDDIA, UserCarol, 4, "Dense but rewarding.", "2024-01-09T08:15:00Z"},
		{BookDDIA, UserDave, 5, "Changed how I think about consistency.", "2024-01-12T19:40:00Z"},
		{BookDDIA, UserAlice, 5, "Re-read it for interviews, still great.", "2024-03-01T14:00:00Z"},
		{BookDDIA, UserBob, 4, "Could use more exercises.", "2024-03-15T16:20:00Z"},
		{BookDDIA, UserCarol, 5, "Stream processing part is excellent.", "2024-04-02T09:05:00Z"},
		{BookDDIA, UserDave, 4, "A long read, worth it.", "2024-04-20T21:10:00Z"},
		{BookSDI, UserAlice, 4, "Good structure for interview prep.", "2024-02-01T10:00:00Z"},
		{BookSDI, UserBob, 5, "Clear diagrams.", "2024-02-03T12:00:00Z"},
		{BookSDI, UserCarol, 3, "A bit shallow in places.", "2024-02-05T13:00:00Z"},
		{BookSDI2, UserDave, 4, "Nice follow-up with new case studies.", "2024-05-10T10:30:00Z"},
		{BookSDI2, UserAlice, 4, "The proximity service chapter is handy.", "2024-05-12T17:45:00Z"},
		{BookLeftHand, UserBob, 5, "A classic.", "2023-11-11T11:11:00Z"},
		{BookLeftHand, UserCarol, 4, "Slow start, great ending.", "2023-11-20T20:00:00Z"},
		{BookLeftHand, UserDave, 3, "Not my kind of book.", "2023-12-01T09:00:00Z"},
		{BookLeftHand, UserAlice, 4, "Beautiful world-building.", "2023-12-24T18:30:00Z"},
		{BookEarthsea, UserBob, 3, "Fine, but dated.", "2023-10-10T10:10:00Z"},
	}
	reviews := make([]*domain.Review, len(raw))
	for i, v := range raw {
		reviews[i] = &domain.Review{
			ID:        domain.FormatID(domain.ReviewIDPrefix, i+1),
			Rating:    v.rating,
			Body:      v.body,
			CreatedAt: ts(v.at),
			BookID:    v.book,
			UserID:    v.user,
		}
	}
	return reviews
}

// Load заполняет хранилище фикстурами. Если в хранилище уже есть авторы,
// считается, что оно заполнено ранее, и ничего не делается.
func Load(ctx context.Context, s storage.Storage) error {
	existing, err := s.GetAuthors(ctx)
	if err != nil {
		return fmt.Errorf("seed: check existing data: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, a := range Authors() {
		if err := s.InsertAuthor(ctx, a); err != nil {
			return fmt.Errorf("seed: insert author %s: %w", a.ID, err)
		}
	}
	for _, b := range Books() {
		if err := s.InsertBook(ctx, b); err != nil {
			return fmt.Errorf("seed: insert book %s: %w", b.ID, err)
		}
	}
	for _, u := range Users() {
		if err := s.InsertUser(ctx, u); err != nil {
			return fmt.Errorf("seed: insert user %s: %w", u.ID, err)
		}
	}
	for _, r := range Reviews() {
		if err := s.InsertReview(ctx, r); err != nil {
			return fmt.Errorf("seed: insert review %s: %w", r.ID, err)
		}
	}
	return nil
}
