package domain

import (
	"strconv"
	"strings"
)

// Genre - жанр книги из фиксированного закрытого набора.
type Genre string

const (
	GenreFiction        Genre = "FICTION"
	GenreNonFiction     Genre = "NON_FICTION"
	GenreScienceFiction Genre = "SCIENCE_FICTION"
	GenreFantasy        Genre = "FANTASY"
	GenreMystery        Genre = "MYSTERY"
	GenreBiography      Genre = "BIOGRAPHY"
	GenreHistory        Genre = "HISTORY"
	GenreScience        Genre = "SCIENCE"
	GenreTechnology     Genre = "TECHNOLOGY"
)

// AllGenres перечисляет допустимые жанры в порядке объявления в схеме.
var AllGenres = []Genre{
	GenreFiction,
	GenreNonFiction,
	GenreScienceFiction,
	GenreFantasy,
	GenreMystery,
	GenreBiography,
	GenreHistory,
	GenreScience,
	GenreTechnology,
}

func (g Genre) IsValid() bool {
	for _, v := range AllGenres {
		if g == v {
			return true
		}
	}
	return false
}

func (g Genre) String() string { return string(g) }

// SortOrder - направление сортировки.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// BookSortField - поле сортировки для запроса books.
type BookSortField string

const (
	BookSortTitle         BookSortField = "TITLE"
	BookSortPublishedYear BookSortField = "PUBLISHED_YEAR"
	BookSortAverageRating BookSortField = "AVERAGE_RATING"
)

// BookSort задает сортировку списка книг. Пустое поле означает TITLE, пустой порядок - ASC.
type BookSort struct {
	Field BookSortField
	Order SortOrder
}

// BookFilter - фильтры запроса books, объединяются через AND.
// Nil означает, что фильтр не задан.
type BookFilter struct {
	Genre     *Genre
	AuthorID  *string
	MinRating *float64
}

// SplitID разбирает идентификатор вида "<prefix>-<n>".
func SplitID(id string) (prefix string, n int, ok bool) {
	i := strings.LastIndexByte(id, '-')
	if i <= 0 || i == len(id)-1 {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return id[:i], n, true
}

// FormatID собирает идентификатор из префикса и номера.
func FormatID(prefix string, n int) string {
	return prefix + "-" + strconv.Itoa(n)
}
