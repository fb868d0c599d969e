package service

import (
	"cmp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/UkralStul/graphql-library-service/internal/domain"
)

// AverageRating возвращает среднюю оценку отзывов или nil, если отзывов нет.
// Отсутствие отзывов - это "нет значения", а не ноль.
func AverageRating(reviews []*domain.Review) *float64 {
	if len(reviews) == 0 {
		return nil
	}
	sum := lo.SumBy(reviews, func(r *domain.Review) int { return r.Rating })
	avg := float64(sum) / float64(len(reviews))
	return &avg
}

// ratingStats - сумма и число оценок одной книги.
type ratingStats struct {
	sum   int
	count int
}

func (s ratingStats) average() (float64, bool) {
	if s.count == 0 {
		return 0, false
	}
	return float64(s.sum) / float64(s.count), true
}

// collectRatings группирует оценки по bookId за один проход.
func collectRatings(reviews []*domain.Review) map[string]ratingStats {
	stats := make(map[string]ratingStats)
	for _, r := range reviews {
		s := stats[r.BookID]
		s.sum += r.Rating
		s.count++
		stats[r.BookID] = s
	}
	return stats
}

// normalizeSort подставляет значения по умолчанию: TITLE и ASC.
func normalizeSort(s domain.BookSort) domain.BookSort {
	if s.Field == "" {
		s.Field = domain.BookSortTitle
	}
	if s.Order == "" {
		s.Order = domain.SortOrderAsc
	}
	return s
}

// sortBooks сортирует книги на месте. Сортировка стабильная: при равных ключах
// сохраняется исходный порядок (порядок вставки).
// Для AVERAGE_RATING книги без отзывов считаются с оценкой 0.
func sortBooks(books []*domain.Book, s domain.BookSort, stats map[string]ratingStats) {
	s = normalizeSort(s)

	var compare func(a, b *domain.Book) int
	switch s.Field {
	case domain.BookSortAverageRating:
		compare = func(a, b *domain.Book) int {
			ra, _ := stats[a.ID].average()
			rb, _ := stats[b.ID].average()
			return cmp.Compare(ra, rb)
		}
	case domain.BookSortPublishedYear:
		compare = func(a, b *domain.Book) int {
			return cmp.Compare(a.PublishedYear, b.PublishedYear)
		}
	default:
		compare = func(a, b *domain.Book) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	}

	if s.Order == domain.SortOrderDesc {
		asc := compare
		compare = func(a, b *domain.Book) int { return asc(b, a) }
	}
	slices.SortStableFunc(books, compare)
}
