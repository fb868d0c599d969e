package service

import (
	"errors"
	"fmt"
)

// Виды ошибок мутаций. Используются с errors.Is.
var (
	ErrReference  = errors.New("reference error")
	ErrValidation = errors.New("validation error")
)

// Виды сущностей, на которые может ссылаться ReferenceError.
const (
	KindAuthor = "Author"
	KindBook   = "Book"
	KindUser   = "User"
	KindReview = "Review"
)

// ReferenceError - входные данные мутации ссылаются на несуществующую запись.
type ReferenceError struct {
	Kind string
	ID   string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s with id %q not found", e.Kind, e.ID)
}

func (e *ReferenceError) Is(target error) bool { return target == ErrReference }

// ValidationError - значение поля нарушает статическое ограничение.
type ValidationError struct {
	Field string
	Value any
	Rule  string
}

func (e *ValidationError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("invalid value %v for field %q: %s", e.Value, e.Field, e.Rule)
	}
	return fmt.Sprintf("invalid value %v for field %q", e.Value, e.Field)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
