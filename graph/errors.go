package graph

import (
	"errors"

	"github.com/UkralStul/graphql-library-service/internal/service"
)

// Коды ошибок в extensions ответа.
const (
	codeNotFound   = "NOT_FOUND"
	codeValidation = "VALIDATION"
)

// resolverError несет extensions, которые graphql-go кладет в ответ.
type resolverError struct {
	err        error
	extensions map[string]interface{}
}

func (e *resolverError) Error() string                      { return e.err.Error() }
func (e *resolverError) Unwrap() error                      { return e.err }
func (e *resolverError) Extensions() map[string]interface{} { return e.extensions }

// gqlError переводит типизированные ошибки сервиса в ошибки с кодом.
// Остальные ошибки возвращаются как есть.
func gqlError(err error) error {
	var refErr *service.ReferenceError
	if errors.As(err, &refErr) {
		return &resolverError{err: err, extensions: map[string]interface{}{
			"code": codeNotFound,
			"kind": refErr.Kind,
			"id":   refErr.ID,
		}}
	}
	var valErr *service.ValidationError
	if errors.As(err, &valErr) {
		return &resolverError{err: err, extensions: map[string]interface{}{
			"code":  codeValidation,
			"field": valErr.Field,
			"value": valErr.Value,
		}}
	}
	return err
}
