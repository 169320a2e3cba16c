package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")

	// ErrStaleRevision - запись по устаревшей ревизии, вызывающий должен перечитать инцидент
	ErrStaleRevision = fmt.Errorf("%w: stale revision", ErrConflict)
)

// IsDomainError сообщает, что ошибка относится к бизнес-логике и повтор операции не поможет
func IsDomainError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrForbidden)
}
