package persistence

import (
	"errors"

	"github.com/taskflow/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translate maps gorm sentinel errors to domain errors. notFound is returned
// for missing rows so each repository can use its own specific error.
func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	}
	return err
}
