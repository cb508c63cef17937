package engine

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Error kinds returned by the engine. Callers match them with errors.Is;
// the returned errors carry extra context around these sentinels.
var (
	ErrNotFound          = errors.New("not found")
	ErrAccessDenied      = errors.New("access denied")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation error")
)

// notFoundOr maps gorm's missing-record error to ErrNotFound and wraps
// anything else as a storage failure.
func notFoundOr(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(ErrNotFound, format, args...)
	}
	return errors.Wrapf(err, format, args...)
}
