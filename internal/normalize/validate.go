package normalize

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/coursepress/internal/apperr"
	"github.com/starford/coursepress/internal/models"
	"github.com/starford/coursepress/internal/slug"
)

var canonicalSlug = validation.By(func(value any) error {
	s, _ := value.(string)
	if !slug.Valid(s) {
		return errors.New("must be a canonical slug")
	}
	return nil
})

// Validate checks the invariants every normalized post must satisfy.
func Validate(p models.Post) error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Slug, validation.Required, canonicalSlug),
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.Section, validation.Required, canonicalSlug),
		validation.Field(&p.Category, validation.Required),
		validation.Field(&p.Date, validation.Required, validation.Date(time.DateOnly)),
		validation.Field(&p.Number, validation.Min(0)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidPost, err)
	}
	return nil
}

// RequireFields reports the first key of required that is absent or blank in meta.
func RequireFields(meta map[string]any, required []string) error {
	for _, key := range required {
		if _, ok := stringValue(meta[key]); !ok {
			return fmt.Errorf("%w: %s", apperr.ErrMissingField, key)
		}
	}
	return nil
}
