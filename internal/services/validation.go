package services

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"clubsphere/internal/errorz"
)

var validate = validator.New()

// validateInput runs struct validation and reports any failure as a ValidationError with msg
func validateInput(input any, msg string) error {
	if err := validate.Struct(input); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("validate input: %w", err)
		}
		return errorz.New(errorz.Validation, msg)
	}
	return nil
}

// notFoundOr maps gorm.ErrRecordNotFound to a NotFound error with msg
func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorz.New(errorz.NotFound, msg)
	}
	return err
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
