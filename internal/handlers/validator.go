package handlers

import "github.com/go-playground/validator/v10"

// Validator plugs go-playground/validator into echo.Context.Validate
type Validator struct {
	validator *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validator: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}
