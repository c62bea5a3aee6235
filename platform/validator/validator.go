// Package validator wraps go-playground struct validation behind a
// small injectable type shared by every HTTP module.
package validator

import "github.com/go-playground/validator/v10"

// Validator validates structs and single values against binding tags.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with the default rule set. Modules register
// their own rules through RegisterValidation.
func New() *Validator {
	return &Validator{
		v: validator.New(),
	}
}

// Struct validates a struct based on its validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single value against a tag expression.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation adds a custom named validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
