// Package validation provides input validation for bolt entities and
// configuration.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation is
// used for entities and config descriptors; the fluent Validator serves
// multi-step checks such as the configuration checker.
//
// # Struct Tag Validation
//
//	type User struct {
//	    Username string `validate:"required,min=2"`
//	    Email    string `validate:"omitempty,email"`
//	}
//	err := validation.Validate(u)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("canonical", host)
//	err := v.Validate()
package validation
