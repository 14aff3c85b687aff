package validate

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	instance *validator.Validate
	once     sync.Once
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New()
	})

	return instance
}

type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string {
	return e.Field + " " + e.Message
}

type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validate: invalid input"
	}

	a := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		a[i] = f.String()
	}

	return "validate: " + strings.Join(a, "; ")
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "is invalid"
	}
}

func Struct(v interface{}) error {
	err := get().Struct(v)
	if err == nil {
		return nil
	}

	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		e := &Error{}

		for _, fe := range fieldErrors {
			e.Fields = append(e.Fields, FieldError{
				Field:   fe.Field(),
				Message: messageFor(fe),
			})
		}

		return e
	}

	return fmt.Errorf("validate.Struct: %w", err)
}
