package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

type Response struct {
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

// FieldError is a single failed validation rule in a machine-readable form.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func OK() Response {
	return Response{
		Status: StatusOK,
	}
}

func OKMessage(msg string) Response {
	return Response{
		Status:  StatusOK,
		Message: msg,
	}
}

func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	details := make([]FieldError, 0, len(errs))

	for _, err := range errs {
		details = append(details, FieldError{
			Field:   fieldName(err),
			Rule:    err.Tag(),
			Message: message(err),
		})
	}

	return Response{
		Status:  StatusError,
		Error:   "Invalid input",
		Details: details,
	}
}

// fieldName strips the top-level struct name from the namespace so nested
// fields read like "subtasks[0].difficulty".
func fieldName(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}

	return err.Field()
}

func message(err validator.FieldError) string {
	field := fieldName(err)

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("field %s is a required field", field)
	case "email":
		return fmt.Sprintf("field %s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("field %s must be at least %s characters", field, err.Param())
	case "max":
		return fmt.Sprintf("field %s must be at most %s characters", field, err.Param())
	case "oneof":
		return fmt.Sprintf("field %s must be one of [%s]", field, err.Param())
	default:
		return fmt.Sprintf("field %s is not valid", field)
	}
}
