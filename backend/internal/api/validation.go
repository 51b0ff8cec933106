package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "jobgraph/backend/pkg/errors"
)

var validate = validator.New()

// validateStruct runs the struct's validate tags and reports failures as invalid input
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewInvalidInputWrap("body", "could not be validated", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return apperrors.NewInvalidInput(strings.ToLower(verrs[0].Field()), strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "url":
		return fmt.Sprintf("%s must be a valid url", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// userFields are the user properties checked beyond presence of the id
type userFields struct {
	ID           string `validate:"required,max=256"`
	Email        string `validate:"omitempty,email"`
	ProfileImage string `validate:"omitempty,url"`
}

// jobFields are the listing properties checked on ingestion
type jobFields struct {
	ID    string `validate:"required,max=256"`
	Title string `validate:"max=512"`
}

type batchRequest struct {
	List interface{} `json:"list" validate:"required"`
}

type relationshipsRequest struct {
	Skills    interface{} `json:"skills" validate:"required_without=Locations"`
	Locations interface{} `json:"locations" validate:"required_without=Skills"`
}

type relationshipsQuery struct {
	Action string `form:"action" validate:"omitempty,oneof=delete create"`
}

type tokenRequest struct {
	Subject string `json:"subject" validate:"required,max=256"`
}
