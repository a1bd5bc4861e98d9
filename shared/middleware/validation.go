package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/eaglebank/ledger/shared/errs"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

type BadRequestErrorResponse struct {
	Message string            `json:"message"`
	Details []ValidationError `json:"details"`
}

func ValidateRequest(obj any) []ValidationError {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}
	return toValidationErrors(err, "")
}

// ValidateField checks a single value against a validator tag, for fields
// (such as patch optionals) that cannot carry struct tags.
func ValidateField(field string, value any, tag string) []ValidationError {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	return toValidationErrors(err, field)
}

func toValidationErrors(err error, field string) []ValidationError {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []ValidationError{{Field: field, Message: "Invalid value", Type: "invalid"}}
	}

	var validationErrors []ValidationError
	for _, fe := range fieldErrors {
		name := fe.Field()
		if field != "" {
			name = field
		}
		validationErrors = append(validationErrors, ValidationError{
			Field:   name,
			Message: getErrorMsg(fe),
			Type:    fe.Tag(),
		})
	}
	return validationErrors
}

func getErrorMsg(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gt":
		return "Value must be greater than " + err.Param()
	case "gte":
		return "Value must be greater than or equal to " + err.Param()
	case "oneof":
		return "Value must be one of: " + err.Param()
	default:
		return "Invalid value"
	}
}

func RespondWithValidationError(c *gin.Context, validationErrors []ValidationError) {
	c.JSON(http.StatusBadRequest, BadRequestErrorResponse{
		Message: "Invalid request data",
		Details: validationErrors,
	})
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"message": message,
	})
}

// RespondWithDomainError maps a domain error kind to its status code.
// Unknown errors are logged and reported as fallback with a 500.
func RespondWithDomainError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrForbidden):
		RespondWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, errs.ErrConflict):
		RespondWithError(c, http.StatusConflict, errs.ErrConflict.Error())
	case errors.Is(err, errs.ErrIncorrectPassword):
		RespondWithError(c, http.StatusUnauthorized, errs.ErrIncorrectPassword.Error())
	case errors.Is(err, errs.ErrInvalidCredentials):
		RespondWithError(c, http.StatusUnauthorized, errs.ErrInvalidCredentials.Error())
	case errors.Is(err, errs.ErrInvalidToken):
		RespondWithError(c, http.StatusUnauthorized, errs.ErrInvalidToken.Error())
	default:
		_ = c.Error(err)
		slog.Error(fallback, "requestId", GetRequestID(c), "error", err)
		RespondWithError(c, http.StatusInternalServerError, fallback)
	}
}
