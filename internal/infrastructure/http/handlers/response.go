// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/alchemorsel/fridgechef/internal/infrastructure/monitoring"
	"github.com/alchemorsel/fridgechef/pkg/errors"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// maxJSONBody caps request bodies that are not chat turns
const maxJSONBody = 1 << 20

// responder holds what every handler group needs to read requests and
// write answers
type responder struct {
	logger   *zap.Logger
	validate *validator.Validate
}

func newResponder(logger *zap.Logger) responder {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return responder{logger: logger, validate: validate}
}

// writeJSON writes data as a JSON response
func (h responder) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// writeError renders err as {error, code, request_id}. Errors that are not
// AppErrors become internal errors so their text never reaches the client.
func (h responder) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Wrap(err, "unexpected error")
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		monitoring.RecordError(r.Context(), err)
		h.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("code", string(appErr.Code)),
			zap.Error(err),
			zap.String("stack", appErr.StackTrace),
		)
	}

	h.writeJSON(w, status, errors.ToErrorResponse(appErr, chimiddleware.GetReqID(r.Context())))
}

// decode reads a JSON body into dst and runs its validate tags
func (h responder) decode(w http.ResponseWriter, r *http.Request, dst interface{}, limit int64) *errors.AppError {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.NewValidationError("Request body too large").WithCause(err)
		}
		return errors.NewBadRequestError("Invalid JSON payload").WithCause(err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) *errors.AppError {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewValidationError("Validation failed").WithCause(err)
	}

	fields := make([]errors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, errors.ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return errors.NewValidationErrors(fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// withMessage replaces the user-facing text of a validation failure and
// keeps the per-field details
func withMessage(err *errors.AppError, message string) *errors.AppError {
	if err.Code == errors.CodeValidationFailed {
		err.Message = message
	}
	return err
}
