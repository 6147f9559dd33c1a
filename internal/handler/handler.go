package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"techtrove/internal/auth"
	"techtrove/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// base holds what every handler needs to write responses.
type base struct {
	logger      zerolog.Logger
	development bool
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent
		return
	}
}

// writeError writes a domain error body with the given status code.
func writeError(w http.ResponseWriter, status int, resp model.ErrorResponse) {
	writeJSON(w, status, resp)
}

func statusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.KindValidation, model.KindInsufficientStock, model.KindInvalidState:
		return http.StatusBadRequest
	case model.KindUnauthorized:
		return http.StatusUnauthorized
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindConflict:
		return http.StatusConflict
	case model.KindPayment:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError translates any service error into an HTTP response.
func (b base) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		b.logger.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")

		resp := model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "internal server error",
		}
		if b.development {
			resp.Detail = err.Error()
		}
		writeError(w, http.StatusInternalServerError, resp)
		return
	}

	status := statusForKind(de.Kind)
	if status >= http.StatusInternalServerError {
		b.logger.Error().Err(err).Str("code", de.Code).Str("path", r.URL.Path).Msg("request failed")
	} else {
		b.logger.Debug().Err(err).Str("code", de.Code).Int("status", status).Msg("request rejected")
	}

	resp := model.ErrorResponse{
		Error:   de.Code,
		Message: de.Message,
		Details: de.Details,
	}
	if b.development && err.Error() != de.Message {
		resp.Detail = err.Error()
	}
	writeError(w, status, resp)
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
func (b base) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   model.ErrCodeInvalidJSON,
			Message: "Invalid request body",
		})
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			b.writeServiceError(w, r, err)
			return false
		}
		b.writeServiceError(w, r, model.NewValidationError("Validation failed", validationDetails(fieldErrors)...))
		return false
	}

	return true
}

func validationDetails(fieldErrors validator.ValidationErrors) []string {
	details := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		switch fe.Tag() {
		case "required":
			details = append(details, field+" is required")
		default:
			details = append(details, field+" is invalid")
		}
	}
	return details
}

// caller returns the identity placed on the request by the auth middleware.
func (b base) caller(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrorResponse{
			Error:   model.ErrCodeUnauthorised,
			Message: "Not authorized, no token",
		})
	}
	return id, ok
}

// pathID parses the named URL parameter as a UUID.
func (b base) pathID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		b.writeServiceError(w, r, model.NewValidationError(fmt.Sprintf("Invalid %s ID", label), name+" is invalid"))
		return uuid.Nil, false
	}
	return id, true
}

// pageParams reads the page and limit query parameters. Absent values are zero.
func pageParams(r *http.Request) (page, limit int, details []string) {
	q := r.URL.Query()
	page, details = intParam(q.Get("page"), "page", details)
	limit, details = intParam(q.Get("limit"), "limit", details)
	return page, limit, details
}

func intParam(raw, name string, details []string) (int, []string) {
	if raw == "" {
		return 0, details
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, append(details, name+" must be a positive integer")
	}
	return n, details
}
