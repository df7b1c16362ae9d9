package handler

import (
	"errors"
	"fmt"
	"net/http"

	"product-service/internal/model"
)

// Client-facing texts. Internal causes are never exposed.
const (
	msgValidation    = "Validation failed"
	msgNotFound      = "Product not found"
	msgConflict      = "Product already exists"
	msgInternal      = "Internal server error"
	msgMisconfigured = "Service misconfigured"

	detailInternal      = "An unexpected error occurred while processing the request"
	detailMisconfigured = "The service configuration is invalid"
)

// MapError translates an error into the response the client receives.
// Errors that are not domain errors map as persistence failures.
func MapError(err error) model.ErrorResponse {
	var de *model.Error
	if !errors.As(err, &de) {
		return model.ErrorResponse{
			Error:      msgInternal,
			StatusCode: http.StatusInternalServerError,
			Detail:     detailInternal,
		}
	}

	switch de.Kind {
	case model.KindValidation:
		violations := de.Violations
		if violations == nil {
			violations = []model.Violation{}
		}
		return model.ErrorResponse{
			Error:      msgValidation,
			StatusCode: http.StatusUnprocessableEntity,
			Detail:     violations,
		}
	case model.KindNotFound:
		return model.ErrorResponse{
			Error:      msgNotFound,
			StatusCode: http.StatusNotFound,
			Detail:     de.Message,
		}
	case model.KindConflict:
		return model.ErrorResponse{
			Error:      msgConflict,
			StatusCode: http.StatusConflict,
			Detail:     de.Message,
		}
	case model.KindConfiguration:
		return model.ErrorResponse{
			Error:      msgMisconfigured,
			StatusCode: http.StatusInternalServerError,
			Detail:     detailMisconfigured,
		}
	default:
		return model.ErrorResponse{
			Error:      msgInternal,
			StatusCode: http.StatusInternalServerError,
			Detail:     detailInternal,
		}
	}
}

// NotFound answers requests that match no route.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, model.ErrorResponse{
		Error:      "Not found",
		StatusCode: http.StatusNotFound,
		Detail:     fmt.Sprintf("No route for %s", r.URL.Path),
	})
}

// MethodNotAllowed answers requests whose path exists under another method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, model.ErrorResponse{
		Error:      "Method not allowed",
		StatusCode: http.StatusMethodNotAllowed,
		Detail:     fmt.Sprintf("Method %s is not allowed for %s", r.Method, r.URL.Path),
	})
}
