// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/crumb/internal/identity"
	"github.com/tomtom215/crumb/internal/models"
	"github.com/tomtom215/crumb/internal/validation"
)

// Error codes returned in APIError.Code.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeUpstream     = "UPSTREAM_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeMethod       = "METHOD_NOT_ALLOWED"
	CodeRateLimited  = "RATE_LIMITED"
)

// apiError is the client-facing view of an error.
type apiError struct {
	status  int
	code    string
	message string
	details map[string]interface{}
}

// classifyError maps an error kind to its status, code and a message safe
// to show the client. Upstream and internal details are never exposed.
func classifyError(err error) apiError {
	var rve *validation.RequestValidationError
	if errors.As(err, &rve) {
		return apiError{http.StatusBadRequest, CodeValidation, rve.Error(), rve.Details()}
	}

	var ve *models.ValidationError
	if errors.As(err, &ve) {
		e := apiError{status: http.StatusBadRequest, code: CodeValidation, message: ve.Error()}
		if ve.Field != "" {
			e.details = map[string]interface{}{"field": ve.Field}
		}
		return e
	}

	switch {
	case errors.Is(err, models.ErrValidation):
		return apiError{status: http.StatusBadRequest, code: CodeValidation, message: "invalid request"}
	case errors.Is(err, identity.ErrUnauthenticated):
		return apiError{status: http.StatusUnauthorized, code: CodeUnauthorized, message: "authentication required"}
	case errors.Is(err, models.ErrUpstreamUnavailable), errors.Is(err, models.ErrUpstreamRejected):
		return apiError{status: http.StatusBadGateway, code: CodeUpstream, message: "place search provider failed"}
	default:
		return apiError{status: http.StatusInternalServerError, code: CodeInternal, message: "internal server error"}
	}
}
