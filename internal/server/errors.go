package server

import (
	"errors"
	"net/http"
	"strings"

	analysisdomain "github.com/smallbiznis/spacial/internal/analysis/domain"
	plandomain "github.com/smallbiznis/spacial/internal/controlplan/domain"
	featuredomain "github.com/smallbiznis/spacial/internal/feature/domain"
	measurementdomain "github.com/smallbiznis/spacial/internal/measurement/domain"
	bindingdomain "github.com/smallbiznis/spacial/internal/planfeature/domain"
	productdomain "github.com/smallbiznis/spacial/internal/product/domain"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: notFoundMessage(err),
		}
	case errors.Is(err, productdomain.ErrCodeExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "a product with this code already exists",
		}
	case errors.Is(err, productdomain.ErrInUse):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "product still has features or control plans",
		}
	case errors.Is(err, bindingdomain.ErrBindingExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "feature is already bound to this control plan",
		}
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case errors.Is(err, bindingdomain.ErrFeatureProductMismatch):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unprocessable",
			Message: "feature belongs to a different product than the control plan",
		}
	case errors.Is(err, measurementdomain.ErrPlanInactive):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "plan_inactive",
			Message: "this control plan is inactive",
		}
	case errors.Is(err, analysisdomain.ErrIncompleteBinding):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "incomplete_binding",
			Message: "target, usl and lsl must all be set before evaluating",
		}
	case errors.Is(err, analysisdomain.ErrUnordered):
		return http.StatusConflict, errorPayload{
			Type:    "unordered_series",
			Message: "measurements are not in capture order",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many measurements, retry shortly",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger with the same type the client
// sees, plus the sentinel code.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	} else if payload.Type != "internal_error" {
		code = err.Error()
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isProductValidationError(err),
		isFeatureValidationError(err),
		isPlanValidationError(err),
		isBindingValidationError(err),
		isMeasurementValidationError(err),
		errors.Is(err, analysisdomain.ErrInvalidRecent):
		return true
	default:
		return false
	}
}

func isProductValidationError(err error) bool {
	return errors.Is(err, productdomain.ErrInvalidCode) ||
		errors.Is(err, productdomain.ErrInvalidName) ||
		errors.Is(err, productdomain.ErrInvalidID)
}

func isFeatureValidationError(err error) bool {
	return errors.Is(err, featuredomain.ErrInvalidProduct) ||
		errors.Is(err, featuredomain.ErrInvalidName) ||
		errors.Is(err, featuredomain.ErrInvalidType) ||
		errors.Is(err, featuredomain.ErrInvalidID) ||
		errors.Is(err, featuredomain.ErrInvalidNumber)
}

func isPlanValidationError(err error) bool {
	return errors.Is(err, plandomain.ErrInvalidID) ||
		errors.Is(err, plandomain.ErrInvalidProduct) ||
		errors.Is(err, plandomain.ErrInvalidName)
}

func isBindingValidationError(err error) bool {
	return errors.Is(err, bindingdomain.ErrInvalidPlanID) ||
		errors.Is(err, bindingdomain.ErrInvalidFeatureID) ||
		errors.Is(err, bindingdomain.ErrInvalidLimit)
}

func isMeasurementValidationError(err error) bool {
	return errors.Is(err, measurementdomain.ErrInvalidPlanID) ||
		errors.Is(err, measurementdomain.ErrInvalidFeatureID) ||
		errors.Is(err, measurementdomain.ErrInvalidSerialNumber) ||
		errors.Is(err, measurementdomain.ErrInvalidValue) ||
		errors.Is(err, measurementdomain.ErrInvalidPageToken)
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, featuredomain.ErrNotFound),
		errors.Is(err, featuredomain.ErrProductMissing),
		errors.Is(err, plandomain.ErrNotFound),
		errors.Is(err, plandomain.ErrProductMissing),
		errors.Is(err, bindingdomain.ErrPlanNotFound),
		errors.Is(err, bindingdomain.ErrFeatureNotFound),
		errors.Is(err, bindingdomain.ErrBindingNotFound),
		errors.Is(err, measurementdomain.ErrPlanNotFound),
		errors.Is(err, measurementdomain.ErrFeatureNotFound),
		errors.Is(err, measurementdomain.ErrBindingNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// notFoundMessage relies on the sentinel text, which is shared between
// packages for the same entity.
func notFoundMessage(err error) string {
	switch {
	case strings.Contains(err.Error(), "product_not_found"):
		return "product not found"
	case strings.Contains(err.Error(), "feature_not_found"):
		return "feature not found"
	case strings.Contains(err.Error(), "plan_not_found"):
		return "control plan not found"
	case strings.Contains(err.Error(), "binding_not_found"):
		return "feature is not bound to this control plan"
	default:
		return "not found"
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_serial_number":
		return "serial number is required"
	case "invalid_value":
		return "value must be a finite number"
	case "invalid_limit":
		return "limits must be finite numbers"
	case "invalid_recent":
		return "recent must be a non-negative integer"
	case "invalid_page_token":
		return "page token is malformed"
	default:
		return "invalid value"
	}
}
