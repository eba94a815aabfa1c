package server

import (
	"errors"
	"net/http"
	"strings"

	apartmentdomain "nhatro/internal/apartment/domain"
	authdomain "nhatro/internal/auth/domain"
	"nhatro/internal/authorization"
	billingdomain "nhatro/internal/billing/domain"
	contractdomain "nhatro/internal/contract/domain"
	invoicedomain "nhatro/internal/invoice/domain"
	meterdomain "nhatro/internal/meterreading/domain"
	settingsdomain "nhatro/internal/settings/domain"
	tenantdomain "nhatro/internal/tenant/domain"

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
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
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
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
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
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, authdomain.ErrInvalidRole):
		return true
	case isApartmentValidationError(err),
		isTenantValidationError(err),
		isContractValidationError(err),
		isSettingsValidationError(err),
		isMeterValidationError(err),
		isInvoiceValidationError(err),
		isBillingValidationError(err):
		return true
	default:
		return false
	}
}

func isApartmentValidationError(err error) bool {
	return errors.Is(err, apartmentdomain.ErrInvalidRoomNumber) ||
		errors.Is(err, apartmentdomain.ErrInvalidRent) ||
		errors.Is(err, apartmentdomain.ErrInvalidID)
}

func isTenantValidationError(err error) bool {
	return errors.Is(err, tenantdomain.ErrInvalidName) ||
		errors.Is(err, tenantdomain.ErrInvalidID)
}

func isContractValidationError(err error) bool {
	return errors.Is(err, contractdomain.ErrInvalidApartment) ||
		errors.Is(err, contractdomain.ErrNoTenants) ||
		errors.Is(err, contractdomain.ErrUnknownTenant) ||
		errors.Is(err, contractdomain.ErrInvalidDeposit) ||
		errors.Is(err, contractdomain.ErrInvalidID)
}

func isSettingsValidationError(err error) bool {
	return errors.Is(err, settingsdomain.ErrNonPositiveRate)
}

func isMeterValidationError(err error) bool {
	return errors.Is(err, meterdomain.ErrInvalidPhase) ||
		errors.Is(err, meterdomain.ErrNegativeReading) ||
		errors.Is(err, meterdomain.ErrAmbiguousUsage) ||
		errors.Is(err, meterdomain.ErrInvalidApartment) ||
		errors.Is(err, meterdomain.ErrUnknownApartment)
}

func isInvoiceValidationError(err error) bool {
	return errors.Is(err, invoicedomain.ErrInvalidID) ||
		errors.Is(err, invoicedomain.ErrInvalidStatus)
}

func isBillingValidationError(err error) bool {
	return errors.Is(err, billingdomain.ErrInvalidApartment) ||
		errors.Is(err, billingdomain.ErrUnknownApartment) ||
		errors.Is(err, billingdomain.ErrDuplicateAdjustment) ||
		errors.Is(err, billingdomain.ErrInvalidDueDays)
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, authdomain.ErrLastAdmin),
		errors.Is(err, apartmentdomain.ErrDuplicateRoom),
		errors.Is(err, tenantdomain.ErrTenantOnActiveContract),
		errors.Is(err, contractdomain.ErrApartmentOccupied),
		errors.Is(err, contractdomain.ErrAlreadyEnded),
		errors.Is(err, contractdomain.ErrDeleteActiveContract),
		errors.Is(err, invoicedomain.ErrAlreadyPaid),
		errors.Is(err, invoicedomain.ErrInvoiceVoided):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, apartmentdomain.ErrNotFound),
		errors.Is(err, tenantdomain.ErrNotFound),
		errors.Is(err, contractdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, authdomain.ErrInvalidRole):
		return "invalid_role"
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
	default:
		return "invalid value"
	}
}
