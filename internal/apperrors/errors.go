package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable machine-readable error codes of the cross-service contract.
const (
	CodeOrderNotFound            = "ORDER_NOT_FOUND"
	CodeOrderValidation          = "ORDER_VALIDATION_ERROR"
	CodeOrderInvalidState        = "ORDER_INVALID_STATE"
	CodeOrderInvalidOperation    = "ORDER_INVALID_OPERATION"
	CodeOrderInsufficientStock   = "ORDER_INSUFFICIENT_STOCK"
	CodeOrderBOMConversionFailed = "ORDER_BOM_CONVERSION_FAILED"
	CodeOrderPlanningError       = "ORDER_PRODUCTION_PLANNING_ERROR"
	CodeInventoryNotFound        = "INVENTORY_NOT_FOUND"
	CodeInventoryValidation      = "INVENTORY_VALIDATION_ERROR"
	CodeInventoryUnauthorized    = "INVENTORY_UNAUTHORIZED"
	CodeMasterdataNotFound       = "MASTERDATA_NOT_FOUND"
	CodeMasterdataValidation     = "MASTERDATA_VALIDATION_ERROR"
	CodeUserUnauthorized         = "USER_UNAUTHORIZED"
	CodeSimALServiceError        = "SIMAL_SERVICE_ERROR"
	CodeExternalServiceError     = "EXTERNAL_SERVICE_ERROR"
)

// AppError is the closed error type every service layer returns. Code maps to
// one HTTP status; Details carries structured context (entity ids, requested
// vs available) but never credentials or stack traces.
type AppError struct {
	Code    string                 `json:"errorCode"`
	Status  int                    `json:"status"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, status int, message string) *AppError {
	return &AppError{Code: code, Status: status, Message: message}
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

// As unwraps err into an *AppError, or nil if it is not one.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func NotFound(code, message string) *AppError {
	return New(code, http.StatusNotFound, message)
}

func BadRequest(code, message string) *AppError {
	return New(code, http.StatusBadRequest, message)
}

func Forbidden(code, message string) *AppError {
	return New(code, http.StatusForbidden, message)
}

func Internal(code, message string) *AppError {
	return New(code, http.StatusInternalServerError, message)
}
