package model

import (
	"errors"

	"github.com/google/uuid"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	// Detail carries the wrapped error chain and is only set in development.
	Detail string `json:"detail,omitempty"`
}

// ErrorKind classifies a domain error for transport mapping.
type ErrorKind int

const (
	KindServer ErrorKind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInsufficientStock
	KindInvalidState
	KindPayment
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeProductNotFound   = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound     = "ORDER_NOT_FOUND"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeEmailTaken        = "EMAIL_TAKEN"
	ErrCodeAlreadyReviewed   = "ALREADY_REVIEWED"
	ErrCodeUserHasOrders     = "USER_HAS_ORDERS"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeNotCancellable    = "ORDER_NOT_CANCELLABLE"
	ErrCodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	ErrCodePaymentNotPending = "PAYMENT_NOT_PENDING"
	ErrCodePayment           = "PAYMENT_ERROR"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details []string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped copies compare equal to sentinels.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError builds a validation error carrying per-field details.
func NewValidationError(message string, details ...string) *DomainError {
	return &DomainError{
		Kind:    KindValidation,
		Code:    ErrCodeValidation,
		Message: message,
		Details: details,
	}
}

// NewInsufficientStockError reports the product that could not cover the requested quantity.
func NewInsufficientStockError(productName string) *DomainError {
	return &DomainError{
		Kind:    KindInsufficientStock,
		Code:    ErrCodeInsufficientStock,
		Message: "Insufficient stock for " + productName,
	}
}

// NewProductNotFoundError names the missing product. It matches ErrProductNotFound.
func NewProductNotFoundError(id uuid.UUID) *DomainError {
	return &DomainError{
		Kind:    KindNotFound,
		Code:    ErrCodeProductNotFound,
		Message: "Product " + id.String() + " not found",
	}
}

// Common domain errors
var (
	ErrProductNotFound   = NewDomainError(KindNotFound, ErrCodeProductNotFound, "Product not found")
	ErrOrderNotFound     = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "Order not found")
	ErrUserNotFound      = NewDomainError(KindNotFound, ErrCodeUserNotFound, "User not found")
	ErrNotInWishlist     = NewDomainError(KindNotFound, ErrCodeNotFound, "Product not in wishlist")
	ErrAlreadyInWishlist = NewDomainError(KindConflict, ErrCodeConflict, "Product already in wishlist")
	ErrEmailTaken        = NewDomainError(KindConflict, ErrCodeEmailTaken, "User already exists with this email")
	ErrAlreadyReviewed   = NewDomainError(KindConflict, ErrCodeAlreadyReviewed, "Product already reviewed")
	ErrUserHasOrders     = NewDomainError(KindConflict, ErrCodeUserHasOrders, "User has orders and cannot be deleted")
	ErrInvalidCredential = NewDomainError(KindUnauthorized, ErrCodeUnauthorised, "Invalid email or password")
	ErrForbidden         = NewDomainError(KindForbidden, ErrCodeForbidden, "Not authorized")
	ErrInsufficientStock = NewDomainError(KindInsufficientStock, ErrCodeInsufficientStock, "Insufficient stock")
	ErrNotCancellable    = NewDomainError(KindInvalidState, ErrCodeNotCancellable, "Order cannot be cancelled")
	ErrInvalidTransition = NewDomainError(KindInvalidState, ErrCodeInvalidTransition, "Order status cannot move backwards")
	ErrPaymentNotPending = NewDomainError(KindInvalidState, ErrCodePaymentNotPending, "Payment can only be recorded while pending on an active order")
	ErrPaymentFailed     = NewDomainError(KindPayment, ErrCodePayment, "Payment provider request failed")
	ErrInvalidQuantity   = NewValidationError("Quantity must be at least 1")
)

// KindOf reports the kind of err, defaulting to KindServer for non-domain errors.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindServer
}
