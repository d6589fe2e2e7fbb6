package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeAddressNotFound   = "ADDRESS_NOT_FOUND"
	ErrCodeSkuNotFound       = "SKU_NOT_FOUND"
	ErrCodeCouponNotFound    = "COUPON_NOT_FOUND"
	ErrCodeOrderNotFound     = "ORDER_NOT_FOUND"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeCouponDisabled    = "COUPON_DISABLED"
	ErrCodeCouponExhausted   = "COUPON_EXHAUSTED"
	ErrCodeCouponNotStarted  = "COUPON_NOT_STARTED"
	ErrCodeCouponExpired     = "COUPON_EXPIRED"
	ErrCodeCouponMinAmount   = "COUPON_MIN_AMOUNT"
	ErrCodeInvalidTransition = "INVALID_STATE_TRANSITION"
	ErrCodeTemporaryFailure  = "TEMPORARY_FAILURE"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError is a business-rule violation the caller must act on. It is
// surfaced as a value with a stable Code so callers branch on the code
// rather than on message text.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// AsDomain unwraps err to a DomainError if one is in the chain.
func AsDomain(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Common domain errors
var (
	ErrInvalidQuantity   = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrAddressNotFound   = NewDomainError(ErrCodeAddressNotFound, "Shipping address not found")
	ErrSkuNotFound       = NewDomainError(ErrCodeSkuNotFound, "One or more SKUs not found")
	ErrCouponNotFound    = NewDomainError(ErrCodeCouponNotFound, "Coupon code not found")
	ErrOrderNotFound     = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrInsufficientStock = NewDomainError(ErrCodeInsufficientStock, "Insufficient stock for one or more SKUs")
	ErrCouponDisabled    = NewDomainError(ErrCodeCouponDisabled, "Coupon code is not available")
	ErrCouponExhausted   = NewDomainError(ErrCodeCouponExhausted, "Coupon code has been fully redeemed")
	ErrCouponNotStarted  = NewDomainError(ErrCodeCouponNotStarted, "Coupon code cannot be used yet")
	ErrCouponExpired     = NewDomainError(ErrCodeCouponExpired, "Coupon code has expired")
	ErrCouponMinAmount   = NewDomainError(ErrCodeCouponMinAmount, "Order amount does not meet the coupon minimum")
	ErrNotDelivered      = NewDomainError(ErrCodeInvalidTransition, "Order has not been delivered yet")
	ErrOrderClosed       = NewDomainError(ErrCodeInvalidTransition, "Order has been cancelled")
	ErrAlreadyPaid       = NewDomainError(ErrCodeInvalidTransition, "Order has already been paid")
	ErrOrderUnpaid       = NewDomainError(ErrCodeInvalidTransition, "Order has not been paid")
	ErrAlreadyReviewed   = NewDomainError(ErrCodeInvalidTransition, "Order has already been reviewed")
	ErrRefundAlreadyOpen = NewDomainError(ErrCodeInvalidTransition, "A refund has already been requested for this order")
	ErrTemporaryFailure  = NewDomainError(ErrCodeTemporaryFailure, "Temporary failure, please retry")
)
