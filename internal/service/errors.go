package service

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidState     = errors.New("invalid state")
	ErrInvalidSignature = errors.New("invalid payment signature")
	ErrUnauthorized     = errors.New("not authorized")
)

// kindError конкретная ошибка с понятным клиенту текстом, которая сводится к одному из базовых видов
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func stateError(msg string) error { return &kindError{msg: msg, kind: ErrInvalidState} }
func unauthorizedError(msg string) error { return &kindError{msg: msg, kind: ErrUnauthorized} }

// InvalidState
var (
	ErrNotEnoughStock    = stateError("not enough stock")
	ErrSizeUnavailable   = stateError("size not available")
	ErrEmptyCart         = stateError("cart is empty")
	ErrAlreadyReviewed   = stateError("product already reviewed")
	ErrAlreadyInWishlist = stateError("product already in wishlist")
	ErrNotInWishlist     = stateError("product not in wishlist")
	ErrAlreadyPaid       = stateError("order is already paid")
	ErrOrderCancelled    = stateError("order is cancelled")
	ErrNotOnlinePayment  = stateError("order is not paid online")
	ErrUserExists        = stateError("user already exists")
	ErrLastAddress       = stateError("cannot delete the only address")
	ErrOrderChanged      = stateError("order was changed by another request, retry")
)

// Unauthorized
var (
	ErrInvalidCredentials = unauthorizedError("invalid email or password")
	ErrAccountBlocked     = unauthorizedError("account is blocked")
	ErrNotOwner           = unauthorizedError("not authorized to access this order")
)
