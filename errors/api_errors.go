package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/soltip/soltip/jsonx"
)

// APIErrorCode represents standardized error codes for web UI requests
type APIErrorCode string

const (
	// General errors
	ErrCodeInternal APIErrorCode = "internal_error"

	// Validation errors
	ErrCodeInvalidRequest APIErrorCode = "invalid_request"
	ErrCodeInvalidAddress APIErrorCode = "invalid_address"
	ErrCodeInvalidAmount  APIErrorCode = "invalid_amount"
	ErrCodeSelfTip        APIErrorCode = "self_tip"

	// Wallet errors
	ErrCodeWalletNotConnected APIErrorCode = "wallet_not_connected"
	ErrCodeUnknownWallet      APIErrorCode = "unknown_wallet"
	ErrCodeWalletUnlock       APIErrorCode = "wallet_unlock_failed"

	// Business logic errors
	ErrCodeAccountNotFound APIErrorCode = "account_not_found"
	ErrCodeTipFailed       APIErrorCode = "tip_failed"
	ErrCodeTipInFlight     APIErrorCode = "tip_in_flight"

	// System errors
	ErrCodeClusterUnavailable APIErrorCode = "cluster_unavailable"
	ErrCodeRateLimited        APIErrorCode = "rate_limited"
	ErrCodeMethodNotAllowed   APIErrorCode = "method_not_allowed"
)

// APIError represents a standardized API error
type APIError struct {
	Code    APIErrorCode `json:"code"`
	Message string       `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	err, _ := jsonx.Marshal(APIError{
		Code:    e.Code,
		Message: e.Message,
	})
	return string(err)
}

// Error message constants - user-friendly and concise
const (
	ErrMsgInvalidRequest     = "Request format is invalid"
	ErrMsgInvalidAddress     = "Wallet address is invalid"
	ErrMsgWalletNotConnected = "Please connect your wallet first"
	ErrMsgUnknownWallet      = "This wallet is not available"
	ErrMsgWalletUnlock       = "Could not unlock the selected wallet"
	ErrMsgAccountNotFound    = "Account does not exist"
	ErrMsgTipInFlight        = "A tip is already being processed"
	ErrMsgClusterUnavailable = "Solana cluster is unreachable, please try again"
	ErrMsgInternal           = "Server error, please try again"
	ErrMsgRateLimited        = "Too many requests, please slow down"
	ErrMsgMethodNotAllowed   = "Method not allowed"
)

// NewError creates a new APIError and returns it as error interface
func NewError(code APIErrorCode, message string) error {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// HTTPStatus maps an error code to its response status
func (e *APIError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeInvalidRequest, ErrCodeInvalidAddress, ErrCodeInvalidAmount, ErrCodeSelfTip, ErrCodeUnknownWallet:
		return http.StatusBadRequest
	case ErrCodeWalletNotConnected, ErrCodeWalletUnlock:
		return http.StatusUnauthorized
	case ErrCodeAccountNotFound:
		return http.StatusNotFound
	case ErrCodeTipInFlight:
		return http.StatusConflict
	case ErrCodeTipFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrCodeClusterUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as a {code, message} body. Errors that are not
// APIErrors are reported as internal errors without leaking their text.
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *APIError
	if !stderrors.As(err, &apiErr) {
		apiErr = &APIError{Code: ErrCodeInternal, Message: ErrMsgInternal}
	}
	_ = jsonx.WriteResponse(w, apiErr.HTTPStatus(), apiErr)
}
