package checkout

import (
	"errors"
	"net/http"

	"github.com/mindcare/checkout-api/internal/common"
)

// Error codes carried by *common.AppError values returned from this package.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeGateway        = "GATEWAY_ERROR"
	CodeGatewayTimeout = "GATEWAY_TIMEOUT"
)

// Generic messages shown when the gateway gives nothing better.
const (
	msgMissingPrice   = "Missing priceReference"
	msgInvalidMode    = "Invalid mode"
	msgInvalidBody    = "Invalid request body"
	msgNoRedirect     = "Payment gateway returned no checkout URL"
	msgGatewayTimeout = "Payment gateway timed out"
	msgGatewayFailed  = "Unable to start checkout"
)

// ValidationError reports client input that can never succeed as sent.
func ValidationError(message string) error {
	return common.NewAppError(CodeValidation, message, http.StatusBadRequest, nil)
}

// GatewayError wraps a failure raised by the gateway call. The gateway's
// message becomes the client-facing message.
func GatewayError(err error) error {
	message := msgGatewayFailed
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	return common.NewAppError(CodeGateway, message, http.StatusInternalServerError, err)
}

// TimeoutError reports a gateway call that exceeded the configured bound.
func TimeoutError(err error) error {
	return common.NewAppError(CodeGatewayTimeout, msgGatewayTimeout, http.StatusGatewayTimeout, err)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

// IsGateway reports whether err came from the gateway, including timeouts.
func IsGateway(err error) bool {
	return hasCode(err, CodeGateway) || hasCode(err, CodeGatewayTimeout)
}

func hasCode(err error, code string) bool {
	var appErr *common.AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
