package binance

import (
	"errors"
	"strings"

	"github.com/adshao/go-binance/v2/common"

	"futures-bot/internal/core"
)

const (
	apiCodeUnauthorized        = -1002
	apiCodeTooManyRequests     = -1003
	apiCodeTooManyOrders       = -1015
	apiCodeTimestampDrift      = -1021
	apiCodeSignatureInvalid    = -1022
	apiCodeInvalidSymbol       = -1121
	apiCodeNewOrderRejected    = -2010
	apiCodeCancelRejected      = -2011
	apiCodeOrderNotFound       = -2013
	apiCodeKeyFormatInvalid    = -2014
	apiCodeKeyRejected         = -2015
	apiCodeBalanceInsufficient = -2018
	apiCodeMarginInsufficient  = -2019
	apiCodeImmediateTrigger    = -2021
	apiCodeMinNotional         = -4164
)

var apiErrorMessageKinds = map[string]error{
	"margin is insufficient.":                                core.ErrInsufficientBalance,
	"account has insufficient balance for requested action.": core.ErrInsufficientBalance,
	"balance is insufficient.":                               core.ErrInsufficientBalance,
	"unknown order sent.":                                    core.ErrOrderNotFound,
	"order does not exist.":                                  core.ErrOrderNotFound,
	"duplicate order sent.":                                  core.ErrDuplicateOrder,
	"order would immediately trigger.":                       core.ErrOrderRejected,
}

// classifyError turns an SDK error into the shared taxonomy. Exchange-level
// answers keep their verbatim code and message; anything else never reached
// the exchange and counts as transport.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr)
	}
	return errors.Join(core.ErrTransport, err)
}

func classifyAPIError(apiErr *common.APIError) error {
	kinds := classifyAPIErrorKinds(apiErr)
	if len(kinds) == 0 {
		return apiErr
	}
	errChain := make([]error, 0, 1+len(kinds))
	errChain = append(errChain, apiErr)
	errChain = append(errChain, kinds...)
	return errors.Join(errChain...)
}

func classifyAPIErrorKinds(apiErr *common.APIError) []error {
	kinds := make([]error, 0, 2)
	normalizedMsg := normalizeAPIErrorMsg(apiErr.Message)

	switch apiErr.Code {
	case apiCodeUnauthorized, apiCodeTimestampDrift, apiCodeSignatureInvalid,
		apiCodeKeyFormatInvalid, apiCodeKeyRejected:
		kinds = appendErrorKind(kinds, core.ErrAuthentication)
	case apiCodeTooManyRequests, apiCodeTooManyOrders:
		kinds = appendErrorKind(kinds, core.ErrRateLimited)
	case apiCodeInvalidSymbol:
		kinds = appendErrorKind(kinds, core.ErrSymbolNotFound)
	case apiCodeOrderNotFound, apiCodeCancelRejected:
		kinds = appendErrorKind(kinds, core.ErrOrderNotFound)
	case apiCodeNewOrderRejected, apiCodeImmediateTrigger, apiCodeMinNotional:
		kinds = appendErrorKind(kinds, core.ErrOrderRejected)
	case apiCodeBalanceInsufficient, apiCodeMarginInsufficient:
		kinds = appendErrorKind(kinds, core.ErrOrderRejected)
		kinds = appendErrorKind(kinds, core.ErrInsufficientBalance)
	}

	if kind, ok := apiErrorMessageKinds[normalizedMsg]; ok {
		kinds = appendErrorKind(kinds, kind)
	}

	return kinds
}

func appendErrorKind(kinds []error, kind error) []error {
	if kind == nil {
		return kinds
	}
	for _, existing := range kinds {
		if existing == kind {
			return kinds
		}
	}
	return append(kinds, kind)
}

func normalizeAPIErrorMsg(msg string) string {
	return strings.ToLower(strings.TrimSpace(msg))
}

func AsAPIError(err error) (*common.APIError, bool) {
	if err == nil {
		return nil, false
	}
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		return nil, false
	}
	return apiErr, true
}

func IsAPIErrorCode(err error, codes ...int64) bool {
	apiErr, ok := AsAPIError(err)
	if !ok {
		return false
	}
	for _, code := range codes {
		if apiErr.Code == code {
			return true
		}
	}
	return false
}
