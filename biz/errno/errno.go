// Package errno holds the ledger's error taxonomy and its mapping to HTTP status codes.
package errno

import (
	"errors"

	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInsufficientAssets  = errors.New("insufficient assets")
	ErrNotFound            = errors.New("not found")
	ErrTransactionConflict = errors.New("transaction conflict")
	ErrPriceUnavailable    = errors.New("price unavailable")
)

// HTTPStatus maps an error returned by the ledger to the status the route layer answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return consts.StatusOK
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidArgument):
		return consts.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return consts.StatusNotFound
	case errors.Is(err, ErrTransactionConflict):
		return consts.StatusConflict
	case errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrInsufficientAssets):
		return consts.StatusUnprocessableEntity
	case errors.Is(err, ErrPriceUnavailable):
		return consts.StatusServiceUnavailable
	default:
		return consts.StatusInternalServerError
	}
}
