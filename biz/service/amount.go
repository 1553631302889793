package service

import (
	"fmt"
	"math"
	"strings"

	"portfolio-ledger/biz/errno"

	"github.com/shopspring/decimal"
)

const (
	maxSymbolLen = 32
	maxUserIDLen = 64

	// amountScale and amountIntDigits mirror the numeric(30,10) columns.
	amountScale     = 10
	amountIntDigits = 20
)

var maxAmount = decimal.New(1, amountIntDigits)

// checkAmount rejects values the store would round or overflow.
func checkAmount(name string, v decimal.Decimal) error {
	if !v.Equal(v.Truncate(amountScale)) {
		return fmt.Errorf("%w: %s %s has more than %d decimal places", errno.ErrInvalidAmount, name, v.String(), amountScale)
	}
	if v.Abs().GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: %s %s is out of range", errno.ErrInvalidAmount, name, v.String())
	}
	return nil
}

func validatePositive(name string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return fmt.Errorf("%w: %s must be positive, got %s", errno.ErrInvalidAmount, name, v.String())
	}
	return checkAmount(name, v)
}

func validateUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: empty user id", errno.ErrInvalidArgument)
	}
	if len(userID) > maxUserIDLen {
		return fmt.Errorf("%w: user id longer than %d bytes", errno.ErrInvalidArgument, maxUserIDLen)
	}
	return nil
}

// AmountFromFloat converts a float coming from a float-typed caller. NaN and infinities are rejected.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: %v is not a finite number", errno.ErrInvalidAmount, f)
	}
	d := decimal.NewFromFloat(f)
	if err := checkAmount("amount", d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ParseAmount parses a decimal string such as "1000.50".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", errno.ErrInvalidAmount, s)
	}
	if err := checkAmount("amount", d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(s string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	if sym == "" || len(sym) > maxSymbolLen {
		return "", fmt.Errorf("%w: bad symbol %q", errno.ErrInvalidArgument, s)
	}
	return sym, nil
}
