package pg

import (
	"errors"
	"fmt"

	"portfolio-ledger/biz/errno"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// postgres SQLSTATEs surfaced to callers as a transaction conflict
var conflictCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available (lock_timeout)
	"23505": {}, // unique_violation
}

// postgres SQLSTATEs for values that do not fit their column
var rangeCodes = map[string]error{
	"22001": errno.ErrInvalidArgument, // string_data_right_truncation
	"22003": errno.ErrInvalidAmount,   // numeric_value_out_of_range
}

// TranslateError maps store level failures onto errno.ErrTransactionConflict, and column overflows onto
// errno.ErrInvalidArgument or errno.ErrInvalidAmount. Other errors pass through.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errno.ErrTransactionConflict) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", errno.ErrTransactionConflict, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := conflictCodes[pgErr.Code]; ok {
			return fmt.Errorf("%w: %w", errno.ErrTransactionConflict, err)
		}
		if sentinel, ok := rangeCodes[pgErr.Code]; ok {
			return fmt.Errorf("%w: %w", sentinel, err)
		}
	}
	return err
}
