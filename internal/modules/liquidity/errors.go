package liquidity

import "errors"

var (
	// ErrMissingColumns is returned when the history source lacks a required column
	ErrMissingColumns = errors.New("history is missing required columns")
	// ErrMissingTimestamps is returned when ordering cannot be established from dates
	ErrMissingTimestamps = errors.New("history records have no timestamps")
	// ErrMixedTimestamps is returned when only some records carry a timestamp
	ErrMixedTimestamps = errors.New("history records mix dated and undated rows")
	// ErrNegativeAmount is returned for negative redemptions, contributions or NAV
	ErrNegativeAmount = errors.New("amount must not be negative")
	// ErrInvalidRow is returned when a tabular row cannot be parsed
	ErrInvalidRow = errors.New("invalid history row")
	// ErrInvalidPolicy is returned by Policy.Validate
	ErrInvalidPolicy = errors.New("invalid liquidity policy")
	// ErrInvalidHolding is returned for a holding with negative notice or amount
	ErrInvalidHolding = errors.New("invalid holding")
)

// IsInputError reports whether err is caused by caller-supplied data rather
// than an internal failure
func IsInputError(err error) bool {
	for _, target := range []error{
		ErrMissingColumns,
		ErrMissingTimestamps,
		ErrMixedTimestamps,
		ErrNegativeAmount,
		ErrInvalidRow,
		ErrInvalidPolicy,
		ErrInvalidHolding,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
