// Package funds persists the caller-owned state of each fund of funds (its
// holdings and flow history) and runs liquidity analyses over it.
package funds

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/fofliquidity/internal/modules/liquidity"
)

var (
	// ErrFundNotFound is returned when no fund has the requested ID
	ErrFundNotFound = errors.New("fund not found")
	// ErrInvalidFund is returned for a fund with missing or out of range attributes
	ErrInvalidFund = errors.New("invalid fund")
)

// IsInputError reports whether err was caused by caller-supplied data
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidFund) || liquidity.IsInputError(err)
}

// Fund is a fund of funds tracked by the service
type Fund struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	TargetHorizon int              `json:"target_horizon"`
	NAV           *decimal.Decimal `json:"nav,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Analysis pairs a fund with a freshly computed liquidity report
type Analysis struct {
	Fund   Fund
	Report *liquidity.Report
}
