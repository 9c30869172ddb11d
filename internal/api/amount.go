package api

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/fastprodman/gamewallet/internal/services/ledger"
	"github.com/shopspring/decimal"
)

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// parseMinorUnits accepts a positive whole number of minor units. Any JSON
// number notation is accepted as long as the value is integral, so 300,
// 300.0 and 3e2 are equal.
func parseMinorUnits(n json.Number) (int64, error) {
	if n == "" {
		return 0, fmt.Errorf("amount required: %w", ledger.ErrInvalidRequest)
	}

	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", n, ledger.ErrInvalidRequest)
	}

	if !d.IsInteger() {
		return 0, fmt.Errorf("amount %s is not a whole number of minor units: %w", d, ledger.ErrInvalidRequest)
	}

	if !d.IsPositive() {
		return 0, fmt.Errorf("amount must be > 0: %w", ledger.ErrInvalidRequest)
	}

	if d.GreaterThan(maxMinorUnits) {
		return 0, fmt.Errorf("amount out of range: %w", ledger.ErrInvalidRequest)
	}

	return d.IntPart(), nil
}
