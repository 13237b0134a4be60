package tip

import (
	"errors"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	lamportsPerSOLExp = 9
	// 10^20 SOL is already past the u64 lamport range.
	maxAmountExp = 20
)

var (
	ErrInvalidAmount = errors.New("Tip amount must be greater than 0")

	maxLamports = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)
)

// ParseAmount converts a decimal SOL string into lamports, truncating toward
// zero. Anything that does not yield at least one lamport is rejected.
func ParseAmount(s string) (decimal.Decimal, uint64, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, 0, ErrInvalidAmount
	}
	if !exponentInRange(amount) {
		return decimal.Zero, 0, ErrInvalidAmount
	}

	lamports := amount.Shift(lamportsPerSOLExp).Truncate(0)
	if !lamports.IsPositive() || lamports.GreaterThan(maxLamports) {
		return decimal.Zero, 0, ErrInvalidAmount
	}
	return amount, lamports.BigInt().Uint64(), nil
}

// exponentInRange rejects exponents that cannot produce a lamport count
// before anything rescales the coefficient, which costs O(|exponent|).
func exponentInRange(d decimal.Decimal) bool {
	exp := int64(d.Exponent())
	if exp > maxAmountExp {
		return false
	}
	if exp >= 0 {
		return true
	}
	// below one lamport once the fraction is longer than the digits plus 9
	digits := int64(len(new(big.Int).Abs(d.Coefficient()).String()))
	return -exp <= digits+lamportsPerSOLExp
}
