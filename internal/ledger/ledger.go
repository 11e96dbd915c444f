package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("transaction not found")
	ErrFailed        = errors.New("transaction failed")
	ErrInsufficient  = errors.New("transaction did not credit the platform wallet")
	ErrNotConfigured = errors.New("platform wallet not configured")
)

// Ledger is the external settlement collaborator. Amounts are in minor units.
type Ledger interface {
	// Address is the platform wallet that receives entry fees.
	Address() string
	// Verify checks that ref is a successful transfer crediting at least
	// minAmount to Address.
	Verify(ctx context.Context, ref string, minAmount uint64) error
	// Transfer sends amount to the recipient and returns the transfer reference.
	Transfer(ctx context.Context, to string, amount uint64) (string, error)
}

// ToMinor converts a token amount to minor units, flooring any remainder.
func ToMinor(amount decimal.Decimal, decimals int32) uint64 {
	if amount.IsNegative() {
		return 0
	}
	return uint64(amount.Shift(decimals).Floor().IntPart())
}

// FromMinor is the inverse of ToMinor.
func FromMinor(amount uint64, decimals int32) decimal.Decimal {
	return decimal.NewFromUint64(amount).Shift(-decimals)
}
