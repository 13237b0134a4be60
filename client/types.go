package client

import (
	"errors"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrBlockhashExpired = errors.New("block height exceeded: transaction expired before confirmation")
	ErrNoStatus         = errors.New("signature status missing from response")
)

// Blockhash is a recent cluster checkpoint a transaction must reference.
type Blockhash struct {
	Hash                 solana.Hash
	LastValidBlockHeight uint64
}

// ConfirmError is returned when the cluster executed the transaction but it failed.
type ConfirmError struct {
	Err error
}

func (e *ConfirmError) Error() string {
	if e.Err == nil {
		return "Transaction failed to confirm"
	}
	return "Transaction failed to confirm: " + e.Err.Error()
}

func (e *ConfirmError) Unwrap() error {
	return e.Err
}

// LamportsToSOL converts the smallest unit to SOL.
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9)
}
