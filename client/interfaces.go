package client

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Network is the part of the cluster RPC surface soltip depends on.
type Network interface {
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (Blockhash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	ConfirmTransaction(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64) error
	GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error)
}
