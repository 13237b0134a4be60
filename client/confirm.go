package client

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/soltip/soltip/program"
)

// ConfirmTransaction polls the signature status until the transaction reaches
// the configured commitment, fails, or its blockhash expires.
func (c *SolanaClient) ConfirmTransaction(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64) error {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		done, err := c.checkSignature(ctx, sig)
		if done || err != nil {
			return err
		}

		height, err := c.rpc.GetBlockHeight(ctx, c.cfg.Commitment)
		if err != nil {
			return fmt.Errorf("get block height: %w", err)
		}
		if height > lastValidBlockHeight {
			// one last look, the status may have landed between the two calls
			if done, err := c.checkSignature(ctx, sig); done || err != nil {
				return err
			}
			return fmt.Errorf("%w: signature %s", ErrBlockhashExpired, sig)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *SolanaClient) checkSignature(ctx context.Context, sig solana.Signature) (bool, error) {
	res, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		return false, fmt.Errorf("get signature status: %w", err)
	}
	if res == nil || len(res.Value) == 0 {
		return false, ErrNoStatus
	}
	status := res.Value[0]
	if status == nil {
		return false, nil
	}
	if status.Err != nil {
		return true, &ConfirmError{Err: program.ParseTransactionError(status.Err, nil)}
	}
	return reached(status.ConfirmationStatus, c.cfg.Commitment), nil
}

func reached(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	switch want {
	case rpc.CommitmentFinalized:
		return status == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentProcessed:
		return status != ""
	default:
		return status == rpc.ConfirmationStatusConfirmed || status == rpc.ConfirmationStatusFinalized
	}
}
