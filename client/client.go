package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/soltip/soltip/program"
)

const defaultPollInterval = 500 * time.Millisecond

type Config struct {
	Endpoint   string
	Commitment rpc.CommitmentType
	// PollInterval is the delay between signature status checks while confirming.
	PollInterval time.Duration
}

type SolanaClient struct {
	cfg Config
	rpc *rpc.Client
}

var _ Network = (*SolanaClient)(nil)

func NewClient(cfg Config) (*SolanaClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("rpc endpoint is required")
	}
	if cfg.Commitment == "" {
		cfg.Commitment = rpc.CommitmentConfirmed
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &SolanaClient{
		cfg: cfg,
		rpc: rpc.New(cfg.Endpoint),
	}, nil
}

func (c *SolanaClient) Endpoint() string {
	return c.cfg.Endpoint
}

func (c *SolanaClient) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	res, err := c.rpc.GetBalance(ctx, account, c.cfg.Commitment)
	if err != nil {
		return 0, fmt.Errorf("get balance of %s: %w", account, err)
	}
	return res.Value, nil
}

func (c *SolanaClient) GetLatestBlockhash(ctx context.Context) (Blockhash, error) {
	res, err := c.rpc.GetLatestBlockhash(ctx, c.cfg.Commitment)
	if err != nil {
		return Blockhash{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	if res == nil || res.Value == nil {
		return Blockhash{}, errors.New("get latest blockhash: empty response")
	}
	return Blockhash{
		Hash:                 res.Value.Blockhash,
		LastValidBlockHeight: res.Value.LastValidBlockHeight,
	}, nil
}

// SendTransaction submits a signed transaction with preflight simulation.
// A simulation failure is returned as *program.TransactionError.
func (c *SolanaClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.cfg.Commitment,
	})
	if err != nil {
		if txErr := simulationError(err); txErr != nil {
			return solana.Signature{}, txErr
		}
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	return sig, nil
}

func (c *SolanaClient) GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error) {
	res, err := c.rpc.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.cfg.Commitment,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", account, err)
	}
	if res == nil || res.Value == nil {
		return nil, ErrAccountNotFound
	}
	return res.Value.Data.GetBinary(), nil
}

// Close releases the underlying HTTP transport.
func (c *SolanaClient) Close() error {
	return c.rpc.Close()
}

// simulationError extracts the structured error a node attaches to a failed preflight.
func simulationError(err error) *program.TransactionError {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return nil
	}
	data, ok := rpcErr.Data.(map[string]interface{})
	if !ok {
		return nil
	}
	var logs []string
	if rawLogs, ok := data["logs"].([]interface{}); ok {
		for _, l := range rawLogs {
			if s, ok := l.(string); ok {
				logs = append(logs, s)
			}
		}
	}
	txErr := program.ParseTransactionError(data["err"], logs)
	if txErr == nil {
		return nil
	}
	txErr.Message = rpcErr.Message
	return txErr
}
