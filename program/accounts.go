package program

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// TipAccountSize is the on-chain size of a TipAccount including its discriminator.
const TipAccountSize = discriminatorLength + 32 + 32 + 8

var ErrNotTipAccount = errors.New("account data is not a TipAccount")

// TipAccount is the program-owned record of cumulative tips from one tipper.
type TipAccount struct {
	Tipper    solana.PublicKey
	Creator   solana.PublicKey
	TotalTips uint64
}

// AccountDiscriminator is sha256("account:<Name>")[:8].
func AccountDiscriminator(name string) [discriminatorLength]byte {
	return discriminator("account:" + name)
}

// DecodeTipAccount parses raw account data owned by the program.
func DecodeTipAccount(data []byte) (*TipAccount, error) {
	if len(data) < TipAccountSize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrNotTipAccount, len(data), TipAccountSize)
	}
	disc := AccountDiscriminator("TipAccount")
	if !bytes.Equal(data[:discriminatorLength], disc[:]) {
		return nil, fmt.Errorf("%w: discriminator mismatch", ErrNotTipAccount)
	}
	var acc TipAccount
	if err := bin.NewBorshDecoder(data[discriminatorLength:]).Decode(&acc); err != nil {
		return nil, fmt.Errorf("decode TipAccount: %w", err)
	}
	return &acc, nil
}
