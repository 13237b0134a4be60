// Package program describes the on-chain tipping program soltip talks to:
// its address, instruction encodings, account layouts and error codes.
// Nothing here touches the network.
package program

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	Name = "minter"

	// DefaultProgramID is the devnet deployment of the tipping program.
	DefaultProgramID = "8ubPzisSkpZ7NMcgK72MZUYfx4XcTL9wh9QaBtanGpLP"

	// TipAccountSeed prefixes the tipper key when deriving the tip account address.
	TipAccountSeed = "tip_account"
)

// Descriptor binds the program interface to a deployed program ID.
type Descriptor struct {
	id solana.PublicKey
}

func New(id solana.PublicKey) Descriptor {
	return Descriptor{id: id}
}

// Default returns the descriptor for DefaultProgramID.
func Default() Descriptor {
	return New(solana.MustPublicKeyFromBase58(DefaultProgramID))
}

// Parse builds a descriptor from a base58 program ID.
func Parse(id string) (Descriptor, error) {
	pk, err := solana.PublicKeyFromBase58(id)
	if err != nil {
		return Descriptor{}, fmt.Errorf("invalid program id %q: %w", id, err)
	}
	return New(pk), nil
}

func (d Descriptor) ID() solana.PublicKey {
	return d.id
}

// TipAccountAddress derives the per-tipper account address and its bump seed.
func (d Descriptor) TipAccountAddress(tipper solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{[]byte(TipAccountSeed), tipper.Bytes()},
		d.id,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive tip account: %w", err)
	}
	return addr, bump, nil
}
