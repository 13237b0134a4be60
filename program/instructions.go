package program

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const discriminatorLength = 8

const (
	InstructionInitialize = "initialize"
	InstructionSendTip    = "send_tip"
)

// InstructionDiscriminator is the 8 byte prefix identifying an instruction
// of an Anchor program: sha256("global:<name>")[:8].
func InstructionDiscriminator(name string) [discriminatorLength]byte {
	return discriminator("global:" + name)
}

func discriminator(preimage string) [discriminatorLength]byte {
	var out [discriminatorLength]byte
	sum := sha256.Sum256([]byte(preimage))
	copy(out[:], sum[:discriminatorLength])
	return out
}

// TipAccounts are the accounts shared by both instructions.
type TipAccounts struct {
	TipAccount solana.PublicKey
	Tipper     solana.PublicKey
	Creator    solana.PublicKey
}

type sendTipArgs struct {
	Amount uint64
}

// Initialize creates the tipper's tip account. It fails on chain when the
// account already exists.
func (d Descriptor) Initialize(accs TipAccounts) solana.Instruction {
	disc := InstructionDiscriminator(InstructionInitialize)
	return solana.NewInstruction(
		d.id,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(accs.TipAccount, true, false),
			solana.NewAccountMeta(accs.Tipper, true, true),
			solana.NewAccountMeta(accs.Creator, false, false),
			solana.NewAccountMeta(solana.SystemProgramID, false, false),
		},
		disc[:],
	)
}

// SendTip transfers lamports from the tipper to the creator and adds them
// to the tip account total.
func (d Descriptor) SendTip(accs TipAccounts, lamports uint64) (solana.Instruction, error) {
	disc := InstructionDiscriminator(InstructionSendTip)
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	if err := bin.NewBorshEncoder(buf).Encode(sendTipArgs{Amount: lamports}); err != nil {
		return nil, fmt.Errorf("encode send_tip args: %w", err)
	}
	return solana.NewInstruction(
		d.id,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(accs.TipAccount, true, false),
			solana.NewAccountMeta(accs.Tipper, true, true),
			solana.NewAccountMeta(accs.Creator, true, false),
			solana.NewAccountMeta(solana.SystemProgramID, false, false),
		},
		buf.Bytes(),
	), nil
}
