package program

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) solana.PublicKey {
	t.Helper()
	k, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return k.PublicKey()
}

func TestTipAccountAddress_Deterministic(t *testing.T) {
	d := Default()
	tipper := newKey(t)

	a1, bump, err := d.TipAccountAddress(tipper)
	require.NoError(t, err)
	a2, _, err := d.TipAccountAddress(tipper)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)

	recreated, err := solana.CreateProgramAddress(
		[][]byte{[]byte(TipAccountSeed), tipper.Bytes(), {bump}},
		d.ID(),
	)
	require.NoError(t, err)
	assert.Equal(t, a1, recreated)

	other, _, err := d.TipAccountAddress(newKey(t))
	require.NoError(t, err)
	assert.NotEqual(t, a1, other)
}

func TestParse(t *testing.T) {
	d, err := Parse(DefaultProgramID)
	require.NoError(t, err)
	assert.Equal(t, DefaultProgramID, d.ID().String())

	_, err = Parse("not-a-key")
	assert.Error(t, err)
}

func TestInstructionDiscriminator(t *testing.T) {
	assert.Equal(t,
		[8]byte{175, 175, 109, 31, 13, 152, 155, 237},
		InstructionDiscriminator(InstructionInitialize),
	)
	sum := sha256.Sum256([]byte("global:send_tip"))
	got := InstructionDiscriminator(InstructionSendTip)
	assert.Equal(t, sum[:8], got[:])
}

func TestInitializeInstruction(t *testing.T) {
	d := Default()
	accs := TipAccounts{TipAccount: newKey(t), Tipper: newKey(t), Creator: newKey(t)}

	ix := d.Initialize(accs)
	assert.Equal(t, d.ID(), ix.ProgramID())

	metas := ix.Accounts()
	require.Len(t, metas, 4)
	assert.Equal(t, accs.TipAccount, metas[0].PublicKey)
	assert.True(t, metas[0].IsWritable)
	assert.False(t, metas[0].IsSigner)
	assert.True(t, metas[1].IsSigner)
	assert.False(t, metas[2].IsWritable)
	assert.Equal(t, solana.SystemProgramID, metas[3].PublicKey)

	data, err := ix.Data()
	require.NoError(t, err)
	disc := InstructionDiscriminator(InstructionInitialize)
	assert.Equal(t, disc[:], data)
}

func TestSendTipInstruction(t *testing.T) {
	d := Default()
	accs := TipAccounts{TipAccount: newKey(t), Tipper: newKey(t), Creator: newKey(t)}

	ix, err := d.SendTip(accs, 1_500_000_000)
	require.NoError(t, err)

	metas := ix.Accounts()
	require.Len(t, metas, 4)
	assert.True(t, metas[2].IsWritable, "creator receives lamports")
	assert.Equal(t, accs.Creator, metas[2].PublicKey)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 16)
	disc := InstructionDiscriminator(InstructionSendTip)
	assert.Equal(t, disc[:], data[:8])
	assert.Equal(t, uint64(1_500_000_000), binary.LittleEndian.Uint64(data[8:]))
}

func TestDecodeTipAccount(t *testing.T) {
	tipper, creator := newKey(t), newKey(t)
	disc := AccountDiscriminator("TipAccount")

	data := append([]byte{}, disc[:]...)
	data = append(data, tipper.Bytes()...)
	data = append(data, creator.Bytes()...)
	data = binary.LittleEndian.AppendUint64(data, 42)

	acc, err := DecodeTipAccount(data)
	require.NoError(t, err)
	assert.Equal(t, tipper, acc.Tipper)
	assert.Equal(t, creator, acc.Creator)
	assert.Equal(t, uint64(42), acc.TotalTips)

	_, err = DecodeTipAccount(data[:20])
	assert.ErrorIs(t, err, ErrNotTipAccount)

	bad := append([]byte{}, data...)
	bad[0] ^= 0xff
	_, err = DecodeTipAccount(bad)
	assert.ErrorIs(t, err, ErrNotTipAccount)
}

func decodeErr(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestParseTransactionError_AccountInUse(t *testing.T) {
	te := ParseTransactionError(decodeErr(t, `{"InstructionError":[0,{"Custom":0}]}`), nil)
	require.NotNil(t, te)
	assert.Equal(t, 0, te.InstructionIndex)
	assert.True(t, IsAccountInUse(te))
	assert.True(t, IsAccountInUse(fmt.Errorf("initialize: %w", te)))
}

func TestParseTransactionError_LogFallback(t *testing.T) {
	logs := []string{
		"Program 11111111111111111111111111111111 invoke [2]",
		"Allocate: account Address { address: 9xQe, base: None } already in use",
	}
	assert.True(t, IsAccountInUse(ParseTransactionError(nil, logs)))
}

func TestParseTransactionError_ProgramCode(t *testing.T) {
	te := ParseTransactionError(decodeErr(t, `{"InstructionError":[0,{"Custom":6001}]}`), nil)
	code, ok := te.Code()
	require.True(t, ok)
	assert.Equal(t, ErrCannotTipSelf, code)
	assert.Equal(t, "You cannot tip yourself", te.Error())
	assert.True(t, errors.Is(te, ErrCannotTipSelf))
	assert.False(t, errors.Is(te, ErrOverflow))
	assert.False(t, IsAccountInUse(te))
}

func TestParseTransactionError_Other(t *testing.T) {
	te := ParseTransactionError("BlockhashNotFound", nil)
	assert.Equal(t, "transaction failed: BlockhashNotFound", te.Error())
	assert.False(t, IsAccountInUse(te))

	te = ParseTransactionError(decodeErr(t, `{"InstructionError":[1,"InvalidAccountData"]}`), nil)
	assert.Equal(t, 1, te.InstructionIndex)
	assert.Equal(t, "instruction 1 failed: InvalidAccountData", te.Error())

	assert.Nil(t, ParseTransactionError(nil, nil))
	assert.False(t, IsAccountInUse(errors.New("already in use")))
}

func TestParseTransactionError_JSONNumber(t *testing.T) {
	raw := map[string]interface{}{
		"InstructionError": []interface{}{json.Number("0"), map[string]interface{}{"Custom": json.Number("6002")}},
	}
	te := ParseTransactionError(raw, nil)
	assert.True(t, errors.Is(te, ErrInvalidAmount))
}
