package wallet

import (
	"context"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) solana.PrivateKey {
	t.Helper()
	k, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return k
}

func TestKeygenFileAdapter_RoundTrip(t *testing.T) {
	key := newKey(t)
	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, WriteKeygenFile(path, key))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	a, err := NewAdapter("local", KindKeygenFile, path)
	require.NoError(t, err)
	got, err := a.Unlock()
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), got.PublicKey())
}

func TestKeygenFileAdapter_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1,2,300]`), 0o600))
	a, _ := NewAdapter("bad", KindKeygenFile, path)
	_, err := a.Unlock()
	assert.Error(t, err)

	a, _ = NewAdapter("missing", KindKeygenFile, filepath.Join(t.TempDir(), "nope.json"))
	_, err = a.Unlock()
	assert.Error(t, err)
}

func TestBase58Adapter(t *testing.T) {
	key := newKey(t)

	a, err := NewAdapter("phantom", KindBase58, key.String())
	require.NoError(t, err)
	got, err := a.Unlock()
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), got.PublicKey())

	path := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(path, []byte(key.String()+"\n"), 0o600))
	a, _ = NewAdapter("phantom-file", KindBase58, path)
	got, err = a.Unlock()
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), got.PublicKey())
}

func TestHexSeedAdapter(t *testing.T) {
	key := newKey(t)
	seed := key[:32]

	a, _ := NewAdapter("seed", KindHexSeed, hex.EncodeToString(seed))
	got, err := a.Unlock()
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), got.PublicKey())

	// DER-wrapped seed, as produced by openssl
	der := append([]byte{0x30, 0x2e, 0x02, 0x01, 0x00, 0x30, 0x05, 0x06, 0x03, 0x2b, 0x65, 0x70, 0x04, 0x22, 0x04, 0x20}, seed...)
	a, _ = NewAdapter("der", KindHexSeed, hex.EncodeToString(der))
	got, err = a.Unlock()
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), got.PublicKey())

	a, _ = NewAdapter("short", KindHexSeed, "abcd")
	_, err = a.Unlock()
	assert.True(t, errors.Is(err, ErrUnsupportedKey))
}

func TestNewAdapter_UnknownKind(t *testing.T) {
	_, err := NewAdapter("x", "ledger", "")
	assert.Error(t, err)
}

func TestProvider_ConnectDisconnect(t *testing.T) {
	key := newKey(t)
	changes := 0
	p := NewProvider("https://api.devnet.solana.com",
		[]Adapter{&Base58Adapter{name: "phantom", source: key.String()}},
		WithOnChange(func() { changes++ }),
	)

	assert.False(t, p.Connected())
	assert.Equal(t, []string{"phantom"}, p.Wallets())
	assert.Equal(t, "phantom", p.Selected())

	require.NoError(t, p.Connect(context.Background()))
	pub, ok := p.PublicKey()
	require.True(t, ok)
	assert.Equal(t, key.PublicKey(), pub)

	p.Disconnect()
	assert.False(t, p.Connected())
	p.Disconnect()
	assert.Equal(t, 2, changes)
}

func TestProvider_Select(t *testing.T) {
	k1, k2 := newKey(t), newKey(t)
	p := NewProvider("", []Adapter{
		&Base58Adapter{name: "a", source: k1.String()},
		&Base58Adapter{name: "b", source: k2.String()},
	}, WithDefault("b"))
	assert.Equal(t, "b", p.Selected())

	require.NoError(t, p.Connect(context.Background()))
	pub, _ := p.PublicKey()
	assert.Equal(t, k2.PublicKey(), pub)

	require.NoError(t, p.Select("a"))
	assert.False(t, p.Connected())

	assert.ErrorIs(t, p.Select("c"), ErrUnknownWallet)
}

func TestProvider_NoWallets(t *testing.T) {
	p := NewProvider("", nil)
	assert.ErrorIs(t, p.Connect(context.Background()), ErrNoWallets)
	p.AutoConnect(context.Background())
	assert.False(t, p.Connected())
}

func TestProvider_SignTransaction(t *testing.T) {
	key := newKey(t)
	p := NewProvider("", []Adapter{&Base58Adapter{name: "phantom", source: key.String()}})

	ix := solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(key.PublicKey(), true, true),
	}, []byte{2, 0, 0, 0})
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{7}, solana.TransactionPayer(key.PublicKey()))
	require.NoError(t, err)

	assert.ErrorIs(t, p.SignTransaction(context.Background(), tx), ErrNotConnected)

	require.NoError(t, p.Connect(context.Background()))
	require.NoError(t, p.SignTransaction(context.Background(), tx))
	require.Len(t, tx.Signatures, 1)
	assert.NotEqual(t, solana.Signature{}, tx.Signatures[0])
}
