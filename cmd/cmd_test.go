package cmd

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/soltip/soltip/client"
	"github.com/soltip/soltip/program"
	"github.com/soltip/soltip/store"
	"github.com/soltip/soltip/tip"
	"github.com/soltip/soltip/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type balanceSource map[string]uint64

func (b balanceSource) GetBalance(_ context.Context, account solana.PublicKey) (uint64, error) {
	v, ok := b[account.String()]
	if !ok {
		return 0, errors.New("node unavailable")
	}
	return v, nil
}

func newAddress(t *testing.T) string {
	t.Helper()
	k, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return k.PublicKey().String()
}

func TestPrintBalances(t *testing.T) {
	tipper, creator := newAddress(t), newAddress(t)
	src := balanceSource{tipper: 2_250_000_000}

	var out bytes.Buffer
	printBalances(context.Background(), &out, src, []labelledAddress{
		{"Tipper", tipper},
		{"Creator", creator},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Tipper "+tipper, lines[0])
	assert.Equal(t, "  Balance: 2.25 SOL", lines[1])
	assert.Equal(t, "Creator "+creator, lines[2])
	assert.Equal(t, "  Loading balance...", lines[3])
}

func TestBannerPrinter_DedupesAndSkipsIdle(t *testing.T) {
	var out bytes.Buffer
	p := &bannerPrinter{out: &out}

	p.print(tip.Banner{Status: tip.StatusLoading, Message: tip.LoadingMessage})
	p.print(tip.Banner{Status: tip.StatusLoading, Message: tip.LoadingMessage})
	p.print(tip.Banner{Status: tip.StatusIdle})
	p.print(tip.Banner{Status: tip.StatusSuccess, Message: "Tip of 1 SOL sent successfully!"})

	assert.Equal(t, "[loading] Processing your tip...\n[success] Tip of 1 SOL sent successfully!\n", out.String())
}

func TestWriteReceipts(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeReceipts(&out, nil))
	assert.Equal(t, "No receipts.\n", out.String())

	out.Reset()
	require.NoError(t, writeReceipts(&out, []*store.Receipt{{
		Signature:   "5sig",
		Tipper:      "alice",
		Creator:     "bob",
		Lamports:    1_500_000_000,
		ConfirmedAt: time.Now(),
	}}))
	assert.Contains(t, out.String(), "CONFIRMED")
	assert.Contains(t, out.String(), "1.5 SOL")
	assert.Contains(t, out.String(), "5sig")
}

func TestNewWallet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id.json")
	var out bytes.Buffer
	require.NoError(t, newWallet(&out, WalletNewConfig{Output: path}))
	assert.Contains(t, out.String(), "Public key: ")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	adapter, err := wallet.NewAdapter("new", wallet.KindKeygenFile, path)
	require.NoError(t, err)
	key, err := adapter.Unlock()
	require.NoError(t, err)
	assert.Contains(t, out.String(), key.PublicKey().String())

	assert.Error(t, newWallet(&out, WalletNewConfig{Output: path}))
	assert.NoError(t, newWallet(&out, WalletNewConfig{Output: path, Force: true}))
}

func TestLoadSettings_Defaults(t *testing.T) {
	globalConfig = GlobalConfig{}
	s, err := loadSettings()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, s.tuning.StatusReset())

	prog, err := s.program()
	require.NoError(t, err)
	assert.Equal(t, "8ubPzisSkpZ7NMcgK72MZUYfx4XcTL9wh9QaBtanGpLP", prog.ID().String())

	adapters, err := s.adapters("/tmp/keypair.json")
	require.NoError(t, err)
	require.Len(t, adapters, 1)
	assert.Equal(t, keypairWallet, adapters[0].Name())
}

type accountNetwork struct {
	client.Network
	accounts map[solana.PublicKey][]byte
	err      error
}

func (n *accountNetwork) GetAccountData(_ context.Context, account solana.PublicKey) ([]byte, error) {
	if n.err != nil {
		return nil, n.err
	}
	data, ok := n.accounts[account]
	if !ok {
		return nil, client.ErrAccountNotFound
	}
	return data, nil
}

func TestPrintTipAccount(t *testing.T) {
	pda := solana.MustPublicKeyFromBase58(newAddress(t))
	creator := solana.MustPublicKeyFromBase58(newAddress(t))
	tipper := solana.MustPublicKeyFromBase58(newAddress(t))

	var out bytes.Buffer
	net := &accountNetwork{accounts: map[solana.PublicKey][]byte{}}
	require.NoError(t, printTipAccount(context.Background(), &out, net, pda))
	assert.Equal(t, "Tip account not initialized yet; it is created with your first tip.\n", out.String())

	disc := program.AccountDiscriminator("TipAccount")
	data := append([]byte{}, disc[:]...)
	data = append(data, tipper.Bytes()...)
	data = append(data, creator.Bytes()...)
	data = binary.LittleEndian.AppendUint64(data, 1_500_000_000)
	net.accounts[pda] = data

	out.Reset()
	require.NoError(t, printTipAccount(context.Background(), &out, net, pda))
	assert.Equal(t, "Last creator: "+creator.String()+"\nTotal tips:  1.5 SOL (1500000000 lamports)\n", out.String())

	net.accounts[pda] = data[:20]
	assert.ErrorIs(t, printTipAccount(context.Background(), &out, net, pda), program.ErrNotTipAccount)

	net.err = errors.New("node unavailable")
	assert.ErrorContains(t, printTipAccount(context.Background(), &out, net, pda), "failed to fetch tip account")
}
