package wallet

import (
	"crypto/ed25519"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/soltip/soltip/jsonx"
)

const (
	KindKeygenFile = "keygen-file"
	KindBase58     = "base58"
	KindHexSeed    = "hex-seed"
)

var ErrUnsupportedKey = errors.New("wallet: unsupported private key length")

// Adapter unlocks key material for one configured wallet.
type Adapter interface {
	Name() string
	Kind() string
	Unlock() (solana.PrivateKey, error)
}

// NewAdapter builds an adapter from its configured kind. source is a file path
// for keygen-file and a key (or a path to a file holding it) for the others.
func NewAdapter(name, kind, source string) (Adapter, error) {
	switch kind {
	case KindKeygenFile:
		return &KeygenFileAdapter{name: name, path: expandHome(source)}, nil
	case KindBase58:
		return &Base58Adapter{name: name, source: source}, nil
	case KindHexSeed:
		return &HexSeedAdapter{name: name, source: source}, nil
	default:
		return nil, errors.Errorf("wallet %q: unknown adapter kind %q", name, kind)
	}
}

// KeygenFileAdapter reads a solana-keygen JSON byte array.
type KeygenFileAdapter struct {
	name string
	path string
}

func (a *KeygenFileAdapter) Name() string { return a.name }
func (a *KeygenFileAdapter) Kind() string { return KindKeygenFile }

func (a *KeygenFileAdapter) Unlock() (solana.PrivateKey, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, errors.Wrapf(err, "read keygen file %s", a.path)
	}
	var nums []int
	if err := jsonx.Unmarshal(data, &nums); err != nil {
		return nil, errors.Wrapf(err, "parse keygen file %s", a.path)
	}
	raw := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return nil, errors.Errorf("parse keygen file %s: byte %d out of range", a.path, i)
		}
		raw[i] = byte(n)
	}
	return fromBytes(raw)
}

// Base58Adapter takes a base58 secret key as exported by browser wallets.
type Base58Adapter struct {
	name   string
	source string
}

func (a *Base58Adapter) Name() string { return a.name }
func (a *Base58Adapter) Kind() string { return KindBase58 }

func (a *Base58Adapter) Unlock() (solana.PrivateKey, error) {
	secret, err := readSecret(a.source)
	if err != nil {
		return nil, err
	}
	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, errors.Wrap(err, "decode base58 secret key")
	}
	return fromBytes(raw)
}

// HexSeedAdapter takes a hex ed25519 seed, a hex 64 byte key, or a DER
// encoded key whose last 32 bytes are the seed.
type HexSeedAdapter struct {
	name   string
	source string
}

func (a *HexSeedAdapter) Name() string { return a.name }
func (a *HexSeedAdapter) Kind() string { return KindHexSeed }

func (a *HexSeedAdapter) Unlock() (solana.PrivateKey, error) {
	secret, err := readSecret(a.source)
	if err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(secret, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "decode hex key")
	}
	if len(raw) > ed25519.SeedSize && len(raw) != ed25519.PrivateKeySize {
		raw = raw[len(raw)-ed25519.SeedSize:]
	}
	return fromBytes(raw)
}

// readSecret returns source itself, or the contents of the file it names.
// expandHome resolves a leading "~/" the way solana-keygen paths are written.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func readSecret(source string) (string, error) {
	if source == "" {
		return "", errors.New("wallet: empty key source")
	}
	source = expandHome(source)
	if info, err := os.Stat(source); err == nil && !info.IsDir() {
		data, err := os.ReadFile(source)
		if err != nil {
			return "", errors.Wrapf(err, "read key file %s", source)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.TrimSpace(source), nil
}

func fromBytes(raw []byte) (solana.PrivateKey, error) {
	switch len(raw) {
	case ed25519.SeedSize:
		return solana.PrivateKey(ed25519.NewKeyFromSeed(raw)), nil
	case ed25519.PrivateKeySize:
		derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
		if !derived.Equal(ed25519.PrivateKey(raw)) {
			return nil, errors.New("wallet: public half does not match seed")
		}
		return solana.PrivateKey(raw), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedKey, "got %d bytes", len(raw))
	}
}

// WriteKeygenFile stores key as a solana-keygen JSON byte array readable only by the owner.
func WriteKeygenFile(path string, key solana.PrivateKey) error {
	nums := make([]int, len(key))
	for i, b := range key {
		nums[i] = int(b)
	}
	data, err := jsonx.Marshal(nums)
	if err != nil {
		return errors.Wrap(err, "encode keygen file")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrapf(err, "write keygen file %s", path)
	}
	return nil
}
