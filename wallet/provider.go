// Package wallet provides the wallet context for a session: which wallets
// are offered, which one is connected, and signing with it.
package wallet

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/soltip/soltip/logx"
)

var (
	ErrNotConnected  = errors.New("wallet not connected")
	ErrUnknownWallet = errors.New("unknown wallet")
	ErrNoWallets     = errors.New("no wallet adapters configured")
)

type Provider struct {
	endpoint string
	adapters []Adapter

	mu       sync.RWMutex
	selected string
	key      solana.PrivateKey
	onChange func()
}

type Option func(p *Provider)

// WithDefault preselects the named wallet instead of the first configured one.
func WithDefault(name string) Option {
	return func(p *Provider) {
		if name != "" {
			p.selected = name
		}
	}
}

// WithOnChange registers a callback fired after every connect or disconnect.
func WithOnChange(fn func()) Option {
	return func(p *Provider) {
		p.onChange = fn
	}
}

func NewProvider(endpoint string, adapters []Adapter, opts ...Option) *Provider {
	p := &Provider{
		endpoint: endpoint,
		adapters: adapters,
	}
	if len(adapters) > 0 {
		p.selected = adapters[0].Name()
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// AutoConnect connects the selected wallet, logging instead of failing.
func (p *Provider) AutoConnect(ctx context.Context) {
	if err := p.Connect(ctx); err != nil {
		logx.Warn("WALLET", "auto-connect failed: ", err)
	}
}

// Endpoint is the cluster the wallet signs for.
func (p *Provider) Endpoint() string {
	return p.endpoint
}

// Wallets lists the configured wallet names in order.
func (p *Provider) Wallets() []string {
	names := make([]string, 0, len(p.adapters))
	for _, a := range p.adapters {
		names = append(names, a.Name())
	}
	return names
}

func (p *Provider) Selected() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.selected
}

// Select picks the wallet used by the next Connect. It disconnects the current one.
func (p *Provider) Select(name string) error {
	if p.adapter(name) == nil {
		return errors.Wrap(ErrUnknownWallet, name)
	}
	p.mu.Lock()
	changed := p.selected != name || p.key != nil
	p.selected = name
	p.key = nil
	p.mu.Unlock()
	if changed {
		p.notify()
	}
	return nil
}

func (p *Provider) Connect(ctx context.Context) error {
	if len(p.adapters) == 0 {
		return ErrNoWallets
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	name := p.Selected()
	a := p.adapter(name)
	if a == nil {
		return errors.Wrap(ErrUnknownWallet, name)
	}
	key, err := a.Unlock()
	if err != nil {
		return errors.Wrapf(err, "connect %s", name)
	}

	p.mu.Lock()
	p.key = key
	p.mu.Unlock()

	logx.Info("WALLET", "connected ", name, " as ", key.PublicKey().String())
	p.notify()
	return nil
}

func (p *Provider) Disconnect() {
	p.mu.Lock()
	wasConnected := p.key != nil
	p.key = nil
	p.mu.Unlock()
	if wasConnected {
		logx.Info("WALLET", "disconnected ", p.Selected())
		p.notify()
	}
}

func (p *Provider) Connected() bool {
	_, ok := p.PublicKey()
	return ok
}

// PublicKey returns the connected identity.
func (p *Provider) PublicKey() (solana.PublicKey, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.key == nil {
		return solana.PublicKey{}, false
	}
	return p.key.PublicKey(), true
}

// SignTransaction adds the connected wallet's signature to tx.
func (p *Provider) SignTransaction(ctx context.Context, tx *solana.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.RLock()
	key := p.key
	p.mu.RUnlock()
	if key == nil {
		return ErrNotConnected
	}

	pub := key.PublicKey()
	_, err := tx.Sign(func(k solana.PublicKey) *solana.PrivateKey {
		if k.Equals(pub) {
			return &key
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "sign transaction")
	}
	return nil
}

func (p *Provider) adapter(name string) Adapter {
	for _, a := range p.adapters {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

func (p *Provider) notify() {
	if p.onChange != nil {
		p.onChange()
	}
}
