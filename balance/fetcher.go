// Package balance tracks the balance of the address currently shown on the
// page, refetching whenever that address changes.
package balance

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/soltip/soltip/client"
	"github.com/soltip/soltip/common"
	"github.com/soltip/soltip/exception"
	"github.com/soltip/soltip/logx"
	"github.com/soltip/soltip/monitoring"
)

const LoadingMessage = "Loading balance..."

type Source interface {
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
}

// View is what the balance card displays.
type View struct {
	Address string          `json:"address"`
	Loaded  bool            `json:"loaded"`
	Balance decimal.Decimal `json:"balance"`
}

// Display renders the balance line, e.g. "Balance: 1.50 SOL".
func (v View) Display() string {
	if !v.Loaded {
		return LoadingMessage
	}
	return fmt.Sprintf("Balance: %s SOL", v.Balance.StringFixed(2))
}

type Fetcher struct {
	src      Source
	onChange func()

	mu      sync.Mutex
	address string
	gen     uint64
	view    View
}

func NewFetcher(src Source, onChange func()) *Fetcher {
	return &Fetcher{src: src, onChange: onChange}
}

// Watch points the fetcher at address and fetches its balance in the
// background. The returned channel closes once that fetch has settled.
// Watching the current address again does nothing.
func (f *Fetcher) Watch(ctx context.Context, address string) <-chan struct{} {
	done := make(chan struct{})

	f.mu.Lock()
	if address == f.address {
		f.mu.Unlock()
		close(done)
		return done
	}
	f.address = address
	f.gen++
	gen := f.gen
	f.view = View{Address: address}
	f.mu.Unlock()
	f.notify()

	if address == "" {
		close(done)
		return done
	}

	exception.SafeGo("balance-fetch", func() {
		defer close(done)
		sol, err := Fetch(ctx, f.src, address)
		if err != nil {
			// stays on the loading placeholder
			logx.Error("BALANCE", "Error fetching balance: ", err)
			return
		}
		f.mu.Lock()
		if gen != f.gen {
			f.mu.Unlock()
			return
		}
		f.view = View{Address: address, Loaded: true, Balance: sol}
		f.mu.Unlock()
		f.notify()
	})
	return done
}

func (f *Fetcher) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

func (f *Fetcher) notify() {
	if f.onChange != nil {
		f.onChange()
	}
}

// Fetch looks up the balance of address once, in SOL.
func Fetch(ctx context.Context, src Source, address string) (decimal.Decimal, error) {
	pub, err := common.ParseAddress(address)
	if err != nil {
		monitoring.RecordBalanceFetch(false)
		return decimal.Zero, err
	}
	lamports, err := src.GetBalance(ctx, pub)
	if err != nil {
		monitoring.RecordBalanceFetch(false)
		return decimal.Zero, err
	}
	monitoring.RecordBalanceFetch(true)
	return client.LamportsToSOL(lamports), nil
}
