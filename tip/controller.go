package tip

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/soltip/soltip/client"
	"github.com/soltip/soltip/common"
	"github.com/soltip/soltip/history"
	"github.com/soltip/soltip/logx"
	"github.com/soltip/soltip/monitoring"
	"github.com/soltip/soltip/program"
	"github.com/soltip/soltip/store"
)

const DefaultResetDelay = 3 * time.Second

var (
	ErrWalletNotConnected = errors.New("Please connect your wallet first")
	ErrInvalidCreator     = errors.New("Invalid creator address")
	ErrSelfTip            = errors.New("You cannot tip yourself")
	ErrSubmissionInFlight = errors.New("a tip is already being processed")
)

// Wallet is the signing side of the wallet provider.
type Wallet interface {
	PublicKey() (solana.PublicKey, bool)
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// ReceiptSink persists confirmed tips.
type ReceiptSink interface {
	Put(r *store.Receipt) error
}

type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d, like time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

type Option func(*Controller)

func WithResetDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.resetDelay = d
		}
	}
}

func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Controller) {
		c.afterFunc = fn
	}
}

func WithOnChange(fn func()) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

func WithReceiptSink(sink ReceiptSink) Option {
	return func(c *Controller) {
		c.receipts = sink
	}
}

// State is a point-in-time copy of the form.
type State struct {
	Creator    string           `json:"creator"`
	Amount     string           `json:"amount"`
	Banner     Banner           `json:"banner"`
	Submitting bool             `json:"submitting"`
	History    []history.Record `json:"history"`
}

// Controller owns the tip form and runs submissions against the cluster.
type Controller struct {
	wallet   Wallet
	network  client.Network
	program  program.Descriptor
	history  *history.History
	receipts ReceiptSink

	resetDelay time.Duration
	afterFunc  AfterFunc
	onChange   func()

	mu       sync.Mutex
	creator  string
	amount   string
	banner   Banner
	gen      uint64
	timer    Timer
	inFlight bool
}

func NewController(wallet Wallet, network client.Network, prog program.Descriptor, hist *history.History, opts ...Option) *Controller {
	if hist == nil {
		hist = history.New()
	}
	c := &Controller{
		wallet:     wallet,
		network:    network,
		program:    prog,
		history:    hist,
		resetDelay: DefaultResetDelay,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) SetCreator(creator string) {
	c.mu.Lock()
	c.creator = creator
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) SetAmount(amount string) {
	c.mu.Lock()
	c.amount = amount
	c.mu.Unlock()
	c.notify()
}

// Form returns the current creator and amount inputs.
func (c *Controller) Form() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creator, c.amount
}

func (c *Controller) Banner() Banner {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.banner
}

func (c *Controller) History() *history.History {
	return c.history
}

func (c *Controller) State() State {
	c.mu.Lock()
	s := State{
		Creator:    c.creator,
		Amount:     c.amount,
		Banner:     c.banner,
		Submitting: c.inFlight,
	}
	c.mu.Unlock()
	s.History = c.history.Records()
	return s
}

type request struct {
	tipper   solana.PublicKey
	creator  solana.PublicKey
	input    string
	amount   decimal.Decimal
	lamports uint64
}

// Submit validates the form and, when valid, runs the tip flow to
// confirmation. It returns the failure that was put on the banner.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	c.inFlight = true
	creator, amount := c.creator, c.amount
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
		c.notify()
	}()

	req, reason, err := c.validate(creator, amount)
	if err != nil {
		monitoring.RecordFailedTip(reason)
		c.setStatus(StatusError, err.Error())
		return err
	}

	monitoring.IncreaseSubmittedTipCount()
	c.setStatus(StatusLoading, LoadingMessage)
	started := time.Now()

	sig, tipAccount, reason, err := c.run(ctx, req)
	if err != nil {
		logx.Error("TIP", fmt.Sprintf("tip of %s SOL from %s to %s failed: %v", req.input, req.tipper, req.creator, err))
		monitoring.RecordFailedTip(reason)
		c.setStatus(StatusError, "Error: "+err.Error())
		return err
	}

	confirmedAt := time.Now()
	monitoring.IncreaseConfirmedTipCount()
	monitoring.RecordTimeToConfirmation(confirmedAt.Sub(started))
	logx.Info("TIP", fmt.Sprintf("tip of %s SOL to %s confirmed: %s", req.input, req.creator, sig))

	c.history.Append(history.Record{Amount: req.amount, Timestamp: confirmedAt, Signature: sig.String()})
	c.saveReceipt(req, sig, tipAccount, confirmedAt)

	c.mu.Lock()
	c.amount = ""
	c.mu.Unlock()
	c.setStatus(StatusSuccess, fmt.Sprintf("Tip of %s SOL sent successfully!", req.input))
	return nil
}

func (c *Controller) validate(creator, amount string) (request, monitoring.TipFailureReason, error) {
	tipper, ok := c.wallet.PublicKey()
	if !ok {
		return request{}, monitoring.TipWalletNotConnected, ErrWalletNotConnected
	}
	creatorKey, err := common.ParseAddress(creator)
	if err != nil {
		return request{}, monitoring.TipInvalidCreator, ErrInvalidCreator
	}
	if creatorKey.Equals(tipper) {
		return request{}, monitoring.TipSelf, ErrSelfTip
	}
	sol, lamports, err := ParseAmount(amount)
	if err != nil {
		return request{}, monitoring.TipInvalidAmount, err
	}
	return request{
		tipper:   tipper,
		creator:  creatorKey,
		input:    strings.TrimSpace(amount),
		amount:   sol,
		lamports: lamports,
	}, "", nil
}

// run executes the on-chain steps in order and stops at the first failure
// that is not an already-initialized tip account.
func (c *Controller) run(ctx context.Context, req request) (solana.Signature, solana.PublicKey, monitoring.TipFailureReason, error) {
	tipAccount, _, err := c.program.TipAccountAddress(req.tipper)
	if err != nil {
		return solana.Signature{}, solana.PublicKey{}, monitoring.TipFailedUnknown, err
	}
	accs := program.TipAccounts{TipAccount: tipAccount, Tipper: req.tipper, Creator: req.creator}

	if _, err := c.sendAndConfirm(ctx, req.tipper, c.program.Initialize(accs)); err != nil {
		if !program.IsAccountInUse(err) {
			return solana.Signature{}, tipAccount, monitoring.TipInitFailed, err
		}
		logx.Debug("TIP", "tip account ", tipAccount.String(), " already initialized")
		monitoring.RecordTipAccountInit(monitoring.TipAccountExisting)
	} else {
		logx.Info("TIP", "initialized tip account ", tipAccount.String())
		monitoring.RecordTipAccountInit(monitoring.TipAccountCreated)
	}

	ix, err := c.program.SendTip(accs, req.lamports)
	if err != nil {
		return solana.Signature{}, tipAccount, monitoring.TipFailedUnknown, err
	}
	sig, err := c.sendAndConfirm(ctx, req.tipper, ix)
	if err != nil {
		return sig, tipAccount, failureReason(err), err
	}
	return sig, tipAccount, "", nil
}

func (c *Controller) sendAndConfirm(ctx context.Context, payer solana.PublicKey, ix solana.Instruction) (solana.Signature, error) {
	bh, err := c.network.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, err
	}
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, bh.Hash, solana.TransactionPayer(payer))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transaction: %w", err)
	}
	if err := c.wallet.SignTransaction(ctx, tx); err != nil {
		return solana.Signature{}, err
	}
	sig, err := c.network.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}
	if err := c.network.ConfirmTransaction(ctx, sig, bh.LastValidBlockHeight); err != nil {
		return sig, err
	}
	return sig, nil
}

func failureReason(err error) monitoring.TipFailureReason {
	var confirmErr *client.ConfirmError
	if errors.As(err, &confirmErr) || errors.Is(err, client.ErrBlockhashExpired) {
		return monitoring.TipConfirmFailed
	}
	return monitoring.TipSendFailed
}

func (c *Controller) saveReceipt(req request, sig solana.Signature, tipAccount solana.PublicKey, at time.Time) {
	if c.receipts == nil {
		return
	}
	err := c.receipts.Put(&store.Receipt{
		Signature:   sig.String(),
		Tipper:      req.tipper.String(),
		Creator:     req.creator.String(),
		TipAccount:  tipAccount.String(),
		Lamports:    req.lamports,
		ConfirmedAt: at,
	})
	if err != nil {
		logx.Error("TIP", "failed to save receipt ", sig.String(), ": ", err)
	}
}

// setStatus replaces the banner. Any non-idle status is reset to idle after
// the reset delay unless another transition happens first.
func (c *Controller) setStatus(status Status, message string) {
	c.mu.Lock()
	c.banner = Banner{Status: status, Message: message}
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if status != StatusIdle {
		gen := c.gen
		c.timer = c.afterFunc(c.resetDelay, func() { c.reset(gen) })
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) reset(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.banner = Banner{Status: StatusIdle}
	c.timer = nil
	c.mu.Unlock()
	c.notify()
}

// Close stops a pending banner reset.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}
