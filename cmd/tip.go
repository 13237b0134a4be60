package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/soltip/soltip/balance"
	"github.com/soltip/soltip/history"
	"github.com/soltip/soltip/logx"
	"github.com/soltip/soltip/store"
	"github.com/soltip/soltip/tip"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type TipConfig struct {
	Creator    string
	Amount     string
	Wallet     string
	Keypair    string
	NoReceipts bool
}

var tipConfig TipConfig

// tipCmd represents the tip command
var tipCmd = &cobra.Command{
	Use:   "tip [flags]",
	Short: "Send a SOL tip to a creator",
	Long: `This command initializes your tip account if needed and sends a tip to the
given creator, waiting for the cluster to confirm it.

Examples:
  # Tip 0.5 SOL with the default wallet from the config
  soltip tip --config soltip.yml -t 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGK -a 0.5

  # Tip 1.5 SOL with a solana-keygen keypair
  soltip tip -t 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGK -a 1.5 -k ~/.config/solana/id.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTip(cmd.Context(), cmd.OutOrStdout(), tipConfig)
	},
}

func init() {
	rootCmd.AddCommand(tipCmd)

	tipCmd.Flags().StringVarP(&tipConfig.Creator, "to", "t", "", "creator address to tip")
	tipCmd.Flags().StringVarP(&tipConfig.Amount, "amount", "a", "", "tip amount in SOL")
	tipCmd.Flags().StringVarP(&tipConfig.Wallet, "wallet", "w", "", "configured wallet to sign with")
	tipCmd.Flags().StringVarP(&tipConfig.Keypair, "keypair", "k", "", "solana-keygen keypair file to sign with")
	tipCmd.Flags().BoolVar(&tipConfig.NoReceipts, "no-receipts", false, "do not record a receipt for the tip")
	_ = tipCmd.MarkFlagRequired("to")
	_ = tipCmd.MarkFlagRequired("amount")
}

func sendTip(ctx context.Context, out io.Writer, tc TipConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := loadSettings()
	if err != nil {
		return err
	}
	rpcClient, err := s.newClient()
	if err != nil {
		return err
	}
	defer rpcClient.Close()

	prog, err := s.program()
	if err != nil {
		return err
	}
	provider, err := s.connectWallet(ctx, tc.Wallet, tc.Keypair)
	if err != nil {
		return err
	}
	tipper, _ := provider.PublicKey()
	fmt.Fprintf(out, "Wallet: %s (%s)\n", tipper, provider.Selected())

	printer := &bannerPrinter{out: out}
	opts := []tip.Option{tip.WithResetDelay(s.tuning.StatusReset())}
	if !tc.NoReceipts {
		receipts, err := store.OpenReceiptStore(s.storeConfig())
		if err != nil {
			// receipts are an audit trail, a tip goes out without them
			logx.Warn("TIP CLI", "receipts disabled: ", err)
		} else {
			defer receipts.MustClose()
			opts = append(opts, tip.WithReceiptSink(receipts))
		}
	}

	hist := history.New()
	var ctrl *tip.Controller
	opts = append(opts, tip.WithOnChange(func() {
		printer.print(ctrl.Banner())
	}))
	ctrl = tip.NewController(provider, rpcClient, prog, hist, opts...)
	defer ctrl.Close()

	ctrl.SetCreator(tc.Creator)
	ctrl.SetAmount(tc.Amount)
	submitErr := ctrl.Submit(ctx)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Tip History")
	if err := hist.Render(out); err != nil {
		return err
	}

	if submitErr == nil {
		fmt.Fprintln(out)
		printBalances(ctx, out, rpcClient, []labelledAddress{
			{"Tipper", tipper.String()},
			{"Creator", tc.Creator},
		})
	}
	return submitErr
}

// bannerPrinter writes each distinct visible banner once.
type bannerPrinter struct {
	mu   sync.Mutex
	out  io.Writer
	last tip.Banner
}

func (p *bannerPrinter) print(b tip.Banner) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if b == p.last || !b.Visible() {
		return
	}
	p.last = b
	fmt.Fprintf(p.out, "[%s] %s\n", b.Status, b.Message)
}

type labelledAddress struct {
	label   string
	address string
}

// printBalances fetches the balances concurrently and prints them in order.
// A failed lookup prints the loading placeholder.
func printBalances(ctx context.Context, out io.Writer, src balance.Source, addresses []labelledAddress) {
	results := make([]balance.View, len(addresses))

	g, gctx := errgroup.WithContext(ctx)
	for i, la := range addresses {
		i, addr := i, la.address
		results[i].Address = addr
		g.Go(func() error {
			sol, err := balance.Fetch(gctx, src, addr)
			if err != nil {
				logx.Error("BALANCE", "error fetching balance of ", addr, ": ", err)
				return nil
			}
			results[i].Loaded = true
			results[i].Balance = sol
			return nil
		})
	}
	_ = g.Wait()

	for i, la := range addresses {
		fmt.Fprintf(out, "%s %s\n  %s\n", la.label, results[i].Address, results[i].Display())
	}
}
