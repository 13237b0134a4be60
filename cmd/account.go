package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
	"github.com/soltip/soltip/client"
	"github.com/soltip/soltip/program"
	"github.com/spf13/cobra"
)

type AccountConfig struct {
	Wallet  string
	Keypair string
}

var accountConfig AccountConfig

var accountCmd = &cobra.Command{
	Use:   "account [flags]",
	Short: "Show your tip account and its on-chain record",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showAccount(cmd.Context(), cmd.OutOrStdout(), accountConfig)
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)

	accountCmd.Flags().StringVarP(&accountConfig.Wallet, "wallet", "w", "", "configured wallet whose tip account to show")
	accountCmd.Flags().StringVarP(&accountConfig.Keypair, "keypair", "k", "", "solana-keygen keypair file")
}

func showAccount(ctx context.Context, out io.Writer, ac AccountConfig) error {
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
	provider, err := s.connectWallet(ctx, ac.Wallet, ac.Keypair)
	if err != nil {
		return err
	}
	tipper, _ := provider.PublicKey()

	pda, bump, err := prog.TipAccountAddress(tipper)
	if err != nil {
		return fmt.Errorf("failed to derive tip account: %w", err)
	}
	fmt.Fprintf(out, "Program:     %s\nTipper:      %s\nTip account: %s (bump %d)\n", prog.ID(), tipper, pda, bump)

	return printTipAccount(ctx, out, rpcClient, pda)
}

func printTipAccount(ctx context.Context, out io.Writer, net client.Network, pda solana.PublicKey) error {
	data, err := net.GetAccountData(ctx, pda)
	if errors.Is(err, client.ErrAccountNotFound) {
		fmt.Fprintln(out, "Tip account not initialized yet; it is created with your first tip.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch tip account: %w", err)
	}

	acc, err := program.DecodeTipAccount(data)
	if err != nil {
		return fmt.Errorf("failed to decode tip account: %w", err)
	}
	fmt.Fprintf(out, "Last creator: %s\nTotal tips:  %s SOL (%d lamports)\n",
		acc.Creator, client.LamportsToSOL(acc.TotalTips).String(), acc.TotalTips)
	return nil
}
