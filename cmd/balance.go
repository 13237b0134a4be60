package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/soltip/soltip/balance"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Show the SOL balance of an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showBalance(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func showBalance(ctx context.Context, out io.Writer, address string) error {
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

	sol, err := balance.Fetch(ctx, rpcClient, address)
	if err != nil {
		return fmt.Errorf("failed to fetch balance of %s: %w", address, err)
	}
	view := balance.View{Address: address, Loaded: true, Balance: sol}
	fmt.Fprintf(out, "Address: %s\n%s\n", address, view.Display())
	return nil
}
