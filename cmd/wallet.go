package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/soltip/soltip/wallet"
	"github.com/spf13/cobra"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage local wallet key files",
}

type WalletNewConfig struct {
	Output string
	Force  bool
}

var walletNewConfig WalletNewConfig

var walletNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a keypair file in solana-keygen format",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newWallet(cmd.OutOrStdout(), walletNewConfig)
	},
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletNewCmd)

	walletNewCmd.Flags().StringVarP(&walletNewConfig.Output, "output", "o", "", "path of the keypair file to write")
	walletNewCmd.Flags().BoolVar(&walletNewConfig.Force, "force", false, "overwrite an existing file")
	_ = walletNewCmd.MarkFlagRequired("output")
}

func newWallet(out io.Writer, wc WalletNewConfig) error {
	if !wc.Force {
		if _, err := os.Stat(wc.Output); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", wc.Output)
		}
	}
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}
	if err := wallet.WriteKeygenFile(wc.Output, key); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote keypair to %s\nPublic key: %s\n", wc.Output, key.PublicKey())
	return nil
}
