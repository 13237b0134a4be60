package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/soltip/soltip/client"
	"github.com/soltip/soltip/store"
	"github.com/spf13/cobra"
)

type ReceiptsConfig struct {
	Tipper string
	Limit  int
}

var receiptsConfig ReceiptsConfig

var receiptsCmd = &cobra.Command{
	Use:   "receipts [flags]",
	Short: "List receipts of confirmed tips, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listReceipts(cmd.OutOrStdout(), receiptsConfig)
	},
}

func init() {
	rootCmd.AddCommand(receiptsCmd)

	receiptsCmd.Flags().StringVar(&receiptsConfig.Tipper, "tipper", "", "only show tips sent by this address")
	receiptsCmd.Flags().IntVarP(&receiptsConfig.Limit, "limit", "n", 20, "maximum number of receipts (0 for all)")
}

func listReceipts(out io.Writer, rc ReceiptsConfig) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	rs, err := store.OpenReceiptStore(s.storeConfig())
	if err != nil {
		return fmt.Errorf("failed to open receipt store: %w", err)
	}
	defer rs.MustClose()

	receipts, err := rs.List(rc.Tipper, rc.Limit)
	if err != nil {
		return err
	}
	return writeReceipts(out, receipts)
}

func writeReceipts(out io.Writer, receipts []*store.Receipt) error {
	if len(receipts) == 0 {
		_, err := fmt.Fprintln(out, "No receipts.")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONFIRMED\tAMOUNT\tTIPPER\tCREATOR\tSIGNATURE")
	for _, r := range receipts {
		fmt.Fprintf(tw, "%s\t%s SOL\t%s\t%s\t%s\n",
			r.ConfirmedAt.Local().Format(time.DateTime),
			client.LamportsToSOL(r.Lamports).String(),
			r.Tipper, r.Creator, r.Signature)
	}
	return tw.Flush()
}
