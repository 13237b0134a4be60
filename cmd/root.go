package cmd

import (
	"fmt"
	"os"

	"github.com/soltip/soltip/logx"
	"github.com/spf13/cobra"
)

type GlobalConfig struct {
	ConfigPath string
	TuningPath string
}

var globalConfig GlobalConfig

var rootCmd = &cobra.Command{
	Use:   "soltip",
	Short: "Tip Solana creators in SOL",
	Long: `Command line interface and web UI for tipping creators in SOL through
the on-chain tipping program.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalConfig.ConfigPath, "config", "", "path to soltip YAML config (defaults to devnet)")
	rootCmd.PersistentFlags().StringVar(&globalConfig.TuningPath, "tuning", "", "path to tuning INI file")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed: ", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
