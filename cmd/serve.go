package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/soltip/soltip/api"
	"github.com/soltip/soltip/logx"
	"github.com/soltip/soltip/ratelimit"
	"github.com/soltip/soltip/store"
	"github.com/soltip/soltip/tip"
	"github.com/spf13/cobra"
)

type ServeConfig struct {
	Listen string
}

var serveConfig ServeConfig

var serveCmd = &cobra.Command{
	Use:   "serve [flags]",
	Short: "Serve the tipping web UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(serveConfig)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveConfig.Listen, "listen", "l", "", "listen address (overrides server.listen)")
}

func serve(sc ServeConfig) error {
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
	adapters, err := s.adapters("")
	if err != nil {
		return err
	}

	var receipts tip.ReceiptSink
	rs, err := store.OpenReceiptStore(s.storeConfig())
	if err != nil {
		logx.Warn("SERVE", "receipts disabled: ", err)
	} else {
		defer rs.MustClose()
		receipts = rs
	}

	listen := s.app.Server.Listen
	if sc.Listen != "" {
		listen = sc.Listen
	}

	limiter := ratelimit.NewTipRateLimiter(&ratelimit.RateLimiterConfig{
		MaxRequests: s.tuning.RateLimit.MaxRequests,
		WindowSize:  s.tuning.RateLimitWindow(),
	})
	server := api.NewAPIServer(listen, api.Deps{
		Network:       rpcClient,
		Program:       prog,
		Endpoint:      s.app.Cluster.Endpoint,
		Adapters:      adapters,
		DefaultWallet: s.app.Wallets.Default,
		AutoConnect:   s.app.Wallets.AutoConnect,
		Receipts:      receipts,
		ResetDelay:    s.tuning.StatusReset(),
	}, limiter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("SolTip listening on http://%s (cluster %s)\n", listen, s.app.Cluster.Endpoint)
	return server.Start(ctx)
}
