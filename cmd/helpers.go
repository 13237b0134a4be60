package cmd

import (
	"context"
	"fmt"

	"github.com/soltip/soltip/client"
	"github.com/soltip/soltip/config"
	"github.com/soltip/soltip/program"
	"github.com/soltip/soltip/store"
	"github.com/soltip/soltip/wallet"
)

// settings is everything a command needs from the config and tuning files.
type settings struct {
	app    *config.AppConfig
	tuning *config.Tuning
}

func loadSettings() (*settings, error) {
	app := config.Default()
	if globalConfig.ConfigPath != "" {
		var err error
		app, err = config.LoadConfig(globalConfig.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	tuning := config.DefaultTuning()
	if globalConfig.TuningPath != "" {
		var err error
		tuning, err = config.LoadTuning(globalConfig.TuningPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load tuning: %w", err)
		}
	}
	return &settings{app: app, tuning: tuning}, nil
}

func (s *settings) newClient() (*client.SolanaClient, error) {
	c, err := client.NewClient(client.Config{
		Endpoint:     s.app.Cluster.Endpoint,
		Commitment:   s.app.Commitment(),
		PollInterval: s.tuning.PollInterval(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster client: %w", err)
	}
	return c, nil
}

func (s *settings) program() (program.Descriptor, error) {
	if s.app.Program.ID == "" {
		return program.Default(), nil
	}
	d, err := program.Parse(s.app.Program.ID)
	if err != nil {
		return program.Descriptor{}, fmt.Errorf("invalid program id: %w", err)
	}
	return d, nil
}

// adapters builds the configured wallets, plus an ad-hoc keygen-file wallet
// named "keypair" when keypairPath is set.
func (s *settings) adapters(keypairPath string) ([]wallet.Adapter, error) {
	var out []wallet.Adapter
	if keypairPath != "" {
		a, err := wallet.NewAdapter(keypairWallet, wallet.KindKeygenFile, keypairPath)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	for _, w := range s.app.Wallets.Adapters {
		a, err := wallet.NewAdapter(w.Name, w.Kind, w.Source)
		if err != nil {
			return nil, fmt.Errorf("wallet %q: %w", w.Name, err)
		}
		out = append(out, a)
	}
	return out, nil
}

const keypairWallet = "keypair"

// connectWallet opens the wallet chosen by -w / --keypair, falling back to
// the configured default.
func (s *settings) connectWallet(ctx context.Context, name, keypairPath string) (*wallet.Provider, error) {
	adapters, err := s.adapters(keypairPath)
	if err != nil {
		return nil, err
	}
	if name == "" {
		if keypairPath != "" {
			name = keypairWallet
		} else {
			name = s.app.Wallets.Default
		}
	}
	p := wallet.NewProvider(s.app.Cluster.Endpoint, adapters, wallet.WithDefault(name))
	if err := p.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect wallet %q: %w", p.Selected(), err)
	}
	return p, nil
}

func (s *settings) storeConfig() *store.StoreConfig {
	return &store.StoreConfig{
		Type:      store.StoreType(s.app.Store.Type),
		Directory: s.app.Store.ReceiptsDir,
	}
}
