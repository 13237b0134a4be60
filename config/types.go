package config

// ClusterConfig selects the Solana cluster
type ClusterConfig struct {
	Network    string `yaml:"network"`
	Endpoint   string `yaml:"endpoint"`
	Commitment string `yaml:"commitment"`
}

// ProgramConfig overrides the tipping program address
type ProgramConfig struct {
	ID string `yaml:"id"`
}

// WalletEntry is one wallet offered to the user
type WalletEntry struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Source string `yaml:"source"`
}

// WalletConfig lists the wallet adapters
type WalletConfig struct {
	Adapters    []WalletEntry `yaml:"adapters"`
	Default     string        `yaml:"default"`
	AutoConnect bool          `yaml:"auto_connect"`
}

// ServerConfig holds the web UI listener
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// StoreConfig holds receipt persistence settings
type StoreConfig struct {
	Type        string `yaml:"type"`
	ReceiptsDir string `yaml:"receipts_dir"`
}

// AppConfig holds the configuration from soltip.yml
type AppConfig struct {
	Cluster ClusterConfig `yaml:"cluster"`
	Program ProgramConfig `yaml:"program"`
	Wallets WalletConfig  `yaml:"wallets"`
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
}

// ConfigFile is the top-level structure for soltip.yml
type ConfigFile struct {
	Config AppConfig `yaml:"config"`
}
