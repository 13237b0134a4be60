package store

import (
	"fmt"

	"github.com/soltip/soltip/db"
)

// StoreType represents the type of store implementation
type StoreType string

const (
	// LevelDBStoreType uses the LevelDB implementation
	LevelDBStoreType StoreType = "leveldb"
)

// StoreConfig holds configuration for creating store instances
type StoreConfig struct {
	Type      StoreType `json:"type" yaml:"type"`
	Directory string    `json:"directory" yaml:"directory"`
}

// Validate validates the store configuration
func (sc *StoreConfig) Validate() error {
	if sc.Type == "" {
		return fmt.Errorf("store type cannot be empty")
	}

	if sc.Directory == "" {
		return fmt.Errorf("directory cannot be empty")
	}

	switch sc.Type {
	case LevelDBStoreType:
		return nil
	default:
		return fmt.Errorf("unsupported store type: %s", sc.Type)
	}
}

// CreateProvider opens the backend described by config
func CreateProvider(config *StoreConfig) (db.IterableProvider, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	switch config.Type {
	case LevelDBStoreType:
		return db.NewLevelDBProvider(config.Directory)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}

// OpenReceiptStore creates the provider and wraps it in a receipt store
func OpenReceiptStore(config *StoreConfig) (*GenericReceiptStore, error) {
	provider, err := CreateProvider(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	rs, err := NewGenericReceiptStore(provider)
	if err != nil {
		provider.Close()
		return nil, err
	}
	return rs, nil
}
