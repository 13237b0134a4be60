package db

// DatabaseProvider abstracts the key/value backend used by the stores.
type DatabaseProvider interface {
	// Get retrieves a value by key, nil when absent
	Get(key []byte) ([]byte, error)

	// Put stores a key-value pair
	Put(key, value []byte) error

	// Delete removes a key-value pair
	Delete(key []byte) error

	// Has checks if a key exists
	Has(key []byte) (bool, error)

	// Close closes the database connection
	Close() error
}

// IterableProvider extends DatabaseProvider with iteration capabilities
type IterableProvider interface {
	DatabaseProvider

	// IteratePrefix walks keys with the given prefix in ascending order.
	// The callback returns false to stop.
	IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error

	// ReverseIteratePrefix is IteratePrefix in descending key order.
	ReverseIteratePrefix(prefix []byte, callback func(key, value []byte) bool) error
}
