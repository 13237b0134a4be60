package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/soltip/soltip/db"
	"github.com/soltip/soltip/jsonx"
)

// Receipt is the persisted record of a confirmed tip.
type Receipt struct {
	Signature   string    `json:"signature"`
	Tipper      string    `json:"tipper"`
	Creator     string    `json:"creator"`
	TipAccount  string    `json:"tip_account"`
	Lamports    uint64    `json:"lamports"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

type ReceiptStore interface {
	Put(r *Receipt) error
	GetBySignature(sig string) (*Receipt, error)
	// List returns receipts newest first. An empty tipper matches all,
	// limit <= 0 means no limit.
	List(tipper string, limit int) ([]*Receipt, error)
	MustClose()
}

type GenericReceiptStore struct {
	mu         sync.RWMutex
	dbProvider db.IterableProvider
}

func NewGenericReceiptStore(dbProvider db.IterableProvider) (*GenericReceiptStore, error) {
	if dbProvider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}

	return &GenericReceiptStore{
		dbProvider: dbProvider,
	}, nil
}

func (rs *GenericReceiptStore) Put(r *Receipt) error {
	if r == nil || r.Signature == "" {
		return fmt.Errorf("receipt requires a signature")
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	data, err := jsonx.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}

	key := receiptKey(r)
	if err := rs.dbProvider.Put(key, data); err != nil {
		return fmt.Errorf("failed to write receipt to db: %w", err)
	}
	if err := rs.dbProvider.Put(rs.getSigKey(r.Signature), key); err != nil {
		return fmt.Errorf("failed to write receipt index to db: %w", err)
	}
	return nil
}

func (rs *GenericReceiptStore) GetBySignature(sig string) (*Receipt, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	key, err := rs.dbProvider.Get(rs.getSigKey(sig))
	if err != nil {
		return nil, fmt.Errorf("could not get receipt index from db: %w", err)
	}
	if key == nil {
		return nil, nil
	}

	data, err := rs.dbProvider.Get(key)
	if err != nil {
		return nil, fmt.Errorf("could not get receipt from db: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var r Receipt
	if err := jsonx.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal receipt: %w", err)
	}
	return &r, nil
}

func (rs *GenericReceiptStore) List(tipper string, limit int) ([]*Receipt, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	var (
		out     []*Receipt
		iterErr error
	)
	err := rs.dbProvider.ReverseIteratePrefix([]byte(PrefixReceipt), func(_, value []byte) bool {
		var r Receipt
		if err := jsonx.Unmarshal(value, &r); err != nil {
			iterErr = fmt.Errorf("failed to unmarshal receipt: %w", err)
			return false
		}
		if tipper != "" && r.Tipper != tipper {
			return true
		}
		out = append(out, &r)
		return limit <= 0 || len(out) < limit
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate receipts: %w", err)
	}
	if iterErr != nil {
		return nil, iterErr
	}
	return out, nil
}

func (rs *GenericReceiptStore) MustClose() {
	if err := rs.dbProvider.Close(); err != nil {
		panic(err)
	}
}

// receiptKey orders receipts by confirmation time; the zero-padded nanos
// keep lexical and chronological order equal.
func receiptKey(r *Receipt) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", PrefixReceipt, r.ConfirmedAt.UnixNano(), r.Signature))
}

func (rs *GenericReceiptStore) getSigKey(sig string) []byte {
	return []byte(PrefixReceiptSig + sig)
}
