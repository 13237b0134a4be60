package history

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EmptyMessage = "No tips sent yet."
	timeLayout   = "1/2/2006, 3:04:05 PM"
)

// Record is one confirmed tip as shown to the user.
type Record struct {
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
	Signature string          `json:"signature,omitempty"`
}

// History holds the tips sent during one session, in append order.
type History struct {
	mu      sync.RWMutex
	records []Record
}

func New() *History {
	return &History{}
}

func (h *History) Append(r Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
}

// Records returns a copy of the history.
func (h *History) Records() []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

// Total sums all recorded amounts.
func (h *History) Total() decimal.Decimal {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := decimal.Zero
	for _, r := range h.records {
		total = total.Add(r.Amount)
	}
	return total
}

// FormatRecord renders one line of the history list.
func FormatRecord(r Record) string {
	return fmt.Sprintf("%s SOL  %s", r.Amount.String(), r.Timestamp.Local().Format(timeLayout))
}

// Render writes the history list, or the empty-state line.
func (h *History) Render(w io.Writer) error {
	records := h.Records()
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, EmptyMessage)
		return err
	}
	for _, r := range records {
		if _, err := fmt.Fprintln(w, FormatRecord(r)); err != nil {
			return err
		}
	}
	return nil
}
