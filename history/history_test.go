package history

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_Empty(t *testing.T) {
	h := New()
	var buf bytes.Buffer
	require.NoError(t, h.Render(&buf))
	assert.Equal(t, EmptyMessage+"\n", buf.String())
	assert.True(t, h.Total().IsZero())
}

func TestHistory_AppendOrder(t *testing.T) {
	h := New()
	ts := time.Date(2026, 10, 15, 14, 30, 0, 0, time.Local)
	h.Append(Record{Amount: decimal.RequireFromString("1.5"), Timestamp: ts})
	h.Append(Record{Amount: decimal.RequireFromString("0.25"), Timestamp: ts.Add(time.Minute)})

	records := h.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "1.5", records[0].Amount.String())
	assert.Equal(t, "0.25", records[1].Amount.String())
	assert.Equal(t, "1.75", h.Total().String())

	records[0].Amount = decimal.Zero
	assert.Equal(t, "1.5", h.Records()[0].Amount.String(), "Records returns a copy")

	var buf bytes.Buffer
	require.NoError(t, h.Render(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1.5 SOL  10/15/2026, 2:30:00 PM", lines[0])
}
