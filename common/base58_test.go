package common

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	want := key.PublicKey()

	got, err := ParseAddress("  " + want.String() + "\n")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseAddress_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"not base58": "0OIl",
		"too short":  "3yZe7d",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAddress(in)
			assert.ErrorIs(t, err, ErrInvalidAddress)
			assert.False(t, IsValidAddress(in))
		})
	}
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "8ubP…GpLP", ShortAddress("8ubPzisSkpZ7NMcgK72MZUYfx4XcTL9wh9QaBtanGpLP"))
	assert.Equal(t, "abc", ShortAddress("abc"))
}
