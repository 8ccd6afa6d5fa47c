package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvName(t *testing.T) {
	assert.Equal(t, "FCONV_DB", getEnvName("", "DB"))
	assert.Equal(t, "FCONV_AGENCY_WORKERS", getEnvName("agency", "WORKERS"))
	assert.Equal(t, "poll delay, FCONV_POLL_DELAY", flagInfo("poll delay", "", "POLL_DELAY"))
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"agency", "start"},
		{"wallet", "create"},
		{"wallet", "delete"},
		{"wallet", "credentials"},
		{"connection", "invite"},
		{"connection", "accept"},
		{"connection", "status"},
		{"connection", "inbox"},
		{"issue", "offer"},
		{"issue", "request"},
		{"proof", "request"},
		{"proof", "send"},
		{"conversation", "advance"},
		{"conversation", "reject"},
		{"conversation", "list"},
		{"version"},
	} {
		c, rest, err := RootCmd().Find(path)
		require.NoError(t, err, path)
		assert.Empty(t, rest)
		assert.Equal(t, path[len(path)-1], c.Name())
	}
}

func TestPrintTree(t *testing.T) {
	c, _, err := RootCmd().Find([]string{"wallet"})
	require.NoError(t, err)

	var buf bytes.Buffer
	printTree(&buf, c, "", 0, true)
	out := buf.String()
	assert.Contains(t, out, "└── wallet\n")
	assert.Contains(t, out, "    ├── create\n")
	assert.Contains(t, out, "    └── delete\n")
}
