package agency

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/findy-network/findy-conversation-agent/agent/bus"
	"github.com/findy-network/findy-conversation-agent/agent/psm"
	"github.com/stretchr/testify/require"
)

func TestCmd_Validate(t *testing.T) {
	c := DefaultValues
	require.NoError(t, c.Validate())

	c.PsmDB = ""
	require.Error(t, c.Validate())

	c = DefaultValues
	c.PollInterval = time.Millisecond
	require.Error(t, c.Validate())

	c = DefaultValues
	c.Workers = 0
	require.Error(t, c.Validate())
}

func TestCmd_Start(t *testing.T) {
	dir, err := os.MkdirTemp("", "agency-cmd")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	c := Cmd{
		PsmDB:        filepath.Join(dir, "psm.bolt"),
		MailboxDB:    filepath.Join(dir, "mailbox.bolt"),
		PollInterval: time.Second,
		Workers:      2,
	}
	require.NoError(t, c.Validate())

	s, err := c.Start()
	require.NoError(t, err)
	s.poll()

	// the server logs the status changes of all wallets
	n := bus.Notify{StateKey: psm.StateKey{Wallet: "faber", ID: "conv-1"}, Status: psm.Accepted}
	require.Equal(t, 1, bus.WantAll.Broadcast(n))

	require.NoError(t, s.Close())
	require.Equal(t, 0, bus.WantAll.Broadcast(n))
}
