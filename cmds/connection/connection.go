package connection

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/findy-network/findy-conversation-agent/agent/agency"
	"github.com/findy-network/findy-conversation-agent/agent/prot"
	"github.com/findy-network/findy-conversation-agent/cmds"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Cmd is the base of the commands which operate on a connection.
type Cmd struct {
	cmds.Cmd
	Name string // connection ID
}

func (c Cmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.Name == "" {
		return errors.New("connection id cannot be empty")
	}
	return nil
}

// InvitationCmd creates the invitation to the counterparty. The result is the
// connection record which has the invitation JSON.
type InvitationCmd struct {
	cmds.Cmd
	CounterParty string
}

func (c InvitationCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	return cmds.Run(func(a *agency.Agency) (_ cmds.Result, err error) {
		defer err2.Handle(&err)

		conn := try.To1(a.SendInvitation(context.Background(), c.WalletName, c.CounterParty))
		cmds.Fprintln(w, string(conn.Invitation))
		return cmds.JSONResult{V: conn}, nil
	})
}

// ConnectCmd accepts the invitation. Invitation is the JSON itself or a name
// of the file which has it.
type ConnectCmd struct {
	cmds.Cmd
	CounterParty string
	Invitation   string
}

func (c ConnectCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.Invitation == "" {
		return errors.New("invitation cannot be empty")
	}
	return nil
}

func (c ConnectCmd) invitation() ([]byte, error) {
	if d, err := os.ReadFile(c.Invitation); err == nil {
		return d, nil
	}
	return []byte(c.Invitation), nil
}

func (c ConnectCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	return cmds.Run(func(a *agency.Agency) (_ cmds.Result, err error) {
		defer err2.Handle(&err)

		inv := try.To1(c.invitation())
		conn := try.To1(a.SendConfirmation(context.Background(), c.WalletName, c.CounterParty, inv))
		cmds.Fprintln(w, "connection:", conn.ID, conn.Status)
		return cmds.JSONResult{V: conn}, nil
	})
}

// StatusCmd refreshes the connection. With Wait it polls until the
// connection is Active or the attempts run out.
type StatusCmd struct {
	Cmd
	Wait bool
}

func (c StatusCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	return cmds.Run(func(a *agency.Agency) (_ cmds.Result, err error) {
		defer err2.Handle(&err)

		ctx := context.Background()
		if c.Wait {
			conn, reached, err := a.AwaitConnection(ctx, c.WalletName, c.Name, a.Policy())
			try.To(err)
			if !reached {
				cmds.Fprintln(w, "connection not ready yet")
			}
			return cmds.JSONResult{V: conn}, nil
		}
		conn := try.To1(a.RefreshConnection(ctx, c.WalletName, c.Name))
		return cmds.JSONResult{V: conn}, nil
	})
}

type ListCmd struct {
	cmds.Cmd
}

func (c ListCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	return cmds.Run(func(a *agency.Agency) (_ cmds.Result, err error) {
		defer err2.Handle(&err)

		return cmds.JSONResult{V: try.To1(a.Connections.List(c.WalletName))}, nil
	})
}

// InboxCmd handles the connection's new messages once.
type InboxCmd struct {
	Cmd
}

func (c InboxCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	return cmds.Run(func(a *agency.Agency) (_ cmds.Result, err error) {
		defer err2.Handle(&err)

		n := try.To1(a.HandleInbound(context.Background(), c.WalletName, c.Name, prot.Once))
		cmds.Fprintf(w, "%d new messages\n", n)
		return cmds.JSONResult{V: n}, nil
	})
}
