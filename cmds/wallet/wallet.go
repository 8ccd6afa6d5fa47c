package wallet

import (
	"context"
	"fmt"
	"io"

	"github.com/findy-network/findy-conversation-agent/agent/agency"
	"github.com/findy-network/findy-conversation-agent/agent/ssi"
	"github.com/findy-network/findy-conversation-agent/cmds"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type CreateCmd struct {
	cmds.Cmd
}

func (c CreateCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	return c.ValidateWalletKey()
}

func (c CreateCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	return cmds.Run(func(a *agency.Agency) (_ cmds.Result, err error) {
		defer err2.Handle(&err)

		try.To(a.CreateWallet(c.WalletName, c.WalletKey))
		cmds.Fprintln(w, "wallet created:", c.WalletName)
		return nil, nil
	})
}

type DeleteCmd struct {
	cmds.Cmd
	Cleanup bool
}

func (c DeleteCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	return c.ValidateWalletKey()
}

// Exec deletes the wallet. Cleanup removes the wallet's connections and
// conversations first. The status code of the deletion is the result.
func (c DeleteCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	return cmds.Run(func(a *agency.Agency) (_ cmds.Result, err error) {
		defer err2.Handle(&err)

		if c.Cleanup {
			try.To(a.Cleanup(context.Background(), c.WalletName))
		}
		status := a.DeleteWallet(c.WalletName, c.WalletKey)
		if status != ssi.DeleteOK {
			return cmds.JSONResult{V: status}, fmt.Errorf("delete wallet %s: %s",
				c.WalletName, statusText(status))
		}
		cmds.Fprintln(w, "wallet deleted:", c.WalletName)
		return cmds.JSONResult{V: status}, nil
	})
}

func statusText(status int) string {
	switch status {
	case ssi.DeleteOK:
		return "ok"
	case ssi.DeleteUnknownWallet:
		return "unknown wallet"
	case ssi.DeleteBadPassphrase:
		return "bad passphrase"
	case ssi.DeleteHasRecords:
		return "wallet has connections or conversations, use cleanup"
	default:
		return "wallet unavailable"
	}
}

type CredentialsCmd struct {
	cmds.Cmd
}

func (c CredentialsCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	return cmds.Run(func(a *agency.Agency) (_ cmds.Result, err error) {
		defer err2.Handle(&err)

		creds := try.To1(a.Credentials(context.Background(), c.WalletName))
		return cmds.JSONResult{V: creds}, nil
	})
}
