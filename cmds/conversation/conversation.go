package conversation

import (
	"context"
	"errors"
	"io"

	"github.com/findy-network/findy-conversation-agent/agent/agency"
	"github.com/findy-network/findy-conversation-agent/agent/psm"
	"github.com/findy-network/findy-conversation-agent/cmds"
	"github.com/findy-network/findy-conversation-agent/protocol/conversation"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type Cmd struct {
	cmds.Cmd
	ID string
}

func (c Cmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.ID == "" {
		return errors.New("conversation id cannot be empty")
	}
	return nil
}

// AdvanceCmd polls the conversation. Without Status it makes one step,
// otherwise it waits until the conversation has the status or the attempts
// run out.
type AdvanceCmd struct {
	Cmd
	Status string
}

func (c AdvanceCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.Status != "" {
		if _, err := parseStatus(c.Status); err != nil {
			return err
		}
	}
	return nil
}

func parseStatus(s string) (psm.Status, error) {
	for _, st := range []psm.Status{psm.Pending, psm.Accepted, psm.Rejected, psm.Failed} {
		if st.String() == s {
			return st, nil
		}
	}
	return psm.Pending, errors.New("unknown status: " + s)
}

func (c AdvanceCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	return cmds.Run(func(a *agency.Agency) (_ cmds.Result, err error) {
		defer err2.Handle(&err)

		ctx := context.Background()
		if c.Status == "" {
			conv := try.To1(a.Advance(ctx, c.WalletName, c.ID, a.Policy()))
			return cmds.JSONResult{V: conv}, nil
		}
		status := try.To1(parseStatus(c.Status))
		conv, reached, err := a.AwaitConversation(ctx, c.WalletName, c.ID,
			a.Policy(), agency.UntilStatus(status))
		try.To(err)
		if !reached {
			cmds.Fprintf(w, "conversation is %s/%s\n", conv.Type, conv.Status)
		}
		return cmds.JSONResult{V: conv}, nil
	})
}

type RejectCmd struct {
	Cmd
	Reason string
}

func (c RejectCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	return cmds.Run(func(a *agency.Agency) (_ cmds.Result, err error) {
		defer err2.Handle(&err)

		conv := try.To1(a.Reject(context.Background(), c.WalletName, c.ID, c.Reason))
		return cmds.JSONResult{V: conv}, nil
	})
}

// ListCmd lists the wallet's conversations, all or the connection's.
type ListCmd struct {
	cmds.Cmd
	ConnectionID string
	Retained     bool
}

func (c ListCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	return cmds.Run(func(a *agency.Agency) (_ cmds.Result, err error) {
		defer err2.Handle(&err)

		if c.Retained {
			return cmds.JSONResult{V: try.To1(a.Conversations.Retained(c.WalletName))}, nil
		}
		var filter func(*psm.Conversation) bool
		if c.ConnectionID != "" {
			filter = conversation.ByConnection(c.ConnectionID)
		}
		return cmds.JSONResult{V: try.To1(a.Conversations.List(c.WalletName, filter))}, nil
	})
}
