package connection

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/findy-network/findy-conversation-agent/agent/agency"
	"github.com/findy-network/findy-conversation-agent/cmds"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// IssueCmd offers the credential. Attributes is a JSON object of the
// credential's attribute values.
type IssueCmd struct {
	Cmd
	CredDefID  string
	Attributes string
}

func (c IssueCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.CredDefID == "" {
		return errors.New("cred def id cannot be empty")
	}
	if _, err := parseAttrs(c.Attributes); err != nil {
		return err
	}
	return nil
}

func parseAttrs(a string) (credAttrs map[string]string, err error) {
	if err := json.Unmarshal([]byte(a), &credAttrs); err != nil {
		return nil, err
	}
	if len(credAttrs) == 0 {
		return nil, errors.New("credential attributes cannot be empty")
	}
	return credAttrs, nil
}

func (c IssueCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	return cmds.Run(func(a *agency.Agency) (_ cmds.Result, err error) {
		defer err2.Handle(&err)

		attrs := try.To1(parseAttrs(c.Attributes))
		conv := try.To1(a.SendCredentialOffer(context.Background(),
			c.WalletName, c.Name, c.CredDefID, attrs))
		cmds.Fprintln(w, "credential offered:", conv.ID)
		return cmds.JSONResult{V: conv}, nil
	})
}

// RequestCmd requests the offered credential of the conversation.
type RequestCmd struct {
	cmds.Cmd
	ConversationID string
}

func (c RequestCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.ConversationID == "" {
		return errors.New("conversation id cannot be empty")
	}
	return nil
}

func (c RequestCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	return cmds.Run(func(a *agency.Agency) (_ cmds.Result, err error) {
		defer err2.Handle(&err)

		conv := try.To1(a.SendCredentialRequest(context.Background(), c.WalletName, c.ConversationID))
		return cmds.JSONResult{V: conv}, nil
	})
}
