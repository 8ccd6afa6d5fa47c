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

// ReqProofCmd requests the proof of the attributes. Attributes is a JSON
// array of the attribute names.
type ReqProofCmd struct {
	Cmd
	CredDefID  string
	Attributes string
}

func (c ReqProofCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.CredDefID == "" {
		return errors.New("cred def id cannot be empty")
	}
	if _, err := parseProofAttrs(c.Attributes); err != nil {
		return err
	}
	return nil
}

func parseProofAttrs(a string) (attrs []string, err error) {
	if err := json.Unmarshal([]byte(a), &attrs); err != nil {
		return nil, err
	}
	if len(attrs) == 0 {
		return nil, errors.New("proof attributes cannot be empty")
	}
	return attrs, nil
}

func (c ReqProofCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	return cmds.Run(func(a *agency.Agency) (_ cmds.Result, err error) {
		defer err2.Handle(&err)

		attrs := try.To1(parseProofAttrs(c.Attributes))
		conv := try.To1(a.SendProofRequest(context.Background(),
			c.WalletName, c.Name, c.CredDefID, attrs))
		cmds.Fprintln(w, "proof requested:", conv.ID)
		return cmds.JSONResult{V: conv}, nil
	})
}

// ProofCmd presents the proof the conversation requested.
type ProofCmd struct {
	cmds.Cmd
	ConversationID string
}

func (c ProofCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.ConversationID == "" {
		return errors.New("conversation id cannot be empty")
	}
	return nil
}

func (c ProofCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	return cmds.Run(func(a *agency.Agency) (_ cmds.Result, err error) {
		defer err2.Handle(&err)

		conv := try.To1(a.SendProof(context.Background(), c.WalletName, c.ConversationID))
		return cmds.JSONResult{V: conv}, nil
	})
}
