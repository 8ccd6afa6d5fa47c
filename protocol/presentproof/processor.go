// Package presentproof implements the present proof protocol: request,
// presentation and ack. It runs in the same state machine as the issue
// credential protocol.
package presentproof

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/findy-network/findy-conversation-agent/agent/prot"
	"github.com/findy-network/findy-conversation-agent/agent/psm"
	"github.com/findy-network/findy-conversation-agent/agent/ssi"
	"github.com/findy-network/findy-conversation-agent/agent/utils"
	"github.com/findy-network/findy-conversation-agent/protocol/conversation"
	"github.com/findy-network/findy-conversation-agent/protocol/presentproof/prover"
	"github.com/findy-network/findy-conversation-agent/protocol/presentproof/verifier"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var errNoAttributes = errors.New("proof request without attributes")

func init() {
	prot.AddContinuator(psm.StepKey{Role: psm.Verifier, Type: psm.ProofRequest}, verifier.HandlePresentation)
	prot.AddContinuator(psm.StepKey{Role: psm.Prover, Type: psm.Proof}, prover.HandlePresentationACK)

	prot.AddStarter(psm.ProofRequest, checkRequest)
}

func checkRequest(body []byte) error {
	var req ssi.ProofRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return err
	}
	if len(req.Attributes) == 0 {
		return errNoAttributes
	}
	return nil
}

// SendRequest starts the protocol as the verifier by requesting the
// attributes from the connection.
func SendRequest(ctx context.Context, l *conversation.Ledger, wallet string, conn *psm.Connection, credDefID string, attrs []string) (c *psm.Conversation, err error) {
	defer err2.Handle(&err, "send proof request")

	if len(attrs) == 0 {
		return nil, errNoAttributes
	}
	req := ssi.ProofRequest{
		Nonce:      utils.UUID(),
		CredDefID:  credDefID,
		Attributes: attrs,
	}
	body := try.To1(json.Marshal(req))
	return l.RecordOutbound(ctx, wallet, conn, psm.ProofRequest, body, credDefID)
}

// SendPresentation answers the received proof request with a proof built
// from the prover's credentials.
func SendPresentation(ctx context.Context, l *conversation.Ledger, gw ssi.Gateway, wallet string, conn *psm.Connection, conv *psm.Conversation) (c *psm.Conversation, err error) {
	defer err2.Handle(&err, "send presentation")

	cur := try.To1(l.Get(wallet, conv.ID))
	if cur.Role != psm.Prover || cur.Type != psm.ProofRequest || cur.Status != psm.Pending {
		return cur, fmt.Errorf("%s/%s %s: %w", cur.Role, cur.Type, cur.Status,
			conversation.ErrInvalidState)
	}
	proof := try.To1(gw.CreateProof(ctx, wallet, cur.Payload))
	return l.Continue(ctx, wallet, conn, cur, psm.Proof, proof)
}
