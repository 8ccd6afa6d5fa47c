// Package issuecredential implements the issue credential protocol:
// offer, request, issue and ack.
package issuecredential

import (
	"context"

	"github.com/findy-network/findy-conversation-agent/agent/prot"
	"github.com/findy-network/findy-conversation-agent/agent/psm"
	"github.com/findy-network/findy-conversation-agent/protocol/conversation"
	"github.com/findy-network/findy-conversation-agent/protocol/issuecredential/data"
	"github.com/findy-network/findy-conversation-agent/protocol/issuecredential/holder"
	"github.com/findy-network/findy-conversation-agent/protocol/issuecredential/issuer"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

func init() {
	prot.AddContinuator(psm.StepKey{Role: psm.Issuer, Type: psm.CredentialOffer}, issuer.HandleCredentialRequest)
	prot.AddContinuator(psm.StepKey{Role: psm.Issuer, Type: psm.IssueCredential}, issuer.HandleCredentialACK)
	prot.AddContinuator(psm.StepKey{Role: psm.Holder, Type: psm.CredentialRequest}, holder.HandleCredentialIssue)

	prot.AddStarter(psm.CredentialOffer, func(body []byte) error {
		_, err := data.ParseOffer(body)
		return err
	})
}

// SendOffer starts the protocol as the issuer by offering the credential to
// the connection.
func SendOffer(ctx context.Context, l *conversation.Ledger, wallet string, conn *psm.Connection, offer data.Offer) (c *psm.Conversation, err error) {
	defer err2.Handle(&err, "send offer")

	body := data.JSON(offer)
	try.To1(data.ParseOffer(body))
	return l.RecordOutbound(ctx, wallet, conn, psm.CredentialOffer, body, offer.CredDefID)
}

// SendRequest accepts the received offer by sending the credential request.
func SendRequest(ctx context.Context, l *conversation.Ledger, wallet string, conn *psm.Connection, conv *psm.Conversation) (c *psm.Conversation, err error) {
	defer err2.Handle(&err, "send request")

	cur := try.To1(l.Get(wallet, conv.ID))
	offer := try.To1(data.ParseOffer(cur.Payload))
	req := data.Request{CredDefID: offer.CredDefID}
	return l.Continue(ctx, wallet, conn, cur, psm.CredentialRequest, data.JSON(req))
}
