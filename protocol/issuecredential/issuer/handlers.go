package issuer

import (
	"context"

	"github.com/findy-network/findy-conversation-agent/agent/pltype"
	"github.com/findy-network/findy-conversation-agent/agent/prot"
	"github.com/findy-network/findy-conversation-agent/protocol/issuecredential/data"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// HandleCredentialRequest is protocol function for CRED_REQ at issuer. It
// issues the offered credential and sends it to the holder.
func HandleCredentialRequest(ctx context.Context, e *prot.Exchange) (ack bool, err error) {
	defer err2.Handle(&err, "cred request")

	offer := try.To1(data.ParseOffer(e.Conv.Payload))
	req := try.To1(data.ParseRequest(e.In.Body))
	if req.CredDefID != "" && req.CredDefID != offer.CredDefID {
		glog.Warningf("%s: request for %s, offered %s",
			e.Conv.StateKey, req.CredDefID, offer.CredDefID)
		return false, nil
	}

	var blob []byte
	try.To(e.Policy.Retry(ctx, func() (err error) {
		blob, err = e.Gateway.IssueCredential(ctx, e.Conv.Wallet, offer.CredDefID, offer.Attributes)
		return err
	}))
	try.To1(e.Reply(ctx, pltype.IssueCredentialIssue, data.JSON(data.Issue{Credential: blob})))
	return true, nil
}

// HandleCredentialACK is protocol function for CRED_ACK at issuer.
func HandleCredentialACK(_ context.Context, e *prot.Exchange) (ack bool, err error) {
	defer err2.Handle(&err, "cred ack")

	a := try.To1(data.ParseAck(e.In.Body))
	glog.V(1).Infof("%s: holder acked with %s", e.Conv.StateKey, a.Status)
	return true, nil
}
