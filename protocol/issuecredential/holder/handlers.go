package holder

import (
	"context"

	"github.com/findy-network/findy-conversation-agent/agent/pltype"
	"github.com/findy-network/findy-conversation-agent/agent/prot"
	"github.com/findy-network/findy-conversation-agent/protocol/issuecredential/data"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// HandleCredentialIssue is protocol function for CRED_ISSUE for holder. It
// stores the credential to the holder's wallet and acks it. The wallet stores
// the same credential only once, so a redelivered issue message is safe.
func HandleCredentialIssue(ctx context.Context, e *prot.Exchange) (ack bool, err error) {
	defer err2.Handle(&err, "cred issue")

	issue := try.To1(data.ParseIssue(e.In.Body))
	try.To(e.Policy.Retry(ctx, func() error {
		return e.Gateway.MaterializeCredential(ctx, e.Conv.Wallet, issue.Credential)
	}))
	try.To1(e.Reply(ctx, pltype.IssueCredentialACK, data.JSON(data.Ack{Status: data.StatusOK})))
	return true, nil
}
