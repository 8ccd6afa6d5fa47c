package verifier

import (
	"context"
	"encoding/json"

	"github.com/findy-network/findy-conversation-agent/agent/pltype"
	"github.com/findy-network/findy-conversation-agent/agent/prot"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type ack struct {
	Status string `json:"status"`
}

// HandlePresentation is protocol function for PRESENTATION at verifier. A
// presentation which doesn't verify is NACKed.
func HandlePresentation(ctx context.Context, e *prot.Exchange) (ok bool, err error) {
	defer err2.Handle(&err, "presentation")

	request := e.Conv.Payload
	try.To(e.Policy.Retry(ctx, func() (err error) {
		ok, err = e.Gateway.VerifyProof(ctx, e.Conv.Wallet, request, e.In.Body)
		return err
	}))
	if !ok {
		glog.Warningf("%s: proof not valid", e.Conv.StateKey)
		return false, nil
	}
	e.Conv.Payload = e.In.Body

	body := try.To1(json.Marshal(ack{Status: "OK"}))
	try.To1(e.Reply(ctx, pltype.PresentProofACK, body))
	return true, nil
}
