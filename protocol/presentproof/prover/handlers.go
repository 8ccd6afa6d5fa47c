package prover

import (
	"context"

	"github.com/findy-network/findy-conversation-agent/agent/prot"
	"github.com/golang/glog"
)

// HandlePresentationACK is protocol function for ACK at prover.
func HandlePresentationACK(_ context.Context, e *prot.Exchange) (bool, error) {
	glog.V(1).Infof("%s: verifier accepted the proof", e.Conv.StateKey)
	return true, nil
}
