package prot

import (
	"time"

	"github.com/findy-network/findy-common-go/dto"
	"github.com/findy-network/findy-conversation-agent/agent/psm"
	"github.com/findy-network/findy-conversation-agent/agent/ssi"
	"github.com/golang/glog"
)

// Retain stores the inbound message as is for later inspection.
func Retain(db *psm.DB, conn *psm.Connection, msg *ssi.Message, reason string) error {
	glog.Warningf("%s: retaining message %s (%s): %s",
		conn.StateKey, msg.ID, msg.Type, reason)
	return db.AddRetained(&psm.Retained{
		StateKey:     psm.StateKey{Wallet: conn.Wallet, ID: msg.ID},
		ConnectionID: conn.ID,
		Type:         msg.Type,
		Raw:          dto.ToGOB(msg),
		Reason:       reason,
		Timestamp:    time.Now().UnixNano(),
	})
}
