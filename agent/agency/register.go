package agency

import (
	"context"
	"time"

	"github.com/findy-network/findy-conversation-agent/agent/psm"
	"github.com/findy-network/findy-conversation-agent/agent/ssi"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// CreateWallet creates the identity and its wallet.
func (a *Agency) CreateWallet(name, passphrase string) (err error) {
	defer err2.Handle(&err, "create wallet %s", name)

	try.To(psm.ValidWallet(name))
	try.To(a.gw.CreateWallet(name, passphrase))
	return a.db.AddIdentity(&psm.Identity{
		Name:    name,
		Wallet:  name,
		Created: time.Now().UnixNano(),
	})
}

// DeleteWallet deletes the identity and its wallet. It returns
// ssi.DeleteHasRecords when the wallet still owns connections or
// conversations, else the status of the gateway.
func (a *Agency) DeleteWallet(name, passphrase string) (status int) {
	defer err2.Catch(err2.Err(func(err error) {
		glog.Errorln("delete wallet:", err)
		status = ssi.DeleteUnavailable
	}))

	if psm.ValidWallet(name) != nil {
		return ssi.DeleteUnknownWallet
	}
	conns := try.To1(a.db.Connections(name))
	convs := try.To1(a.db.Conversations(name))
	if len(conns) > 0 || len(convs) > 0 {
		glog.Warningf("wallet %s has %d connections and %d conversations",
			name, len(conns), len(convs))
		return ssi.DeleteHasRecords
	}
	status = a.gw.DeleteWallet(name, passphrase)
	if status != ssi.DeleteOK {
		return status
	}
	try.To(a.db.RmIdentity(name))
	try.To(a.db.RmWallet(name))
	return ssi.DeleteOK
}

// Cleanup removes all of the wallet's connections and conversations. The
// counterparties aren't told.
func (a *Agency) Cleanup(ctx context.Context, wallet string) (err error) {
	defer err2.Handle(&err, "cleanup %s", wallet)

	for _, c := range try.To1(a.Conversations.List(wallet, nil)) {
		if err := ctx.Err(); err != nil {
			return err
		}
		try.To(a.Conversations.Remove(wallet, c.ID))
	}
	for _, c := range try.To1(a.Connections.List(wallet)) {
		try.To(a.Connections.Remove(wallet, c.ID))
	}
	return nil
}
