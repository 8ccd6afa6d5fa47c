// Package connection implements the pairwise connection handshake. The
// inviter creates an invitation and a Pending connection. The invitee accepts
// it, which creates an Active connection on its side and sends the
// confirmation. The inviter's connection becomes Active when the confirmation
// is processed.
package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/findy-network/findy-conversation-agent/agent/bus"
	"github.com/findy-network/findy-conversation-agent/agent/inbox"
	"github.com/findy-network/findy-conversation-agent/agent/metrics"
	"github.com/findy-network/findy-conversation-agent/agent/pltype"
	"github.com/findy-network/findy-conversation-agent/agent/prot"
	"github.com/findy-network/findy-conversation-agent/agent/psm"
	"github.com/findy-network/findy-conversation-agent/agent/ssi"
	"github.com/findy-network/findy-conversation-agent/agent/utils"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Registry owns the connection records.
type Registry struct {
	db     *psm.DB
	gw     ssi.Gateway
	inbox  *inbox.Dispatcher
	policy prot.Policy

	records prot.Locker
}

func NewRegistry(db *psm.DB, gw ssi.Gateway, d *inbox.Dispatcher, policy prot.Policy) *Registry {
	r := &Registry{db: db, gw: gw, inbox: d, policy: policy}
	d.Add(pltype.ProtocolConnection, r)
	return r
}

// CreateInvitation creates a fresh pairwise DID and a Pending connection for
// the invitation.
func (r *Registry) CreateInvitation(ctx context.Context, wallet, counterParty string) (c *psm.Connection, err error) {
	defer err2.Handle(&err, "create invitation")

	var did string
	try.To(r.policy.Retry(ctx, func() (err error) {
		did, err = r.gw.NewDID(ctx, wallet)
		return err
	}))

	inv := NewInvitation(wallet, did)
	now := time.Now().UnixNano()
	c = &psm.Connection{
		StateKey:     psm.StateKey{Wallet: wallet, ID: utils.UUID()},
		CounterParty: counterParty,
		InvitationID: inv.ID,
		Invitation:   inv.JSON(),
		MyDID:        did,
		Role:         psm.Inviter,
		Status:       psm.ConnPending,
		Created:      now,
		Updated:      now,
	}
	try.To(r.db.AddConnection(c))
	glog.V(1).Infof("%s: invitation %s created for %s", c.StateKey, inv.ID, counterParty)
	bus.Connection(c)
	return c, nil
}

// AcceptInvitation creates our end of the connection and sends the
// confirmation to the inviter. Accepting the same invitation again returns
// the existing connection. If the confirmation cannot be sent the connection
// is stored as Failed and the error is returned.
func (r *Registry) AcceptInvitation(ctx context.Context, wallet, counterParty string, invitation []byte) (c *psm.Connection, err error) {
	defer err2.Handle(&err, "accept invitation")

	inv := try.To1(ParseInvitation(invitation))
	if c, err := r.db.FindConnectionByInvitation(wallet, inv.ID); err == nil {
		glog.V(1).Infoln("invitation already accepted:", inv.ID)
		return c, nil
	}

	var did string
	try.To(r.policy.Retry(ctx, func() (err error) {
		did, err = r.gw.NewDID(ctx, wallet)
		return err
	}))

	now := time.Now().UnixNano()
	c = &psm.Connection{
		StateKey:     psm.StateKey{Wallet: wallet, ID: utils.UUID()},
		CounterParty: counterParty,
		InvitationID: inv.ID,
		Invitation:   invitation,
		MyDID:        did,
		TheirDID:     inv.RecipientDID,
		Role:         psm.Invitee,
		Status:       psm.ConnActive,
		Created:      now,
		Updated:      now,
	}

	body := try.To1(json.Marshal(Confirm{Label: wallet}))
	msg := ssi.NewMessage(pltype.ConnectionConfirm, inv.ID, body)
	sendErr := r.policy.Retry(ctx, func() error {
		_, err := r.gw.SendMessage(ctx, wallet, ssi.Handle{MyDID: did, TheirDID: inv.RecipientDID}, msg)
		return err
	})
	if sendErr != nil {
		c.Status = psm.ConnFailed
	}
	try.To(r.db.AddConnection(c))
	bus.Connection(c)
	if sendErr != nil {
		return c, sendErr
	}
	glog.V(1).Infof("%s: invitation %s accepted", c.StateKey, inv.ID)
	return c, nil
}

// RefreshStatus processes the connection's new messages and returns the
// current record.
func (r *Registry) RefreshStatus(ctx context.Context, wallet, id string) (c *psm.Connection, err error) {
	defer err2.Handle(&err, "refresh connection")

	c = try.To1(r.Get(wallet, id))
	if c.Status == psm.ConnFailed {
		return c, nil
	}
	try.To1(r.inbox.Handle(ctx, c, r.policy))
	return r.Get(wallet, id)
}

// HandleInbound processes the connection protocol message. It's called by
// the inbox dispatcher.
func (r *Registry) HandleInbound(ctx context.Context, conn *psm.Connection, msg *ssi.Message) (_ *psm.Conversation, err error) {
	if msg.Type != pltype.ConnectionConfirm {
		return r.inbox.Unknown(ctx, conn, msg, "unknown connection message")
	}
	defer err2.Handle(&err, "connection %s", msg.Type)

	unlock := r.records.Lock(conn.StateKey.String())
	defer unlock()

	c := try.To1(r.db.GetConnection(conn.StateKey))
	if msg.ThreadID() != c.InvitationID {
		try.To(prot.Retain(r.db, conn, msg, "confirmation of other invitation"))
		return nil, fmt.Errorf("confirmation thread %s: %w",
			msg.ThreadID(), prot.ErrProtocolViolation)
	}
	if !c.Activate(msg.From) {
		glog.Warningf("%s: confirmation to %s connection ignored",
			c.StateKey, c.Status)
		return nil, nil
	}
	try.To(r.db.AddConnection(c))
	glog.V(1).Infof("%s: connection active, their DID %s", c.StateKey, c.TheirDID)
	metrics.ConnectionsActivated.Inc()
	bus.Connection(c)
	return nil, nil
}

func (r *Registry) Get(wallet, id string) (c *psm.Connection, err error) {
	defer err2.Handle(&err, "connection %s", id)
	return r.db.GetConnection(psm.StateKey{Wallet: wallet, ID: id})
}

func (r *Registry) List(wallet string) ([]*psm.Connection, error) {
	return r.db.Connections(wallet)
}

// Remove removes the connection and its handled message marks.
func (r *Registry) Remove(wallet, id string) (err error) {
	defer err2.Handle(&err, "remove connection %s", id)

	key := psm.StateKey{Wallet: wallet, ID: id}
	unlock := r.records.Lock(key.String())
	defer unlock()

	try.To(r.db.RmConnection(key))
	return r.db.RmHandled(wallet, id)
}
