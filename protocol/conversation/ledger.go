// Package conversation runs the protocol conversations of the connections.
// The same state machine runs every protocol: the transition rules are in
// psm.Steps and the protocol packages register the handlers of the steps.
//
// Both ends of a conversation have their own record. They are linked only by
// the thread ID which every message of the protocol carries.
package conversation

import (
	"context"
	"errors"
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
	"github.com/findy-network/findy-conversation-agent/protocol/notification"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ErrInvalidState is returned when a send operation doesn't fit to the
// conversation's current state.
var ErrInvalidState = errors.New("invalid conversation state")

// Ledger owns the conversation records.
type Ledger struct {
	db     *psm.DB
	gw     ssi.Gateway
	inbox  *inbox.Dispatcher
	policy prot.Policy

	convs prot.Locker
}

// NewLedger returns the ledger which is also set as the inbox's handler for
// all the non-connection messages and as its recorder of unknown messages.
func NewLedger(db *psm.DB, gw ssi.Gateway, d *inbox.Dispatcher, policy prot.Policy) *Ledger {
	l := &Ledger{db: db, gw: gw, inbox: d, policy: policy}
	d.SetFallback(l)
	d.SetUnknown(l.Unknown)
	return l
}

func (l *Ledger) save(c *psm.Conversation) error {
	c.Updated = time.Now().UnixNano()
	if err := l.db.AddConversation(c); err != nil {
		return err
	}
	glog.V(1).Infof("%s: %s/%s %s", c.StateKey, c.Role, c.Type, c.Status)
	metrics.Transition(c.Category().String(), c.Type.String(), c.Status.String())
	bus.Conversation(c)
	return nil
}

func (l *Ledger) activeConnection(wallet string, conn *psm.Connection) (c *psm.Connection, err error) {
	c, err = l.db.GetConnection(psm.StateKey{Wallet: wallet, ID: conn.ID})
	if err != nil {
		return nil, err
	}
	if !c.IsActive() {
		return c, fmt.Errorf("connection %s is %s: %w", c.ID, c.Status, prot.ErrStaleConversation)
	}
	return c, nil
}

// RecordOutbound starts a new conversation by sending its opening message.
// The record is stored before the send. If the send fails, the record is
// Failed and the error is returned.
func (l *Ledger) RecordOutbound(ctx context.Context, wallet string, conn *psm.Connection, typ psm.Type, payload []byte, tag string) (c *psm.Conversation, err error) {
	defer err2.Handle(&err, "record outbound %s", typ)

	conn = try.To1(l.activeConnection(wallet, conn))
	msgType, role, ok := psm.OutboundOpener(typ)
	if !ok {
		return nil, fmt.Errorf("%s doesn't open conversation: %w", typ, ErrInvalidState)
	}

	msg := ssi.NewMessage(msgType, "", payload)
	msg.ID = utils.UUID()
	now := time.Now().UnixNano()
	c = &psm.Conversation{
		StateKey:      psm.StateKey{Wallet: wallet, ID: utils.UUID()},
		ConnectionID:  conn.ID,
		Type:          typ,
		Role:          role,
		Status:        psm.Pending,
		ThreadID:      msg.ID,
		LastMessageID: msg.ID,
		Payload:       payload,
		Tag:           tag,
		Name:          conn.CounterParty,
		Created:       now,
	}
	try.To(l.save(c))

	sendErr := l.policy.Retry(ctx, func() error {
		_, err := l.gw.SendMessage(ctx, wallet, handle(conn), msg)
		return err
	})
	if sendErr != nil {
		glog.Errorf("%s: send %s: %v", c.StateKey, msgType, sendErr)
		c.Status = psm.Failed
		try.To(l.save(c))
		return c, sendErr
	}
	return c, nil
}

// Continue sends our next message of the conversation. It's allowed only in
// the states which wait for our own send, and next must be the type the
// protocol moves to. A transient send error leaves the conversation as it
// was, other send errors fail it.
func (l *Ledger) Continue(ctx context.Context, wallet string, conn *psm.Connection, conv *psm.Conversation, next psm.Type, payload []byte) (c *psm.Conversation, err error) {
	defer err2.Handle(&err, "continue %s", next)

	conn = try.To1(l.activeConnection(wallet, conn))

	unlock := l.convs.Lock(conv.StateKey.String())
	defer unlock()

	c = try.To1(l.db.GetConversation(psm.StateKey{Wallet: wallet, ID: conv.ID}))
	if c.Status != psm.Pending {
		return c, fmt.Errorf("conversation is %s: %w", c.Status, ErrInvalidState)
	}
	want, ok := psm.LocalSteps[psm.StepKey{Role: c.Role, Type: c.Type}]
	if !ok || want != next {
		return c, fmt.Errorf("%s/%s cannot send %s: %w", c.Role, c.Type, next, ErrInvalidState)
	}
	if t, ok := psm.NextType(c.Category(), c.Type); !ok || t != next {
		return c, fmt.Errorf("%s doesn't follow %s: %w", next, c.Type, ErrInvalidState)
	}

	msg := ssi.NewMessage(psm.WireType(next), c.ThreadID, payload)
	var id string
	sendErr := l.policy.Retry(ctx, func() (err error) {
		id, err = l.gw.SendMessage(ctx, wallet, handle(conn), msg)
		return err
	})
	switch {
	case sendErr == nil:
	case ssi.IsTransient(sendErr):
		return c, sendErr
	default:
		c.Status = psm.Failed
		try.To(l.save(c))
		return c, sendErr
	}

	c.Type = next
	c.LastMessageID = id
	c.Payload = payload
	try.To(l.save(c))
	return c, nil
}

// HandleInbound is the inbox dispatcher hook.
func (l *Ledger) HandleInbound(ctx context.Context, conn *psm.Connection, msg *ssi.Message) (*psm.Conversation, error) {
	return l.RecordInbound(ctx, conn.Wallet, conn, msg)
}

// RecordInbound classifies the inbound message. A message of an existing
// thread is applied to its conversation, a thread opener creates a new
// conversation, and everything else is retained and recorded as a Failed
// conversation of Unknown type.
func (l *Ledger) RecordInbound(ctx context.Context, wallet string, conn *psm.Connection, msg *ssi.Message) (c *psm.Conversation, err error) {
	defer err2.Handle(&err, "record inbound %s", msg.Type)

	if !psm.Known(msg.Type) {
		return l.unknown(wallet, conn, msg, "unknown message type")
	}
	thread := msg.ThreadID()
	c, err = l.db.FindConversationByThread(wallet, conn.ID, thread)
	switch {
	case err == nil:
		return l.apply(ctx, conn, c, msg)
	case !errors.Is(err, psm.ErrNotFound):
		return nil, err
	}

	typ, role, ok := psm.Opener(msg.Type)
	if !ok {
		return l.unknown(wallet, conn, msg, "no conversation for the thread")
	}
	if err := prot.CheckOpener(typ, msg.Body); err != nil {
		return l.failed(wallet, conn, msg, typ, role,
			"malformed "+pltype.ProtocolMsgForType(msg.Type)+": "+err.Error())
	}
	c = &psm.Conversation{
		StateKey:      psm.StateKey{Wallet: wallet, ID: utils.UUID()},
		ConnectionID:  conn.ID,
		Type:          typ,
		Role:          role,
		Status:        psm.Pending,
		ThreadID:      thread,
		LastMessageID: msg.ID,
		Payload:       msg.Body,
		Name:          conn.CounterParty,
		Created:       time.Now().UnixNano(),
	}
	try.To(l.save(c))
	return c, nil
}

// Unknown retains the message which no protocol accepts and records it as a
// Failed conversation of Unknown type.
func (l *Ledger) Unknown(_ context.Context, conn *psm.Connection, msg *ssi.Message, reason string) (*psm.Conversation, error) {
	return l.unknown(conn.Wallet, conn, msg, reason)
}

func (l *Ledger) unknown(wallet string, conn *psm.Connection, msg *ssi.Message, reason string) (*psm.Conversation, error) {
	return l.failed(wallet, conn, msg, psm.Unknown, psm.NoRole, reason)
}

// failed retains the message which cannot start or continue any conversation
// and records it as a Failed conversation of the type.
func (l *Ledger) failed(wallet string, conn *psm.Connection, msg *ssi.Message, typ psm.Type, role psm.Role, reason string) (c *psm.Conversation, err error) {
	defer err2.Handle(&err)

	try.To(prot.Retain(l.db, conn, msg, reason))
	c = &psm.Conversation{
		StateKey:      psm.StateKey{Wallet: wallet, ID: utils.UUID()},
		ConnectionID:  conn.ID,
		Type:          typ,
		Role:          role,
		Status:        psm.Failed,
		ThreadID:      msg.ThreadID(),
		LastMessageID: msg.ID,
		Payload:       msg.Body,
		Name:          conn.CounterParty,
		Created:       time.Now().UnixNano(),
	}
	try.To(l.save(c))
	return c, fmt.Errorf("%s: %w", reason, prot.ErrUnknownProtocolMessage)
}

// apply runs the state machine for the conversation and the message of its
// thread.
func (l *Ledger) apply(ctx context.Context, conn *psm.Connection, conv *psm.Conversation, msg *ssi.Message) (c *psm.Conversation, err error) {
	defer err2.Handle(&err)

	unlock := l.convs.Lock(conv.StateKey.String())
	defer unlock()

	c = try.To1(l.db.GetConversation(conv.StateKey))
	if c.Status.IsFinal() {
		glog.Warningf("%s: %s to %s conversation ignored", c.StateKey, msg.Type, c.Status)
		return c, nil
	}

	if msg.Type == pltype.NotificationProblemReport {
		pr := notification.Parse(msg.Body)
		glog.Warningf("%s: rejected by the other end: %s", c.StateKey, pr.Description)
		c.Status = psm.Rejected
		c.LastMessageID = msg.ID
		try.To(l.save(c))
		return c, nil
	}

	tr, ok := prot.TransitionFor(c)
	if !ok || tr.Awaits != msg.Type {
		glog.Errorf("%s: %s in %s/%s", c.StateKey, msg.Type, c.Role, c.Type)
		c.Status = psm.Failed
		c.LastMessageID = msg.ID
		try.To(l.save(c))
		return c, fmt.Errorf("%s in %s/%s: %w", pltype.ProtocolMsgForType(msg.Type),
			c.Role, c.Type, prot.ErrProtocolViolation)
	}

	work := *c
	e := &prot.Exchange{Gateway: l.gw, Policy: l.policy, Conn: conn, Conv: &work, In: msg}
	ack := true
	if tr.InOut != nil {
		ack, err = tr.InOut(ctx, e)
	}
	switch {
	case err != nil && ssi.IsTransient(err):
		return c, err
	case err != nil:
		glog.Errorf("%s: %s: %v", c.StateKey, tr.Awaits, err)
		c.Status = psm.Failed
		c.LastMessageID = msg.ID
		try.To(l.save(c))
		return c, err
	case !ack:
		c = e.Conv
		c.Status = psm.Rejected
		c.LastMessageID = msg.ID
		if err := notification.Send(ctx, e, notification.CodeNACK,
			pltype.ProtocolMsgForType(msg.Type)+" not accepted"); err != nil {
			glog.Warningln("NACK:", err)
		}
		try.To(l.save(c))
		return c, nil
	}

	c = e.Conv
	c.Type = tr.Next
	if tr.Final {
		c.Status = psm.Accepted
	}
	c.LastMessageID = msg.ID
	try.To(l.save(c))
	return c, nil
}

// Advance is the poll step of the conversation. It processes the
// connection's new messages once and returns the current conversation. No
// new messages is a success, and the conversation is returned as it was.
// ErrProtocolViolation is returned only by the call which processed the
// violating message.
func (l *Ledger) Advance(ctx context.Context, wallet string, conn *psm.Connection, conv *psm.Conversation, policy prot.Policy) (c *psm.Conversation, err error) {
	defer err2.Handle(&err, "advance")

	conn, err = l.activeConnection(wallet, conn)
	if err != nil {
		return conv, err
	}
	key := psm.StateKey{Wallet: wallet, ID: conv.ID}
	c = try.To1(l.db.GetConversation(key))
	if c.Status.IsFinal() {
		return c, nil
	}

	results, drainErr := l.inbox.Drain(ctx, conn, policy)
	var convErr error
	for _, r := range results {
		if r.Err != nil && r.Conversation != nil && r.Conversation.StateKey == key {
			convErr = r.Err
		}
	}
	c = try.To1(l.db.GetConversation(key))
	if drainErr != nil {
		return c, drainErr
	}
	return c, convErr
}

// Reject ends the conversation and tells the other end with a problem
// report. The conversation is Rejected even if the report cannot be sent.
func (l *Ledger) Reject(ctx context.Context, wallet string, conn *psm.Connection, conv *psm.Conversation, reason string) (c *psm.Conversation, err error) {
	defer err2.Handle(&err, "reject")

	conn = try.To1(l.db.GetConnection(psm.StateKey{Wallet: wallet, ID: conn.ID}))

	unlock := l.convs.Lock(conv.StateKey.String())
	defer unlock()

	c = try.To1(l.db.GetConversation(psm.StateKey{Wallet: wallet, ID: conv.ID}))
	if c.Status.IsFinal() {
		return c, nil
	}
	var sendErr error
	if conn.IsActive() {
		e := &prot.Exchange{Gateway: l.gw, Policy: l.policy, Conn: conn, Conv: c}
		sendErr = notification.Send(ctx, e, notification.CodeRejected, reason)
	}
	c.Status = psm.Rejected
	try.To(l.save(c))
	return c, sendErr
}

func (l *Ledger) Get(wallet, id string) (c *psm.Conversation, err error) {
	defer err2.Handle(&err, "conversation %s", id)
	return l.db.GetConversation(psm.StateKey{Wallet: wallet, ID: id})
}

// List returns the wallet's conversations accepted by the filter. Nil filter
// accepts all.
func (l *Ledger) List(wallet string, filter func(*psm.Conversation) bool) (cs []*psm.Conversation, err error) {
	defer err2.Handle(&err, "list conversations")

	all := try.To1(l.db.Conversations(wallet))
	if filter == nil {
		return all, nil
	}
	for _, c := range all {
		if filter(c) {
			cs = append(cs, c)
		}
	}
	return cs, nil
}

func (l *Ledger) Remove(wallet, id string) error {
	key := psm.StateKey{Wallet: wallet, ID: id}
	unlock := l.convs.Lock(key.String())
	defer unlock()

	return l.db.RmConversation(key)
}

// Retained returns the inbound messages which couldn't be classified.
func (l *Ledger) Retained(wallet string) ([]*psm.Retained, error) {
	return l.db.RetainedMessages(wallet)
}

// ByConnection is a List filter.
func ByConnection(id string) func(*psm.Conversation) bool {
	return func(c *psm.Conversation) bool { return c.ConnectionID == id }
}

func handle(conn *psm.Connection) ssi.Handle {
	return ssi.Handle{MyDID: conn.MyDID, TheirDID: conn.TheirDID}
}
